// Copyright 2014 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package txpool implements the per-peer mempool and the duplicate-
// suppression watermark of spec.md §3/§9.
package txpool

import (
	"github.com/probechain/netsim/blockchain"
	"github.com/probechain/netsim/common"
)

// Mempool is a peer's set of pending transactions (spec §3).
type Mempool struct {
	txns map[common.TxID]*blockchain.Transaction
}

// New returns an empty mempool.
func New() *Mempool {
	return &Mempool{txns: make(map[common.TxID]*blockchain.Transaction)}
}

// Add inserts tx if not already present.
func (m *Mempool) Add(tx *blockchain.Transaction) {
	if _, ok := m.txns[tx.ID]; ok {
		return
	}
	m.txns[tx.ID] = tx
}

// Remove deletes tx by id, no-op if absent.
func (m *Mempool) Remove(id common.TxID) {
	delete(m.txns, id)
}

// Has reports whether id is currently pending.
func (m *Mempool) Has(id common.TxID) bool {
	_, ok := m.txns[id]
	return ok
}

// Get returns the pending transaction, if any.
func (m *Mempool) Get(id common.TxID) (*blockchain.Transaction, bool) {
	tx, ok := m.txns[id]
	return tx, ok
}

// Len reports the mempool size.
func (m *Mempool) Len() int {
	return len(m.txns)
}

// Reconcile applies spec §4.2's post-add_block mempool reconciliation:
// re-add everything orphaned off the old branch, then drop everything now
// confirmed on the new chain.
func (m *Mempool) Reconcile(toReadd, toRemove map[common.TxID]*blockchain.Transaction) {
	for _, tx := range toReadd {
		m.Add(tx)
	}
	for id := range toRemove {
		m.Remove(id)
	}
}

// SortedIDs returns the mempool's transaction ids in ascending order -- the
// deterministic iteration order spec §9 mandates for sample_transactions.
func (m *Mempool) SortedIDs() []common.TxID {
	return blockchain.SortedTxIDs(m.txns)
}

// NoneOnChain is a test/invariant helper asserting spec §8 invariant 5:
// the mempool contains no transaction present on the current longest chain.
func (m *Mempool) NoneOnChain(onChain map[common.TxID]*blockchain.Transaction) bool {
	for id := range m.txns {
		if _, ok := onChain[id]; ok {
			return false
		}
	}
	return true
}

// Watermark is the duplicate-suppression structure of spec §9: a dense
// contiguous id sequence with a threshold that advances whenever
// threshold+1 is seen, plus an out-of-order set for ids seen ahead of the
// threshold.
type Watermark struct {
	threshold common.TxID // every id <= threshold has been seen
	outOfOrder map[common.TxID]struct{}
}

// NewWatermark returns a watermark with nothing seen yet.
func NewWatermark() *Watermark {
	return &Watermark{outOfOrder: make(map[common.TxID]struct{})}
}

// Check reports whether id has already been seen.
func (w *Watermark) Check(id common.TxID) bool {
	if id <= w.threshold {
		return true
	}
	_, ok := w.outOfOrder[id]
	return ok
}

// Mark records id as seen, advancing the threshold through any run of
// consecutive ids this completes.
func (w *Watermark) Mark(id common.TxID) {
	if id <= w.threshold {
		return
	}
	w.outOfOrder[id] = struct{}{}
	for {
		next := w.threshold + 1
		if _, ok := w.outOfOrder[next]; !ok {
			break
		}
		delete(w.outOfOrder, next)
		w.threshold = next
	}
}
