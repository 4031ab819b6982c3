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

// Package blockchain implements the data model of spec.md §3 (Transaction,
// Block, Genesis) and the per-peer block-tree engine of §4.2 (BlockTree,
// MaliciousBlockTree). Block identity hashing follows the teacher's
// core/types/block.go pattern (a cached keccak256 digest over header
// fields), adapted: there is no RLP/trie dependency here, so the merkle
// root is a flat keccak256 fold over per-transaction digests rather than a
// full trie, which is sufficient since nothing ever needs a merkle proof.
package blockchain

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/probechain/netsim/common"
)

// TxSizeKbits is the fixed logical size of a transaction (spec §3).
const TxSizeKbits = 8

// CoinbaseSender is the sentinel sender id of a coinbase transaction.
const CoinbaseSender common.PeerID = -1

// Transaction is immutable once created (spec §3).
type Transaction struct {
	ID       common.TxID
	Sender   common.PeerID
	Receiver common.PeerID
	Amount   uint256.Int
}

// IsCoinbase reports whether this transaction is the mining-reward credit
// present as the first transaction of every valid block.
func (t *Transaction) IsCoinbase() bool {
	return t.Sender == CoinbaseSender
}

// bytes returns a deterministic byte representation used both for hashing
// and as a stable sort/dedup key.
func (t *Transaction) bytes() []byte {
	return []byte(fmt.Sprintf("%d|%d|%d|%s", t.ID, t.Sender, t.Receiver, t.Amount.Hex()))
}

// Block is immutable once created (spec §3).
type Block struct {
	Creator      common.PeerID
	Txns         []*Transaction
	ParentID     string
	Depth        int
	StartMining  float64
	Balances     map[common.PeerID]uint256.Int
	id           atomic.Value // lazily computed, cached string
}

// Size is the block's logical size in kilobits (spec §3: size = |txns|*8kb).
func (b *Block) Size() float64 {
	return float64(len(b.Txns)) * TxSizeKbits
}

// ID returns the hex digest identity of the block, computed once and
// cached (mirrors the teacher's atomic.Value hash cache on core/types.Block).
func (b *Block) ID() string {
	if cached := b.id.Load(); cached != nil {
		return cached.(string)
	}
	id := b.computeID()
	b.id.Store(id)
	return id
}

func (b *Block) computeID() string {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "%s|%f", b.ParentID, b.StartMining)
	h.Write(merkleRoot(b.Txns))
	for _, tx := range b.Txns {
		h.Write(tx.bytes())
	}
	sum := h.Sum(nil)
	return common.BytesToHash(sum).Hex()
}

// merkleRoot folds per-transaction digests into a single root hash. A flat
// fold rather than a binary tree, since nothing in this simulator ever
// needs an inclusion proof -- only a value that changes whenever the txn
// set changes.
func merkleRoot(txns []*Transaction) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, tx := range txns {
		leaf := sha3.Sum256(tx.bytes())
		h.Write(leaf[:])
	}
	return h.Sum(nil)
}

// NewGenesis builds the deterministic genesis block known to every peer at
// startup (spec §3, §6): depth 0, no transactions, sentinel parent, all-zero
// balances.
func NewGenesis(peers []common.PeerID) *Block {
	balances := make(map[common.PeerID]uint256.Int, len(peers))
	for _, p := range peers {
		balances[p] = uint256.Int{}
	}
	g := &Block{
		Creator:     -1,
		Txns:        nil,
		ParentID:    common.GenesisParentID,
		Depth:       0,
		StartMining: 0,
		Balances:    balances,
	}
	g.id.Store(genesisID)
	return g
}

// genesisID is fixed so every peer agrees on the same id string for the
// single genesis block without needing to hash it (its fields never vary).
const genesisID = "genesis"

// NonCoinbaseTotals accumulates each sender's spend across txns, used both
// by the correctness check (§4.2) and by mempool/mining candidate assembly
// (§4.4).
func NonCoinbaseTotals(txns []*Transaction) map[common.PeerID]uint256.Int {
	totals := make(map[common.PeerID]uint256.Int)
	for _, tx := range txns {
		if tx.IsCoinbase() {
			continue
		}
		cur := totals[tx.Sender]
		cur.Add(&cur, &tx.Amount)
		totals[tx.Sender] = cur
	}
	return totals
}

// SortedTxIDs is used wherever a deterministic iteration order over a set of
// transactions is required (spec §9: sample_transactions order is
// underspecified in the original simulator; this module fixes it to
// ascending transaction id).
func SortedTxIDs(txns map[common.TxID]*Transaction) []common.TxID {
	ids := make([]common.TxID, 0, len(txns))
	for id := range txns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
