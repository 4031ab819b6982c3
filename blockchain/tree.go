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

package blockchain

import (
	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/xlog"
)

var log = xlog.Root().New("pkg", "blockchain")

// BlockTree is the per-peer block-tree engine of spec §4.2: seen blocks
// keyed by id, a parent->children index, verified ids, arrival times, the
// current/previous tip, and dangling children awaiting a missing parent.
type BlockTree struct {
	MiningReward uint64

	seen      map[string]*Block
	arrival   map[string]float64
	verified  map[string]bool
	children  map[string][]string
	dangling  map[string][]string

	tip     string
	prevTip string
}

// NewBlockTree constructs a tree rooted at genesis.
func NewBlockTree(genesis *Block, miningReward uint64) *BlockTree {
	return &BlockTree{
		MiningReward: miningReward,
		seen:         map[string]*Block{genesis.ID(): genesis},
		arrival:      map[string]float64{genesis.ID(): 0},
		verified:     map[string]bool{genesis.ID(): true},
		children:     map[string][]string{},
		dangling:     map[string][]string{},
		tip:          genesis.ID(),
		prevTip:      genesis.ID(),
	}
}

// Tip returns the current longest-chain tip's block id.
func (t *BlockTree) Tip() string { return t.tip }

// PrevTip returns the tip as it stood before the most recent successful
// add_block call, used for mempool reconciliation (spec §4.2). Spec §9 pins
// this to the outermost add_block call; it is never touched by nested
// dangling-chain promotions.
func (t *BlockTree) PrevTip() string { return t.prevTip }

// Block returns the block for id if this peer has ever seen it (verified or
// dangling).
func (t *BlockTree) Block(id string) (*Block, bool) {
	b, ok := t.seen[id]
	return b, ok
}

// IsVerified reports whether id is in the verified set.
func (t *BlockTree) IsVerified(id string) bool {
	return t.verified[id]
}

// HasSeen reports whether the full block (not merely its hash) has already
// been recorded, per spec §4.3 "If P has already seen the full block, drop."
func (t *BlockTree) HasSeen(id string) bool {
	_, ok := t.seen[id]
	return ok
}

// Depth returns a verified block's depth, or -1 if unknown.
func (t *BlockTree) Depth(id string) int {
	b, ok := t.seen[id]
	if !ok {
		return -1
	}
	return b.Depth
}

// AddResult reports what AddBlock actually did, so callers (Peer, malicious
// overrides) can react (mempool reconciliation, re-mining, broadcast
// triggers) without re-deriving state.
type AddResult struct {
	Accepted     bool // false if dropped (already seen), rejected, or parked dangling
	Rejected     bool // true if correctness validation failed (subtree discarded)
	Dangling     bool // true if parked awaiting parent
	TipChanged   bool
	NewTip       string
}

// AddBlock implements spec §4.2's add_block. isRecursive must be false on
// the outermost call and true for every promotion triggered by resolving
// `dangling[id]`; this is exactly the mechanism spec §9 uses to pin prevTip
// to the outermost call only.
func (t *BlockTree) AddBlock(b *Block, arrivalTime float64, isRecursive bool) AddResult {
	id := b.ID()
	if t.HasSeen(id) {
		return AddResult{Accepted: false}
	}
	t.seen[id] = b
	t.arrival[id] = arrivalTime

	parent, parentKnown := t.seen[b.ParentID]
	if !parentKnown || !t.verified[b.ParentID] {
		t.parkDangling(b.ParentID, id)
		return AddResult{Accepted: false, Dangling: true}
	}

	balances, ok := ValidateAgainstParent(b, parent, t.MiningReward)
	if !ok {
		t.discardSubtree(id)
		return AddResult{Accepted: false, Rejected: true}
	}
	b.Balances = balances

	res := t.commit(b, id, isRecursive)
	t.resolveDangling(id)
	return res
}

// parkDangling records id as waiting on missingParent. HasSeen already
// guards AddBlock's entry against re-processing the same id, so the same id
// appearing twice in the same parent's waiting list would mean that guard
// was bypassed -- an invariant violation (spec §7).
func (t *BlockTree) parkDangling(missingParent, id string) {
	for _, waiting := range t.dangling[missingParent] {
		if waiting == id {
			log.Crit(common.ErrAlreadyDangling.Error(), "parent", missingParent, "block", id)
		}
	}
	t.dangling[missingParent] = append(t.dangling[missingParent], id)
}

// commit finalizes a verified block: records it, updates fork choice, and
// (only on the outermost call) snapshots prevTip.
func (t *BlockTree) commit(b *Block, id string, isRecursive bool) AddResult {
	t.verified[id] = true
	t.children[b.ParentID] = append(t.children[b.ParentID], id)

	if !isRecursive {
		t.prevTip = t.tip
	}

	changed := t.applyForkChoice(id, b)
	return AddResult{Accepted: true, TipChanged: changed, NewTip: t.tip}
}

// applyForkChoice is the honest fork-choice rule (spec §4.2): strictly
// greater depth wins, ties keep the incumbent. Overridden by
// MaliciousBlockTree to break ties toward the ringmaster.
func (t *BlockTree) applyForkChoice(id string, b *Block) bool {
	cur, ok := t.seen[t.tip]
	if !ok || b.Depth > cur.Depth {
		t.tip = id
		return true
	}
	return false
}

// resolveDangling recursively attempts every block parked awaiting `id`,
// without re-recording prevTip (spec §9).
func (t *BlockTree) resolveDangling(id string) {
	waiting := t.dangling[id]
	delete(t.dangling, id)
	for _, childID := range waiting {
		child, ok := t.seen[childID]
		if !ok {
			// Invariant violation: spec §7 "a dangling block arrives twice"
			// class of assertion failure.
			log.Crit(common.ErrUnknownBlock.Error(), "child", childID, "parent", id)
		}
		// The child was recorded in seen when it was parked; clear that
		// record so AddBlock's already-seen guard lets the promotion through.
		delete(t.seen, childID)
		t.AddBlock(child, t.arrival[childID], true)
	}
}

// discardSubtree removes id and recursively discards every block parked in
// dangling[id] (there cannot be any verified descendants of a rejected
// block, since nothing can have verified on top of it).
func (t *BlockTree) discardSubtree(id string) {
	delete(t.seen, id)
	delete(t.arrival, id)
	waiting := t.dangling[id]
	delete(t.dangling, id)
	for _, childID := range waiting {
		t.discardSubtree(childID)
	}
}

// LCA walks both ids up to a common ancestor (spec §4.2). Per spec §9's
// fix, a degenerate/empty history resolves to the genesis id rather than a
// sentinel.
func (t *BlockTree) LCA(a, b string) string {
	if a == "" || b == "" {
		return genesisID
	}
	ab, aok := t.seen[a]
	bb, bok := t.seen[b]
	if !aok || !bok {
		return genesisID
	}
	for ab.Depth > bb.Depth {
		a = ab.ParentID
		ab = t.seen[a]
	}
	for bb.Depth > ab.Depth {
		b = bb.ParentID
		bb = t.seen[b]
	}
	for a != b {
		a = ab.ParentID
		b = bb.ParentID
		ab = t.seen[a]
		bb = t.seen[b]
	}
	return a
}

// GetTxnSet returns the union of non-coinbase transactions on the chain
// from fromTip upward, stopping before exclusiveAncestor (spec §4.2).
func (t *BlockTree) GetTxnSet(fromTip, exclusiveAncestor string) map[common.TxID]*Transaction {
	out := make(map[common.TxID]*Transaction)
	cur := fromTip
	for cur != "" && cur != exclusiveAncestor {
		b, ok := t.seen[cur]
		if !ok {
			break
		}
		for _, tx := range b.Txns {
			if !tx.IsCoinbase() {
				out[tx.ID] = tx
			}
		}
		cur = b.ParentID
	}
	return out
}

// ArrivalTime returns the recorded arrival time for a seen block id, used
// when writing Peer_<id>.csv rows (spec §6).
func (t *BlockTree) ArrivalTime(id string) float64 {
	return t.arrival[id]
}

// VerifiedInArrivalOrder returns every verified block sorted by arrival
// time, as spec §6 requires for Peer_<id>.csv rows.
func (t *BlockTree) VerifiedInArrivalOrder() []*Block {
	out := make([]*Block, 0, len(t.verified))
	for id := range t.verified {
		out = append(out, t.seen[id])
	}
	sortByArrival(out, t.arrival)
	return out
}

func sortByArrival(blocks []*Block, arrival map[string]float64) {
	for i := 1; i < len(blocks); i++ {
		j := i
		for j > 0 && arrival[blocks[j-1].ID()] > arrival[blocks[j].ID()] {
			blocks[j-1], blocks[j] = blocks[j], blocks[j-1]
			j--
		}
	}
}
