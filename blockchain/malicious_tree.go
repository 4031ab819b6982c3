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
	"sort"

	"github.com/probechain/netsim/common"
)

// PrivateEntry is one (block, arrival-time) pair held on the ringmaster's
// private chain (spec §3).
type PrivateEntry struct {
	Block       *Block
	ArrivalTime float64
}

// MaliciousBlockTree extends BlockTree with the ringmaster's private chain
// and a broadcast-seen set (spec §3, §4.5). It is shared by every colluder:
// non-ringmaster colluders simply never populate the private chain, since
// all adversarial hashing power is pooled into the ringmaster (spec §4.5).
//
// The embedded BlockTree holds only publicly-known blocks (everything this
// peer received honestly plus whatever the ringmaster has already
// released); private blocks live exclusively in privateByID until
// released, so BlockTree.tip always reflects the honest/public longest
// chain, never an unannounced private one (spec invariant 7).
type MaliciousBlockTree struct {
	BlockTree

	RingmasterID common.PeerID

	private       []PrivateEntry
	privateByID   map[string]*Block
	broadcastSeen map[string]bool
}

// NewMaliciousBlockTree constructs a colluder's tree. ringmasterID marks
// which creator wins depth ties in the fork-choice rule (spec §4.2).
func NewMaliciousBlockTree(genesis *Block, miningReward uint64, ringmasterID common.PeerID) *MaliciousBlockTree {
	return &MaliciousBlockTree{
		BlockTree:     *NewBlockTree(genesis, miningReward),
		RingmasterID:  ringmasterID,
		privateByID:   map[string]*Block{},
		broadcastSeen: map[string]bool{},
	}
}

// applyForkChoice overrides BlockTree's: on equal depth, a block created by
// the ringmaster displaces the incumbent (spec §4.2).
func (t *MaliciousBlockTree) applyForkChoice(id string, b *Block) bool {
	cur, ok := t.seen[t.tip]
	if !ok || b.Depth > cur.Depth {
		t.tip = id
		return true
	}
	if b.Depth == cur.Depth && b.Creator == t.RingmasterID && cur.Creator != t.RingmasterID {
		t.tip = id
		return true
	}
	return false
}

// AddBlock merges an externally-produced block (received over the network,
// never the ringmaster's own fresh mining result -- that goes through
// AddOwnMinedBlock instead) into the public tree, re-implementing the
// add_block recursion against this tree's overridden fork choice. It then
// evaluates the release rule spec §9 pins to this path exactly: "release
// iff private.depth <= honest.depth+1 after an externally-added block."
// The boolean return tells the caller (the protocol driver) whether to
// schedule BroadcastPrivateChain; the string names the private tip to
// release through.
func (t *MaliciousBlockTree) AddBlock(b *Block, arrivalTime float64, isRecursive bool) (AddResult, bool, string) {
	res := t.addBlockMalicious(b, arrivalTime, isRecursive)
	if !res.Accepted || len(t.private) == 0 {
		return res, false, ""
	}
	honestDepth := t.honestTipDepth()
	privTip := t.private[len(t.private)-1]
	if privTip.Block.Depth <= honestDepth+1 {
		return res, true, privTip.Block.ID()
	}
	return res, false, ""
}

// addBlockMalicious is BlockTree.AddBlock with this tree's applyForkChoice,
// duplicated rather than inherited because Go has no virtual dispatch
// through embedding: a call to t.BlockTree.AddBlock would invoke the base
// applyForkChoice, not this override.
func (t *MaliciousBlockTree) addBlockMalicious(b *Block, arrivalTime float64, isRecursive bool) AddResult {
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

	t.verified[id] = true
	t.children[b.ParentID] = append(t.children[b.ParentID], id)
	if !isRecursive {
		t.prevTip = t.tip
	}
	changed := t.applyForkChoice(id, b)
	res := AddResult{Accepted: true, TipChanged: changed, NewTip: t.tip}

	waiting := t.dangling[id]
	delete(t.dangling, id)
	for _, childID := range waiting {
		child := t.seen[childID]
		delete(t.seen, childID) // parked children are in seen; let the re-add through
		t.addBlockMalicious(child, t.arrival[childID], true)
	}
	return res
}

// resolveDanglingMalicious mirrors BlockTree.resolveDangling but re-enters
// through addBlockMalicious rather than the embedded BlockTree.AddBlock --
// the same virtual-dispatch hazard addBlockMalicious's own doc comment
// already calls out. A child promoted out of dangling by CommitReleased
// still needs the ringmaster tie-break and the parent-validation that
// addBlockMalicious, not the base AddBlock, performs.
func (t *MaliciousBlockTree) resolveDanglingMalicious(id string) {
	waiting := t.dangling[id]
	delete(t.dangling, id)
	for _, childID := range waiting {
		child, ok := t.seen[childID]
		if !ok {
			log.Crit(common.ErrUnknownBlock.Error(), "child", childID, "parent", id)
		}
		delete(t.seen, childID) // parked children are in seen; let the re-add through
		t.addBlockMalicious(child, t.arrival[childID], true)
	}
}

// honestTipDepth is the depth of the tip among publicly verified blocks
// only -- i.e. this tree's ordinary BlockTree.tip, which never includes
// unannounced private blocks.
func (t *MaliciousBlockTree) honestTipDepth() int {
	b, ok := t.seen[t.tip]
	if !ok {
		return 0
	}
	return b.Depth
}

// AddOwnMinedBlock validates and records a block the ringmaster itself just
// finished mining onto the private chain (spec §4.5), keeping it sorted by
// depth. Its parent may be the public tip or another still-private block
// (get_lastBlk always extends whichever is deeper), so validation looks the
// parent up in either place. Per the §9 resolution, an own-mined block
// never itself triggers a release -- only AddBlock's externally-produced
// path does -- so this reports only whether validation succeeded.
func (t *MaliciousBlockTree) AddOwnMinedBlock(b *Block, arrivalTime float64) bool {
	parent, ok := t.privateByID[b.ParentID]
	if !ok {
		parent, ok = t.seen[b.ParentID]
		if !ok || !t.verified[b.ParentID] {
			return false
		}
	}
	balances, ok := ValidateAgainstParent(b, parent, t.MiningReward)
	if !ok {
		return false
	}
	b.Balances = balances

	t.private = append(t.private, PrivateEntry{Block: b, ArrivalTime: arrivalTime})
	sort.Slice(t.private, func(i, j int) bool { return t.private[i].Block.Depth < t.private[j].Block.Depth })
	t.privateByID[b.ID()] = b
	return true
}

// GetLastBlk returns the deeper of the public longest tip and the last
// private block (spec §4.5) -- what the ringmaster should mine its next
// block on top of.
func (t *MaliciousBlockTree) GetLastBlk() (id string, depth int) {
	publicDepth := t.honestTipDepth()
	if len(t.private) == 0 {
		return t.tip, publicDepth
	}
	last := t.private[len(t.private)-1].Block
	if last.Depth > publicDepth {
		return last.ID(), last.Depth
	}
	return t.tip, publicDepth
}

// PrivateBlock looks up a still-unreleased private block by id, used when
// validating a privately-chained block whose parent is itself private.
func (t *MaliciousBlockTree) PrivateBlock(id string) (*Block, bool) {
	b, ok := t.privateByID[id]
	return b, ok
}

// PrivateChainLen reports how many blocks are still held privately
// (invariant check / tests).
func (t *MaliciousBlockTree) PrivateChainLen() int {
	return len(t.private)
}

// IsPrivateSorted reports whether the private chain is sorted by depth
// (spec §8 invariant 8); exposed for tests.
func (t *MaliciousBlockTree) IsPrivateSorted() bool {
	for i := 1; i < len(t.private); i++ {
		if t.private[i-1].Block.Depth > t.private[i].Block.Depth {
			return false
		}
	}
	return true
}

// ReleasePrefix removes and returns every private block up to and including
// uptoID, in depth order, moving them out of the private chain so the
// caller can merge them into the public tree and mark them broadcast-seen
// (spec §4.5, BroadcastPrivateChain handler).
func (t *MaliciousBlockTree) ReleasePrefix(uptoID string) []*Block {
	idx := -1
	for i, e := range t.private {
		if e.Block.ID() == uptoID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	released := make([]*Block, idx+1)
	for i := 0; i <= idx; i++ {
		released[i] = t.private[i].Block
		t.broadcastSeen[t.private[i].Block.ID()] = true
		delete(t.privateByID, t.private[i].Block.ID())
	}
	t.private = t.private[idx+1:]
	return released
}

// ReleaseAll drains the entire private chain, used by FinalizeEvent's
// forced drain-time broadcast (spec §4.1, §4.5).
func (t *MaliciousBlockTree) ReleaseAll() []*Block {
	if len(t.private) == 0 {
		return nil
	}
	return t.ReleasePrefix(t.private[len(t.private)-1].Block.ID())
}

// IsBroadcastSeen reports whether a given ringmaster block has already been
// broadcast, to avoid double-processing a repeated BroadcastPrivateChain
// event (spec invariant 7: a ringmaster block is either private or public,
// never both).
func (t *MaliciousBlockTree) IsBroadcastSeen(id string) bool {
	return t.broadcastSeen[id]
}

// MarkBroadcastSeen records id as broadcast-seen without touching the
// private chain, used by a colluder merely relaying a BroadcastPrivateChain
// notice it has no private copy to resolve (spec §4.5): every colluder but
// the ringmaster falls into this case, since all adversarial mining power is
// pooled into the ringmaster alone.
func (t *MaliciousBlockTree) MarkBroadcastSeen(id string) {
	t.broadcastSeen[id] = true
}

// CommitReleased merges a batch of already-validated, already-ordered
// private blocks into the public tree as one logical add_block call (spec
// §4.5, "BroadcastPrivateChain handler": "moving those blocks into the
// public seen set"). The blocks were validated once already, either at
// mining time (AddOwnMinedBlock) or — for blocks the ringmaster itself
// never mined — they would not be in the private chain at all, so no
// correctness re-check happens here. Dangling children promoted as a result
// of a release still go through addBlockMalicious via
// resolveDanglingMalicious, so they get both the ringmaster tie-break and
// their own parent validation.
func (t *MaliciousBlockTree) CommitReleased(blocks []*Block, arrivalTime float64) AddResult {
	if len(blocks) == 0 {
		return AddResult{}
	}
	startTip := t.tip
	t.prevTip = t.tip
	for _, b := range blocks {
		id := b.ID()
		t.seen[id] = b
		t.arrival[id] = arrivalTime
		t.verified[id] = true
		t.children[b.ParentID] = append(t.children[b.ParentID], id)
		t.applyForkChoice(id, b)
		t.resolveDanglingMalicious(id)
	}
	return AddResult{Accepted: true, TipChanged: t.tip != startTip, NewTip: t.tip}
}
