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

package p2p

import (
	mapset "github.com/deckarep/golang-set"
	lru "github.com/hashicorp/golang-lru"

	"github.com/probechain/netsim/blockchain"
	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/txpool"
	"github.com/probechain/netsim/xlog"
)

var log = xlog.Root().New("pkg", "p2p")

// receptionCacheSize bounds how many block ids a peer keeps a
// ReceptionRecord for at once. Unlike a verified-block history, a reception
// record is only needed while a block's hash/get/timeout exchange is still
// live; once it falls out of recent use it is safe to forget (spec §4.3).
const receptionCacheSize = 4096

// Peer is the core per-node state shared by honest and malicious peers
// (spec §3 "Peer state"): identity, link classification, neighbors,
// mempool, reception bookkeeping, and mining state. It is embedded by
// HonestPeer and MaliciousPeer rather than duplicated, per spec §9's
// "capability hierarchy" design note -- this plays the role of the shared
// base, while channels_to_forward_to / channel_details / serve_get /
// add_block are the per-variant virtual operations.
type Peer struct {
	ID        common.PeerID
	Network   NetworkClass
	CPU       CPUClass
	HashPower float64 // share in [0,1]; 0 means non-mining

	PublicLinks map[common.PeerID]LinkParams

	Mempool   *txpool.Mempool
	Watermark *txpool.Watermark

	Reception    map[string]*ReceptionRecord // block id -> record
	receptionLRU *lru.Cache                  // bounds Reception via the eviction callback in NewPeer

	// PendingRequests[peer] is the set of block ids this node has an
	// outstanding channel-1 get-request against that peer for (spec §4.3
	// hash-phase step 3, and the counter-measure's trust check).
	PendingRequests map[common.PeerID]mapset.Set

	MiningParent string // "" if not currently mining
}

// NewPeer constructs the shared core state for id.
func NewPeer(id common.PeerID, network NetworkClass, cpu CPUClass, hashPower float64) *Peer {
	p := &Peer{
		ID:              id,
		Network:         network,
		CPU:             cpu,
		HashPower:       hashPower,
		PublicLinks:     map[common.PeerID]LinkParams{},
		Mempool:         txpool.New(),
		Watermark:       txpool.NewWatermark(),
		Reception:       map[string]*ReceptionRecord{},
		PendingRequests: map[common.PeerID]mapset.Set{},
	}
	// The eviction callback is what makes this a real bound on Reception's
	// memory rather than a second, unconsulted copy of its keys: once a
	// block id falls out of the LRU's recent set, its record is dropped too.
	cache, _ := lru.NewWithEvict(receptionCacheSize, func(key, _ interface{}) {
		delete(p.Reception, key.(string))
	})
	p.receptionLRU = cache
	return p
}

// ReceptionFor returns (creating if absent) the reception record for blkID,
// marking it as recently used so the bookkeeping survives while the
// hash/get/timeout exchange for blkID is still active.
func (p *Peer) ReceptionFor(blkID string) *ReceptionRecord {
	r, ok := p.Reception[blkID]
	if !ok {
		r = NewReceptionRecord()
		p.Reception[blkID] = r
	}
	p.receptionLRU.Add(blkID, struct{}{})
	return r
}

// AddPendingRequest records that p asked sender for blkID over channel 1
// (spec §4.3). A second request for the same (sender, blkID) pair while the
// first is still outstanding would mean the hash/timeout bookkeeping issued
// a duplicate get against the same peer -- an invariant violation (spec §7,
// "Logical assertion failures"), since active_senders bookkeeping is
// supposed to prevent exactly that.
func (p *Peer) AddPendingRequest(sender common.PeerID, blkID string) {
	set, ok := p.PendingRequests[sender]
	if !ok {
		set = mapset.NewSet()
		p.PendingRequests[sender] = set
	}
	if set.Contains(blkID) {
		log.Crit(common.ErrAlreadyDangling.Error(), "sender", sender, "block", blkID)
	}
	set.Add(blkID)
}

// ClearPendingRequest marks a request to sender for blkID as satisfied
// (spec §4.3 block-phase step 1).
func (p *Peer) ClearPendingRequest(sender common.PeerID, blkID string) {
	if set, ok := p.PendingRequests[sender]; ok {
		set.Remove(blkID)
	}
}

// OutstandingPendingTo reports every block id p still has a channel-1 get
// outstanding against sender for.
func (p *Peer) OutstandingPendingTo(sender common.PeerID) []string {
	set, ok := p.PendingRequests[sender]
	if !ok {
		return nil
	}
	out := make([]string, 0, set.Cardinality())
	for _, v := range set.ToSlice() {
		out = append(out, v.(string))
	}
	return out
}

// HonestPeer is a cooperative, non-eclipsing, non-withholding participant
// (spec §4.4).
type HonestPeer struct {
	*Peer
	Tree *blockchain.BlockTree
}

// NewHonestPeer constructs an honest peer rooted at genesis.
func NewHonestPeer(core *Peer, genesis *blockchain.Block, miningReward uint64) *HonestPeer {
	return &HonestPeer{Peer: core, Tree: blockchain.NewBlockTree(genesis, miningReward)}
}

func (h *HonestPeer) HasOverlay() bool       { return false }
func (h *HonestPeer) HasPrivateChain() bool  { return false }
func (h *HonestPeer) IsRingmaster() bool     { return false }

// ChannelsToForwardTo returns every public neighbor (spec §4.3 block-phase
// step 5); honest peers have no overlay and no withholding rule.
func (h *HonestPeer) ChannelsToForwardTo(creator common.PeerID) []Announcer {
	out := make([]Announcer, 0, len(h.PublicLinks))
	for peer := range h.PublicLinks {
		out = append(out, Announcer{Peer: peer, Channel: ChannelPublic})
	}
	return out
}

// ChannelDetails returns the link parameters to peer on ch.
func (h *HonestPeer) ChannelDetails(peer common.PeerID, ch Channel) (LinkParams, bool) {
	if ch != ChannelPublic {
		return LinkParams{}, false
	}
	lp, ok := h.PublicLinks[peer]
	return lp, ok
}

// ServeGet: honest peers always serve (spec §4.3 get-phase).
func (h *HonestPeer) ServeGet(blockCreator common.PeerID, channel Channel, removeEclipse bool) bool {
	return true
}

// AddBlock adapts blockchain.BlockTree.AddBlock to the uniform NodeKind
// shape the protocol driver consumes; no broadcast trigger is possible for
// an honest tree.
func (h *HonestPeer) AddBlock(b *blockchain.Block, t float64) AddOutcome {
	res := h.Tree.AddBlock(b, t, false)
	return AddOutcome{Accepted: res.Accepted, Rejected: res.Rejected, Dangling: res.Dangling, TipChanged: res.TipChanged}
}

// AddMinedBlock records a block this peer just finished mining itself. For
// an honest peer that's identical to receiving any other externally valid
// block: it goes straight into the public tree via the ordinary path.
func (h *HonestPeer) AddMinedBlock(b *blockchain.Block, t float64) AddOutcome {
	return h.AddBlock(b, t)
}

func (h *HonestPeer) HasSeenBlock(id string) bool { return h.Tree.HasSeen(id) }
func (h *HonestPeer) Tip() string                 { return h.Tree.Tip() }
func (h *HonestPeer) PrevTip() string             { return h.Tree.PrevTip() }

func (h *HonestPeer) BlockByID(id string) (*blockchain.Block, bool) { return h.Tree.Block(id) }

func (h *HonestPeer) GetTxnSet(fromTip, exclusiveAncestor string) map[common.TxID]*blockchain.Transaction {
	return h.Tree.GetTxnSet(fromTip, exclusiveAncestor)
}

func (h *HonestPeer) LCA(a, b string) string { return h.Tree.LCA(a, b) }

// VerifiedInArrivalOrder and ArrivalTime back the Peer_<id>.csv writer (spec
// §6); they expose the tree's own bookkeeping rather than duplicating it.
func (h *HonestPeer) VerifiedInArrivalOrder() []*blockchain.Block {
	return h.Tree.VerifiedInArrivalOrder()
}

func (h *HonestPeer) ArrivalTime(id string) float64 { return h.Tree.ArrivalTime(id) }

// MiningParentAndDepth returns the block an honest peer should mine on top
// of: always its own current tip (spec §4.4).
func (h *HonestPeer) MiningParentAndDepth() (string, int) {
	tip := h.Tree.Tip()
	return tip, h.Tree.Depth(tip)
}

// AddOutcome is the NodeKind-uniform result of processing one received
// block, including an optional broadcast trigger for colluder trees.
type AddOutcome struct {
	Accepted       bool
	Rejected       bool
	Dangling       bool
	TipChanged     bool
	ShouldBroadcast bool
	ReleaseBlockID string
}

// NodeKind is the capability interface spec §9 calls for: the four virtual
// operations plus the two capability queries, implemented by HonestPeer and
// MaliciousPeer (the ringmaster is simply a MaliciousPeer with
// IsRingmaster() true and all adversarial hash power).
type NodeKind interface {
	Core() *Peer
	ChannelsToForwardTo(creator common.PeerID) []Announcer
	ChannelDetails(peer common.PeerID, ch Channel) (LinkParams, bool)
	ServeGet(blockCreator common.PeerID, channel Channel, removeEclipse bool) bool
	AddBlock(b *blockchain.Block, t float64) AddOutcome
	AddMinedBlock(b *blockchain.Block, t float64) AddOutcome
	HasSeenBlock(id string) bool
	Tip() string
	PrevTip() string
	BlockByID(id string) (*blockchain.Block, bool)
	GetTxnSet(fromTip, exclusiveAncestor string) map[common.TxID]*blockchain.Transaction
	LCA(a, b string) string
	MiningParentAndDepth() (string, int)
	HasOverlay() bool
	HasPrivateChain() bool
	IsRingmaster() bool
	VerifiedInArrivalOrder() []*blockchain.Block
	ArrivalTime(id string) float64
}

func (h *HonestPeer) Core() *Peer { return h.Peer }

var _ NodeKind = (*HonestPeer)(nil)
