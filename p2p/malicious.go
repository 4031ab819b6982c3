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
	"github.com/probechain/netsim/blockchain"
	"github.com/probechain/netsim/common"
)

// MaliciousPeer is a colluder (spec §4.5): public links plus overlay links
// to every other colluder, a MaliciousBlockTree, and (for the distinguished
// ringmaster only) mining power and a private chain. Non-ringmaster
// colluders use the same type with IsRingmasterFlag false and zero hashing
// power -- all adversarial power is pooled into the ringmaster.
type MaliciousPeer struct {
	*Peer
	Tree *blockchain.MaliciousBlockTree

	OverlayLinks map[common.PeerID]LinkParams

	RingmasterID   common.PeerID
	IsRingmasterFlag bool

	// RemoveEclipse records the config remove_eclipse flag (spec §6) this
	// peer was built with. ServeGet does not read it: the withholding
	// decision uses the removeEclipse argument its caller passes in.
	RemoveEclipse bool
}

// NewMaliciousPeer constructs a colluder rooted at genesis, tied to
// ringmasterID for fork-choice tie-breaking and release-rule bookkeeping.
func NewMaliciousPeer(core *Peer, genesis *blockchain.Block, miningReward uint64, ringmasterID common.PeerID, isRingmaster, removeEclipse bool) *MaliciousPeer {
	return &MaliciousPeer{
		Peer:             core,
		Tree:             blockchain.NewMaliciousBlockTree(genesis, miningReward, ringmasterID),
		OverlayLinks:     map[common.PeerID]LinkParams{},
		RingmasterID:     ringmasterID,
		IsRingmasterFlag: isRingmaster,
		RemoveEclipse:    removeEclipse,
	}
}

func (m *MaliciousPeer) HasOverlay() bool      { return true }
func (m *MaliciousPeer) HasPrivateChain() bool { return true }
func (m *MaliciousPeer) IsRingmaster() bool    { return m.IsRingmasterFlag }
func (m *MaliciousPeer) Core() *Peer           { return m.Peer }

// ChannelsToForwardTo implements spec §4.5's forwarding rule: always forward
// on overlay (channel 2); forward on public (channel 1) only if the block's
// creator is not the ringmaster -- a colluder silently withholds the
// ringmaster's blocks from the public network.
func (m *MaliciousPeer) ChannelsToForwardTo(creator common.PeerID) []Announcer {
	out := make([]Announcer, 0, len(m.PublicLinks)+len(m.OverlayLinks))
	for peer := range m.OverlayLinks {
		out = append(out, Announcer{Peer: peer, Channel: ChannelOverlay})
	}
	if creator != m.RingmasterID {
		for peer := range m.PublicLinks {
			out = append(out, Announcer{Peer: peer, Channel: ChannelPublic})
		}
	}
	return out
}

// ChannelDetails returns the link parameters to peer on ch.
func (m *MaliciousPeer) ChannelDetails(peer common.PeerID, ch Channel) (LinkParams, bool) {
	switch ch {
	case ChannelPublic:
		lp, ok := m.PublicLinks[peer]
		return lp, ok
	case ChannelOverlay:
		lp, ok := m.OverlayLinks[peer]
		return lp, ok
	default:
		return LinkParams{}, false
	}
}

// ServeGet implements spec §4.3's reply rule for malicious peers: a
// non-ringmaster colluder replies unless eclipse is active (config
// remove_eclipse = false), the block was created by the ringmaster, and the
// request came on the public channel. Colluders always share freely over the
// overlay, and the ringmaster itself serves its own blocks on any channel
// once they're no longer private.
func (m *MaliciousPeer) ServeGet(blockCreator common.PeerID, channel Channel, removeEclipse bool) bool {
	if channel != ChannelPublic || m.IsRingmasterFlag {
		return true
	}
	if removeEclipse {
		return true
	}
	if blockCreator == m.RingmasterID {
		return false
	}
	return true
}

// AddBlock merges an externally-received block into the colluder's tree and
// surfaces the ringmaster's release decision (spec §4.5) as a uniform
// AddOutcome so the protocol driver can schedule BroadcastPrivateChain
// without knowing about MaliciousBlockTree directly.
func (m *MaliciousPeer) AddBlock(b *blockchain.Block, t float64) AddOutcome {
	res, shouldBroadcast, releaseID := m.Tree.AddBlock(b, t, false)
	return AddOutcome{
		Accepted:        res.Accepted,
		Rejected:        res.Rejected,
		Dangling:        res.Dangling,
		TipChanged:      res.TipChanged,
		ShouldBroadcast: shouldBroadcast,
		ReleaseBlockID:  releaseID,
	}
}

// AddMinedBlock records a block the ringmaster itself just finished mining
// onto the private chain (spec §4.5); never triggers a release (§9's fix
// pins release evaluation to the externally-added path only). Non-ringmaster
// colluders mine with zero hashing power and never actually call this.
func (m *MaliciousPeer) AddMinedBlock(b *blockchain.Block, t float64) AddOutcome {
	ok := m.Tree.AddOwnMinedBlock(b, t)
	return AddOutcome{Accepted: ok}
}

func (m *MaliciousPeer) HasSeenBlock(id string) bool { return m.Tree.HasSeen(id) }
func (m *MaliciousPeer) Tip() string                 { return m.Tree.Tip() }
func (m *MaliciousPeer) PrevTip() string             { return m.Tree.PrevTip() }

// BlockByID looks in the public tree first, falling back to the private
// chain -- mining-candidate assembly needs a parent's balance snapshot
// regardless of whether that parent has been announced yet.
func (m *MaliciousPeer) BlockByID(id string) (*blockchain.Block, bool) {
	if b, ok := m.Tree.Block(id); ok {
		return b, ok
	}
	return m.Tree.PrivateBlock(id)
}

func (m *MaliciousPeer) GetTxnSet(fromTip, exclusiveAncestor string) map[common.TxID]*blockchain.Transaction {
	return m.Tree.GetTxnSet(fromTip, exclusiveAncestor)
}

func (m *MaliciousPeer) LCA(a, b string) string { return m.Tree.LCA(a, b) }

// VerifiedInArrivalOrder and ArrivalTime back the Peer_<id>.csv writer (spec
// §6); only blocks that made it into the public tree ever appear here --
// blocks still sitting in the private chain are, by definition, not yet
// verified-and-public from any other peer's point of view.
func (m *MaliciousPeer) VerifiedInArrivalOrder() []*blockchain.Block {
	return m.Tree.VerifiedInArrivalOrder()
}

func (m *MaliciousPeer) ArrivalTime(id string) float64 { return m.Tree.ArrivalTime(id) }

// MiningParentAndDepth returns the deeper of the public tip and the last
// private block (spec §4.5 get_lastBlk).
func (m *MaliciousPeer) MiningParentAndDepth() (string, int) {
	return m.Tree.GetLastBlk()
}

var _ NodeKind = (*MaliciousPeer)(nil)
