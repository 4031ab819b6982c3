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

package protocol

import (
	"github.com/probechain/netsim/blockchain"
	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/eventqueue"
	"github.com/probechain/netsim/p2p"
)

// handleBroadcastPrivateChain implements spec.md §4.5's BroadcastPrivateChain
// handler. Only the ringmaster ever actually holds private blocks; every
// other colluder that receives this event over the overlay is relaying a
// notice it has nothing to resolve locally, so it marks the id broadcast-seen
// (idempotence) and passes the notice on (spec.md §4.5: "flood the broadcast
// notice on overlay, except the sender").
func (d *Driver) handleBroadcastPrivateChain(sched *eventqueue.Scheduler, ev eventqueue.Event) {
	payload := ev.Payload.(BroadcastPrivateChainPayload)
	pid := common.PeerID(ev.PeerID)
	m := d.mustColluder(pid)

	if payload.FromSelf {
		if !m.IsRingmaster() {
			return
		}
		released := m.Tree.ReleasePrefix(payload.BlockID)
		if len(released) == 0 {
			return
		}
		d.commitAndAnnounce(sched, pid, m, released)
		d.floodOverlayNotice(sched, pid, m, released[len(released)-1].ID(), true, 0)
		return
	}

	if m.Tree.IsBroadcastSeen(payload.BlockID) {
		return
	}
	m.Tree.MarkBroadcastSeen(payload.BlockID)
	d.floodOverlayNotice(sched, pid, m, payload.BlockID, false, payload.Sender)
}

// handleFinalize implements spec.md §4.1/§4.5's FinalizeEvent: flipping the
// scheduler into drain mode is the scheduler's own job (eventqueue.Scheduler.
// RunUntil); this handler only carries the ringmaster's forced full
// private-chain release.
func (d *Driver) handleFinalize(sched *eventqueue.Scheduler, ev eventqueue.Event) {
	pid := common.PeerID(ev.PeerID)
	node, ok := d.Peers[pid]
	if !ok {
		return
	}
	m, ok := node.(*p2p.MaliciousPeer)
	if !ok || !m.IsRingmaster() {
		return
	}
	released := m.Tree.ReleaseAll()
	if len(released) == 0 {
		return
	}
	d.commitAndAnnounce(sched, pid, m, released)
	d.floodOverlayNotice(sched, pid, m, released[len(released)-1].ID(), true, 0)
}

func (d *Driver) mustColluder(pid common.PeerID) *p2p.MaliciousPeer {
	node := d.peer(pid)
	m, ok := node.(*p2p.MaliciousPeer)
	if !ok {
		log.Crit("BroadcastPrivateChain targeted a non-colluder peer", "peer", pid)
	}
	return m
}

// commitAndAnnounce merges freshly-released private blocks into the
// ringmaster's own public tree, reconciles its mempool if the tip moved, and
// announces each released block's hash on every public connection (spec.md
// §4.5) -- done once, by whichever peer actually held the private copies.
func (d *Driver) commitAndAnnounce(sched *eventqueue.Scheduler, pid common.PeerID, m *p2p.MaliciousPeer, released []*blockchain.Block) {
	oldTip := m.Tree.Tip()
	res := m.Tree.CommitReleased(released, sched.Now())
	if res.TipChanged {
		reconcileMempool(m, m.Mempool, m.Tree.Tip(), oldTip)
	}
	for _, b := range released {
		for peer := range m.PublicLinks {
			delay := d.linkDelaySeconds(m, peer, p2p.ChannelPublic, p2p.HashSizeKbits)
			sched.Schedule(eventqueue.HashPropagate, int(peer), delay, HashPropagatePayload{
				BlockID: b.ID(),
				Sender:  pid,
				Channel: p2p.ChannelPublic,
			})
		}
	}
}

// floodOverlayNotice relays the broadcast notice to every overlay neighbor
// except excludeOverlay (ignored when fromSelf, since there's no upstream
// sender to exclude).
func (d *Driver) floodOverlayNotice(sched *eventqueue.Scheduler, pid common.PeerID, m *p2p.MaliciousPeer, blkID string, fromSelf bool, excludeOverlay common.PeerID) {
	for peer := range m.OverlayLinks {
		if !fromSelf && peer == excludeOverlay {
			continue
		}
		delay := d.linkDelaySeconds(m, peer, p2p.ChannelOverlay, p2p.HashSizeKbits)
		sched.Schedule(eventqueue.BroadcastPrivateChain, int(peer), delay, BroadcastPrivateChainPayload{
			BlockID: blkID,
			Sender:  pid,
		})
	}
}
