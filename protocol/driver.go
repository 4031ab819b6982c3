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

// Package protocol wires the EventScheduler to the per-peer state of
// package p2p: the hash/get/block/timeout propagation protocol, the
// counter-measure selection rule, the ringmaster's private-chain broadcast,
// and the honest peer lifecycle hooks (spec.md §4.3, §4.4, §4.5).
package protocol

import (
	"sort"

	mapset "github.com/deckarep/golang-set"

	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/config"
	"github.com/probechain/netsim/eventqueue"
	"github.com/probechain/netsim/p2p"
	"github.com/probechain/netsim/randsrc"
	"github.com/probechain/netsim/txpool"
	"github.com/probechain/netsim/xlog"
)

var log = xlog.Root().New("pkg", "protocol")

// Driver owns the live peer set and registers every event handler on a
// Scheduler. It holds no state of its own beyond wiring: all mutable state
// lives on the individual p2p.NodeKind values, per spec.md §5 ("handlers
// never mutate another peer's state directly") -- except nextTxID, the
// "process-global counter" spec.md §9 calls for, which by definition cannot
// belong to any single peer.
type Driver struct {
	Cfg   *config.Config
	Rand  *randsrc.Source
	Peers map[common.PeerID]p2p.NodeKind

	RingmasterID common.PeerID

	peerOrder []common.PeerID
	nextTxID  common.TxID
}

// NewDriver constructs a driver over an already-built peer set.
func NewDriver(cfg *config.Config, rng *randsrc.Source, peers map[common.PeerID]p2p.NodeKind, ringmasterID common.PeerID) *Driver {
	order := make([]common.PeerID, 0, len(peers))
	for id := range peers {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	// Transaction id 0 must not exist: Watermark's zero value treats
	// threshold 0 as "id 0 already seen" (spec.md §9), so the first
	// transaction ever generated has to draw id 1.
	return &Driver{Cfg: cfg, Rand: rng, Peers: peers, RingmasterID: ringmasterID, peerOrder: order, nextTxID: 1}
}

// randomOtherPeer picks a uniform peer id distinct from self (spec.md §4.4,
// TransactionGenerate's "uniform receiver != self").
func (d *Driver) randomOtherPeer(self common.PeerID) common.PeerID {
	for {
		candidate := d.peerOrder[d.Rand.Intn(len(d.peerOrder))]
		if candidate != self {
			return candidate
		}
	}
}

// allocateTxID draws the next id from the process-global dense counter
// (spec.md §9, "Duplicate-suppression watermark").
func (d *Driver) allocateTxID() common.TxID {
	id := d.nextTxID
	d.nextTxID++
	return id
}

// Register installs every handler spec.md §4 describes onto sched.
func (d *Driver) Register(sched *eventqueue.Scheduler) {
	sched.OnKind(eventqueue.BlockGenerate, d.handleBlockGenerate)
	sched.OnKind(eventqueue.HashPropagate, d.handleHashPropagate)
	sched.OnKind(eventqueue.GetRequest, d.handleGetRequest)
	sched.OnKind(eventqueue.BlockPropagate, d.handleBlockPropagate)
	sched.OnKind(eventqueue.TimeoutEvent, d.handleTimeout)
	sched.OnKind(eventqueue.BroadcastPrivateChain, d.handleBroadcastPrivateChain)
	sched.OnKind(eventqueue.TransactionGenerate, d.handleTransactionGenerate)
	sched.OnKind(eventqueue.TransactionPropagate, d.handleTransactionPropagate)
	sched.OnKind(eventqueue.FinalizeEvent, d.handleFinalize)
}

func (d *Driver) peer(id common.PeerID) p2p.NodeKind {
	node, ok := d.Peers[id]
	if !ok {
		log.Crit(common.ErrUnknownPeer.Error(), "peer", id)
	}
	return node
}

// linkDelaySeconds computes the transmission delay for a message of
// sizeKbits crossing from `from` to `to` on ch (spec.md §4.1).
func (d *Driver) linkDelaySeconds(from p2p.NodeKind, to common.PeerID, ch p2p.Channel, sizeKbits float64) float64 {
	lp, ok := from.ChannelDetails(to, ch)
	if !ok {
		log.Crit("no link parameters for channel", "to", to, "channel", ch)
	}
	return lp.TransmitDelaySeconds(sizeKbits, d.Rand)
}

// exclusionSet builds the set of peer ids a hash must not be re-forwarded
// to: every peer that had already announced this hash before add_block ran
// (spec.md §4.3 block-phase step 5, "neither the upstream sender set..."). A
// golang-set value rather than a plain map since membership is all this
// needs and the set is rebuilt fresh per forward, discarded immediately
// after.
func exclusionSet(senders []p2p.Announcer) mapset.Set {
	set := mapset.NewSet()
	for _, a := range senders {
		set.Add(a.Peer)
	}
	return set
}

// forwardHash schedules a HashPropagate of blkID, created by creator, to
// every candidate channels_to_forward_to(creator) target not present in
// excluded (spec.md §4.3 block-phase step 5).
func (d *Driver) forwardHash(sched *eventqueue.Scheduler, from common.PeerID, node p2p.NodeKind, blkID string, creator common.PeerID, excluded mapset.Set) {
	for _, target := range node.ChannelsToForwardTo(creator) {
		if excluded.Contains(target.Peer) {
			continue
		}
		delay := d.linkDelaySeconds(node, target.Peer, target.Channel, p2p.HashSizeKbits)
		sched.Schedule(eventqueue.HashPropagate, int(target.Peer), delay, HashPropagatePayload{
			BlockID: blkID,
			Sender:  from,
			Channel: target.Channel,
		})
	}
}

// reconcileMempool applies spec.md §4.2's post-add_block mempool
// reconciliation at the peer level (the tree only exposes the primitives:
// LCA and GetTxnSet).
func reconcileMempool(node p2p.NodeKind, pool *txpool.Mempool, newTip, prevTip string) {
	lca := node.LCA(newTip, prevTip)
	toReadd := node.GetTxnSet(prevTip, lca)
	toRemove := node.GetTxnSet(newTip, lca)
	pool.Reconcile(toReadd, toRemove)
}

// trustCandidate implements the counter-measure's trust predicate
// (spec.md §4.3, "Counter-measure selection"): a (peer, channel) candidate
// is trusted if it's an overlay link, or every block the core peer has an
// outstanding request for with that peer is one where the peer is a
// legitimate active sender.
func trustCandidate(core *p2p.Peer, candidate p2p.Announcer) bool {
	if candidate.Channel == p2p.ChannelOverlay {
		return true
	}
	for _, blkID := range core.OutstandingPendingTo(candidate.Peer) {
		rec, ok := core.Reception[blkID]
		if !ok {
			return false
		}
		served := false
		for _, a := range rec.ActiveSenders {
			if a.Peer == candidate.Peer {
				served = true
				break
			}
		}
		if !served {
			return false
		}
	}
	return true
}
