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
	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/eventqueue"
	"github.com/probechain/netsim/p2p"
)

// handleHashPropagate implements spec.md §4.3's hash phase.
func (d *Driver) handleHashPropagate(sched *eventqueue.Scheduler, ev eventqueue.Event) {
	payload := ev.Payload.(HashPropagatePayload)
	pid := common.PeerID(ev.PeerID)
	node := d.peer(pid)

	if node.HasSeenBlock(payload.BlockID) {
		return
	}

	core := node.Core()
	rec := core.ReceptionFor(payload.BlockID)
	announcer := p2p.Announcer{Peer: payload.Sender, Channel: payload.Channel}
	rec.Announce(announcer)

	if !d.shouldIssueGet(core, rec) {
		return
	}
	rec.MoveToActive(announcer)
	if payload.Channel == p2p.ChannelPublic {
		core.AddPendingRequest(payload.Sender, payload.BlockID)
	}

	getDelay := d.linkDelaySeconds(node, payload.Sender, payload.Channel, p2p.GetSizeKbits)
	sched.Schedule(eventqueue.GetRequest, int(payload.Sender), getDelay, GetRequestPayload{
		BlockID:   payload.BlockID,
		Requester: pid,
		Channel:   payload.Channel,
	})
	sched.Schedule(eventqueue.TimeoutEvent, int(pid), d.Cfg.GetTimeout, TimeoutPayload{
		BlockID:      payload.BlockID,
		TimedOutPeer: payload.Sender,
		Channel:      payload.Channel,
	})
}

// shouldIssueGet decides whether a newly-announced hash warrants issuing a
// get immediately (spec.md §4.3, "Counter-measure selection", hash-arrival
// case).
func (d *Driver) shouldIssueGet(core *p2p.Peer, rec *p2p.ReceptionRecord) bool {
	if !d.Cfg.CounterMeasure {
		return len(rec.ActiveSenders) == 0
	}
	for _, a := range rec.ActiveSenders {
		if trustCandidate(core, a) {
			return false
		}
	}
	return true
}
