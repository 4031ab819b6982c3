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

// handleTimeout implements spec.md §4.3's timeout phase.
func (d *Driver) handleTimeout(sched *eventqueue.Scheduler, ev eventqueue.Event) {
	payload := ev.Payload.(TimeoutPayload)
	pid := common.PeerID(ev.PeerID)
	node := d.peer(pid)

	if node.HasSeenBlock(payload.BlockID) {
		return
	}
	core := node.Core()
	rec, ok := core.Reception[payload.BlockID]
	if !ok {
		return
	}
	rec.RemoveActive(p2p.Announcer{Peer: payload.TimedOutPeer, Channel: payload.Channel})

	candidate, ok := d.chooseNextCandidate(core, rec)
	if !ok {
		return
	}
	rec.MoveToActive(candidate)
	if candidate.Channel == p2p.ChannelPublic {
		core.AddPendingRequest(candidate.Peer, payload.BlockID)
	}

	getDelay := d.linkDelaySeconds(node, candidate.Peer, candidate.Channel, p2p.GetSizeKbits)
	sched.Schedule(eventqueue.GetRequest, int(candidate.Peer), getDelay, GetRequestPayload{
		BlockID:   payload.BlockID,
		Requester: pid,
		Channel:   candidate.Channel,
	})
	sched.Schedule(eventqueue.TimeoutEvent, int(pid), d.Cfg.GetTimeout, TimeoutPayload{
		BlockID:      payload.BlockID,
		TimedOutPeer: candidate.Peer,
		Channel:      candidate.Channel,
	})
}

// chooseNextCandidate implements spec.md §4.3's timeout-case counter-measure
// selection: with the counter-measure, wait if any remaining active sender
// is trusted, else pick the first trusted passive sender; without it, always
// fall back to the oldest remaining passive sender.
func (d *Driver) chooseNextCandidate(core *p2p.Peer, rec *p2p.ReceptionRecord) (p2p.Announcer, bool) {
	if !d.Cfg.CounterMeasure {
		if len(rec.PassiveSenders) == 0 {
			return p2p.Announcer{}, false
		}
		return rec.PassiveSenders[0], true
	}
	for _, a := range rec.ActiveSenders {
		if trustCandidate(core, a) {
			return p2p.Announcer{}, false
		}
	}
	for _, a := range rec.PassiveSenders {
		if trustCandidate(core, a) {
			return a, true
		}
	}
	return p2p.Announcer{}, false
}
