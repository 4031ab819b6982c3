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
)

// handleGetRequest implements spec.md §4.3's get phase.
func (d *Driver) handleGetRequest(sched *eventqueue.Scheduler, ev eventqueue.Event) {
	payload := ev.Payload.(GetRequestPayload)
	pid := common.PeerID(ev.PeerID)
	node := d.peer(pid)

	block, ok := node.BlockByID(payload.BlockID)
	if !ok {
		// spec.md §7: "a requested block cannot be found at a peer that
		// announced it" is a logical assertion failure -- fatal.
		log.Crit(common.ErrRequestedBlockMissing.Error(), "peer", pid, "block", payload.BlockID)
	}

	if !node.ServeGet(block.Creator, payload.Channel, d.Cfg.RemoveEclipse) {
		return
	}

	delay := d.linkDelaySeconds(node, payload.Requester, payload.Channel, block.Size())
	sched.Schedule(eventqueue.BlockPropagate, int(payload.Requester), delay, BlockPropagatePayload{
		Block:   block,
		Sender:  pid,
		Channel: payload.Channel,
	})
}
