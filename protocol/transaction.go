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
	"github.com/holiman/uint256"

	"github.com/probechain/netsim/blockchain"
	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/eventqueue"
	"github.com/probechain/netsim/p2p"
)

// handleTransactionGenerate implements spec.md §4.4's TransactionGenerate
// hook.
func (d *Driver) handleTransactionGenerate(sched *eventqueue.Scheduler, ev eventqueue.Event) {
	pid := common.PeerID(ev.PeerID)
	node := d.peer(pid)
	core := node.Core()

	tip, ok := node.BlockByID(node.Tip())
	if !ok {
		log.Crit(common.ErrUnknownBlock.Error(), "peer", pid, "block", node.Tip())
	}
	balance := tip.Balances[pid]
	if balance.IsZero() {
		d.scheduleNextTxnGenerate(sched, pid)
		return
	}

	receiver := d.randomOtherPeer(pid)
	amount := 1 + uint64(d.Rand.Int63n(int64(balance.Uint64())))

	tx := &blockchain.Transaction{
		ID:       d.allocateTxID(),
		Sender:   pid,
		Receiver: receiver,
		Amount:   *uint256.NewInt(amount),
	}
	core.Mempool.Add(tx)
	core.Watermark.Mark(tx.ID)

	d.floodTransaction(sched, pid, node, tx, pid)
	d.scheduleNextTxnGenerate(sched, pid)
}

// handleTransactionPropagate implements spec.md §4.4's TransactionPropagate
// hook: duplicate-check via the watermark, then flood onward.
func (d *Driver) handleTransactionPropagate(sched *eventqueue.Scheduler, ev eventqueue.Event) {
	payload := ev.Payload.(TransactionPropagatePayload)
	pid := common.PeerID(ev.PeerID)
	node := d.peer(pid)
	core := node.Core()

	if core.Watermark.Check(payload.Tx.ID) {
		return
	}
	core.Watermark.Mark(payload.Tx.ID)
	core.Mempool.Add(payload.Tx)

	d.floodTransaction(sched, pid, node, payload.Tx, payload.Sender)
}

func (d *Driver) floodTransaction(sched *eventqueue.Scheduler, from common.PeerID, node p2p.NodeKind, tx *blockchain.Transaction, excludeSender common.PeerID) {
	core := node.Core()
	for peer := range core.PublicLinks {
		if peer == excludeSender {
			continue
		}
		delay := d.linkDelaySeconds(node, peer, p2p.ChannelPublic, blockchain.TxSizeKbits)
		sched.Schedule(eventqueue.TransactionPropagate, int(peer), delay, TransactionPropagatePayload{
			Tx:     tx,
			Sender: from,
		})
	}
}

func (d *Driver) scheduleNextTxnGenerate(sched *eventqueue.Scheduler, pid common.PeerID) {
	delay := d.Rand.Exp(1 / d.Cfg.TxnMeanInterval)
	sched.Schedule(eventqueue.TransactionGenerate, int(pid), delay, nil)
}
