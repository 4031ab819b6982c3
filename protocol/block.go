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
	"github.com/probechain/netsim/txpool"
)

// handleBlockPropagate implements spec.md §4.3's block phase.
func (d *Driver) handleBlockPropagate(sched *eventqueue.Scheduler, ev eventqueue.Event) {
	payload := ev.Payload.(BlockPropagatePayload)
	pid := common.PeerID(ev.PeerID)
	node := d.peer(pid)
	core := node.Core()

	blkID := payload.Block.ID()
	core.ClearPendingRequest(payload.Sender, blkID)
	if node.HasSeenBlock(blkID) {
		return
	}

	rec := core.ReceptionFor(blkID)
	priorSenders := append([]p2p.Announcer(nil), rec.AllSenders...)

	oldTip := node.Tip()
	oldMiningParent := core.MiningParent

	outcome := node.AddBlock(payload.Block, sched.Now())
	if outcome.Rejected {
		return
	}

	if outcome.TipChanged {
		reconcileMempool(node, core.Mempool, node.Tip(), oldTip)
	}
	if outcome.ShouldBroadcast {
		sched.Schedule(eventqueue.BroadcastPrivateChain, int(pid), 0, BroadcastPrivateChainPayload{
			BlockID:  outcome.ReleaseBlockID,
			FromSelf: true,
		})
	}
	if newParent, _ := node.MiningParentAndDepth(); oldMiningParent != "" && oldMiningParent != newParent {
		d.scheduleMining(sched, pid, node)
	}

	d.forwardHash(sched, pid, node, blkID, payload.Block.Creator, exclusionSet(priorSenders))
}

// handleBlockGenerate implements spec.md §4.4's BlockGenerate hook.
func (d *Driver) handleBlockGenerate(sched *eventqueue.Scheduler, ev eventqueue.Event) {
	payload := ev.Payload.(BlockGeneratePayload)
	pid := common.PeerID(ev.PeerID)
	node := d.peer(pid)
	core := node.Core()

	if curParent, _ := node.MiningParentAndDepth(); curParent != payload.ParentID {
		return // a better block arrived meanwhile; silently abandon (spec.md §5)
	}

	parent, ok := node.BlockByID(payload.ParentID)
	if !ok {
		log.Crit(common.ErrUnknownBlock.Error(), "peer", pid, "block", payload.ParentID)
	}

	block := &blockchain.Block{
		Creator:     pid,
		Txns:        sampleTransactions(core.Mempool, parent, pid, d.Cfg.MiningReward),
		ParentID:    payload.ParentID,
		Depth:       parent.Depth + 1,
		StartMining: sched.Now(),
	}

	oldTip := node.Tip()
	outcome := node.AddMinedBlock(block, sched.Now())
	if !outcome.Accepted {
		log.Crit("self-mined block failed its own correctness check", "peer", pid)
	}
	if outcome.TipChanged {
		reconcileMempool(node, core.Mempool, node.Tip(), oldTip)
	}

	// Honest peers broadcast immediately; a colluder with a private chain
	// withholds its own mined blocks instead (spec.md §4.5).
	if !node.HasPrivateChain() {
		for peer := range core.PublicLinks {
			delay := d.linkDelaySeconds(node, peer, p2p.ChannelPublic, p2p.HashSizeKbits)
			sched.Schedule(eventqueue.HashPropagate, int(peer), delay, HashPropagatePayload{
				BlockID: block.ID(),
				Sender:  pid,
				Channel: p2p.ChannelPublic,
			})
		}
	}

	d.scheduleMining(sched, pid, node)
}

// scheduleMining arms the next BlockGenerate for node, per spec.md §4.1's
// mining delay model; a zero-hashing-power peer never mines (spec.md §8,
// "A peer with hashing share 0 never produces a BlockGenerate event").
func (d *Driver) scheduleMining(sched *eventqueue.Scheduler, pid common.PeerID, node p2p.NodeKind) {
	core := node.Core()
	if core.HashPower <= 0 {
		core.MiningParent = ""
		return
	}
	parent, _ := node.MiningParentAndDepth()
	core.MiningParent = parent
	delay := d.Rand.Exp(core.HashPower / d.Cfg.BlockMeanInterval)
	sched.Schedule(eventqueue.BlockGenerate, int(pid), delay, BlockGeneratePayload{ParentID: parent})
}

// sampleTransactions implements spec.md §4.4's mining-candidate assembly:
// a coinbase plus mempool transactions in ascending id order (spec.md §9's
// fix for the reference's underspecified iteration order), each included
// only if it doesn't push its sender's running spend past the parent
// snapshot, up to 1000 transactions total.
func sampleTransactions(pool *txpool.Mempool, parent *blockchain.Block, creator common.PeerID, miningReward uint64) []*blockchain.Transaction {
	// The coinbase's id is fixed at 0 rather than drawn from the
	// process-global counter: it never enters the mempool or the
	// duplicate-suppression watermark, and GetTxnSet always excludes
	// coinbase transactions, so no real transaction id can ever collide
	// with it.
	out := []*blockchain.Transaction{{
		ID:       0,
		Sender:   blockchain.CoinbaseSender,
		Receiver: creator,
		Amount:   *uint256.NewInt(miningReward),
	}}

	spent := map[common.PeerID]uint256.Int{}
	for _, id := range pool.SortedIDs() {
		if len(out) >= 1000 {
			break
		}
		tx, ok := pool.Get(id)
		if !ok {
			continue
		}
		balance := parent.Balances[tx.Sender]
		cur := spent[tx.Sender]
		next := new(uint256.Int).Add(&cur, &tx.Amount)
		if next.Cmp(&balance) > 0 {
			continue
		}
		spent[tx.Sender] = *next
		out = append(out, tx)
	}
	return out
}
