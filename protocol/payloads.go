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
	"github.com/probechain/netsim/p2p"
)

// BlockGeneratePayload carries the parent id a BlockGenerate event was armed
// against, so the handler can detect a stale tip (spec.md §4.4 step 1).
type BlockGeneratePayload struct {
	ParentID string
}

// HashPropagatePayload is HashPropagate(blk_id, sender, channel) (spec.md §4.3).
type HashPropagatePayload struct {
	BlockID string
	Sender  common.PeerID
	Channel p2p.Channel
}

// GetRequestPayload is GetRequest(blk_id, requester, channel) (spec.md §4.3).
type GetRequestPayload struct {
	BlockID   string
	Requester common.PeerID
	Channel   p2p.Channel
}

// BlockPropagatePayload is BlockPropagate(block, sender, channel) (spec.md §4.3).
type BlockPropagatePayload struct {
	Block   *blockchain.Block
	Sender  common.PeerID
	Channel p2p.Channel
}

// TimeoutPayload is TimeoutEvent(blk_id, timed_out_peer, channel) (spec.md §4.3).
type TimeoutPayload struct {
	BlockID      string
	TimedOutPeer common.PeerID
	Channel      p2p.Channel
}

// BroadcastPrivateChainPayload is BroadcastPrivateChain(blk_id) (spec.md §4.5).
type BroadcastPrivateChainPayload struct {
	BlockID string
	// Sender is the peer this broadcast notice arrived from, excluded from
	// the overlay re-flood. It is ignored when FromSelf is set (the
	// originating release), which is excluded from nothing.
	Sender       common.PeerID
	FromSelf     bool
}

// TransactionPropagatePayload is TransactionPropagate(tx, sender) (spec.md §4.4).
type TransactionPropagatePayload struct {
	Tx     *blockchain.Transaction
	Sender common.PeerID
}
