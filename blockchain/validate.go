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

package blockchain

import (
	"github.com/holiman/uint256"

	"github.com/probechain/netsim/common"
)

// ValidateAgainstParent implements the correctness check of spec §4.2: the
// first transaction must be coinbase with the mining reward amount (a block
// with no transactions fails this too, so miners must always include the
// coinbase); every other transaction's sender must not be driven over its
// parent-snapshot balance by the sum of its spends in this block.
//
// On success it returns the new balance snapshot (parent's snapshot plus
// every transaction applied, coinbase credited to the creator).
func ValidateAgainstParent(b *Block, parent *Block, miningReward uint64) (map[common.PeerID]uint256.Int, bool) {
	if len(b.Txns) == 0 {
		return nil, false
	}
	cb := b.Txns[0]
	reward := new(uint256.Int).SetUint64(miningReward)
	if !cb.IsCoinbase() || cb.Receiver != b.Creator || cb.Amount.Cmp(reward) != 0 {
		return nil, false
	}

	spent := make(map[common.PeerID]uint256.Int)
	for _, tx := range b.Txns[1:] {
		if tx.IsCoinbase() {
			// Only the first transaction may be coinbase.
			return nil, false
		}
		parentBal := parent.Balances[tx.Sender]
		running := spent[tx.Sender]
		running.Add(&running, &tx.Amount)
		if running.Cmp(&parentBal) > 0 {
			return nil, false
		}
		spent[tx.Sender] = running
	}

	next := make(map[common.PeerID]uint256.Int, len(parent.Balances))
	for id, bal := range parent.Balances {
		next[id] = bal
	}
	for _, tx := range b.Txns {
		if tx.IsCoinbase() {
			bal := next[tx.Receiver]
			bal.Add(&bal, &tx.Amount)
			next[tx.Receiver] = bal
			continue
		}
		from := next[tx.Sender]
		from.Sub(&from, &tx.Amount)
		next[tx.Sender] = from

		to := next[tx.Receiver]
		to.Add(&to, &tx.Amount)
		next[tx.Receiver] = to
	}
	return next, true
}
