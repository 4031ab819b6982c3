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

import "github.com/probechain/netsim/common"

// Announcer is one (peer, channel) pair that has announced a hash (spec §3).
type Announcer struct {
	Peer    common.PeerID
	Channel Channel
}

// ReceptionRecord is the per-(peer, unseen block-hash) bookkeeping of spec
// §3: every announcer that has ever surfaced this hash, which of them
// haven't been asked yet, and which are currently being waited on. All
// three lists preserve arrival order -- the counter-measure and timeout
// logic both depend on "first" and "still-pending" ordering, so these stay
// plain ordered slices rather than an unordered set type.
type ReceptionRecord struct {
	AllSenders    []Announcer
	PassiveSenders []Announcer
	ActiveSenders []Announcer
}

// NewReceptionRecord returns an empty record, created on first hash arrival
// (spec §3 "Lifecycle").
func NewReceptionRecord() *ReceptionRecord {
	return &ReceptionRecord{}
}

// Announce appends (sender, channel) to AllSenders and PassiveSenders (spec
// §4.3 hash-phase step 2).
func (r *ReceptionRecord) Announce(a Announcer) {
	r.AllSenders = append(r.AllSenders, a)
	r.PassiveSenders = append(r.PassiveSenders, a)
}

// MoveToActive removes a from PassiveSenders and appends it to
// ActiveSenders (spec §4.3 hash-phase step 3, timeout-phase's next pick).
func (r *ReceptionRecord) MoveToActive(a Announcer) {
	r.PassiveSenders = removeAnnouncer(r.PassiveSenders, a)
	r.ActiveSenders = append(r.ActiveSenders, a)
}

// RemoveActive drops a from ActiveSenders (spec §4.3 timeout-phase step 2).
func (r *ReceptionRecord) RemoveActive(a Announcer) {
	r.ActiveSenders = removeAnnouncer(r.ActiveSenders, a)
}

func removeAnnouncer(list []Announcer, target Announcer) []Announcer {
	out := list[:0:0]
	for _, a := range list {
		if a != target {
			out = append(out, a)
		}
	}
	return out
}

// Invariant6 reports spec §8 invariant 6: active ∪ passive ⊆ all, and
// without the counter-measure |active| <= 1. Exposed for tests.
func (r *ReceptionRecord) Invariant6(counterMeasure bool) bool {
	all := make(map[Announcer]bool, len(r.AllSenders))
	for _, a := range r.AllSenders {
		all[a] = true
	}
	for _, a := range append(append([]Announcer{}, r.ActiveSenders...), r.PassiveSenders...) {
		if !all[a] {
			return false
		}
	}
	if !counterMeasure && len(r.ActiveSenders) > 1 {
		return false
	}
	return true
}
