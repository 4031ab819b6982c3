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

// Package p2p implements the per-peer state and link model of spec.md §3,
// §4.4, §4.5: honest peers, malicious (colluder) peers, and the
// distinguished ringmaster, plus the channel/link delay model of §4.1.
package p2p

import "github.com/probechain/netsim/randsrc"

// Channel identifies which overlaid graph a message travels across (spec §3).
type Channel int

const (
	ChannelPublic  Channel = 1
	ChannelOverlay Channel = 2
)

// HashSizeKbits and GetSizeKbits are the fixed logical sizes of a hash
// announcement and a get-request (spec §4.1): a get-request is sized as a
// hash.
const HashSizeKbits = 0.512
const GetSizeKbits = HashSizeKbits

// LinkParams carries one directed edge's propagation delay (ms) and
// bandwidth (kbps), per spec §3 "(propagation_delay_ms, link_speed_kbps)".
type LinkParams struct {
	PropagationMs float64
	SpeedKbps     float64
}

// TransmitDelaySeconds implements spec §4.1's link delay formula:
//
//	delay_ms = p_ij + S/c_ij + Exp(mean=96/c_ij)
//
// converted to seconds. The same formula covers hash, get, block, and
// broadcast messages; only S (payload size in kilobits) and the channel's
// LinkParams differ.
func (lp LinkParams) TransmitDelaySeconds(sizeKbits float64, rng *randsrc.Source) float64 {
	if lp.SpeedKbps <= 0 {
		return lp.PropagationMs / 1000
	}
	ms := lp.PropagationMs + sizeKbits/lp.SpeedKbps + rng.QueueingNoise(96/lp.SpeedKbps)
	return ms / 1000
}

// NetworkClass and CPUClass classify a peer for link-speed derivation (spec
// §6, "Link attributes"): public links run at 100kbps if both endpoints are
// fast, else 5kbps.
type NetworkClass int

const (
	NetworkSlow NetworkClass = iota
	NetworkFast
)

type CPUClass int

const (
	CPULow CPUClass = iota
	CPUHigh
)

// PublicLinkSpeedKbps derives c_ij for a public edge from both endpoints'
// network classes (spec §6).
func PublicLinkSpeedKbps(a, b NetworkClass) float64 {
	if a == NetworkFast && b == NetworkFast {
		return 100
	}
	return 5
}

// OverlayLinkSpeedKbps is fixed for every overlay edge (spec §6).
const OverlayLinkSpeedKbps = 100

// RandomPublicPropagationMs draws p_ij uniform in [10,500]ms (spec §6).
func RandomPublicPropagationMs(rng *randsrc.Source) float64 {
	return rng.UniformMs(10, 500)
}

// RandomOverlayPropagationMs draws p_ij uniform in [1,10]ms (spec §6).
func RandomOverlayPropagationMs(rng *randsrc.Source) float64 {
	return rng.UniformMs(1, 10)
}
