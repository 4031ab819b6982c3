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

// Package topology adapts an already-generated peer graph into the live
// p2p.NodeKind values the protocol driver runs against. Generating the graph
// itself is explicitly out of scope (spec.md §1: "random-graph generation"
// is an external collaborator) -- this package only reads a description of
// one and wires it up, the way config.Load reads an already-produced TOML
// file rather than deriving configuration from first principles.
package topology

import (
	"io"
	"os"
	"sort"

	"github.com/naoina/toml"

	"github.com/probechain/netsim/blockchain"
	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/config"
	"github.com/probechain/netsim/p2p"
)

// PeerSpec describes one peer's static classification (spec.md §3, §6).
type PeerSpec struct {
	ID        common.PeerID `toml:"id"`
	Malicious bool          `toml:"malicious"`
	Fast      bool          `toml:"fast"`
	HighCPU   bool          `toml:"high_cpu"`
	HashPower float64       `toml:"hash_power"`
}

// EdgeSpec describes one already-generated edge: propagation delay in ms and
// link speed in kbps (spec.md §6, "Link attributes").
type EdgeSpec struct {
	A             common.PeerID `toml:"a"`
	B             common.PeerID `toml:"b"`
	PropagationMs float64       `toml:"propagation_ms"`
	SpeedKbps     float64       `toml:"speed_kbps"`
}

// Spec is the full external-module output this package consumes: the peer
// roster plus the two overlaid graphs (spec.md §3, "two overlaid graphs").
type Spec struct {
	Peers        []PeerSpec `toml:"peer"`
	PublicEdges  []EdgeSpec `toml:"public_edge"`
	OverlayEdges []EdgeSpec `toml:"overlay_edge"`
}

// Load reads a topology description from a TOML file.
func Load(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a topology description from r.
func Decode(r io.Reader) (*Spec, error) {
	var s Spec
	if err := toml.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RingmasterID returns the lowest-id malicious peer, per spec.md §6 ("the
// first colluder by id becomes ringmaster").
func (s *Spec) RingmasterID() (common.PeerID, bool) {
	best := common.PeerID(0)
	found := false
	for _, p := range s.Peers {
		if !p.Malicious {
			continue
		}
		if !found || p.ID < best {
			best = p.ID
			found = true
		}
	}
	return best, found
}

func classOf(fast bool) p2p.NetworkClass {
	if fast {
		return p2p.NetworkFast
	}
	return p2p.NetworkSlow
}

func cpuOf(high bool) p2p.CPUClass {
	if high {
		return p2p.CPUHigh
	}
	return p2p.CPULow
}

// BuildPeers constructs the live peer set: one p2p.NodeKind per PeerSpec,
// wired with the public and (for colluders) overlay links the Spec
// describes. Every honest and malicious tree starts rooted at the same
// genesis block.
func BuildPeers(s *Spec, cfg *config.Config) (map[common.PeerID]p2p.NodeKind, common.PeerID) {
	ids := make([]common.PeerID, 0, len(s.Peers))
	for _, p := range s.Peers {
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	genesis := blockchain.NewGenesis(ids)

	ringmasterID, _ := s.RingmasterID()

	peers := make(map[common.PeerID]p2p.NodeKind, len(s.Peers))
	for _, p := range s.Peers {
		core := p2p.NewPeer(p.ID, classOf(p.Fast), cpuOf(p.HighCPU), p.HashPower)
		if p.Malicious {
			isRingmaster := p.ID == ringmasterID
			peers[p.ID] = p2p.NewMaliciousPeer(core, genesis, cfg.MiningReward, ringmasterID, isRingmaster, cfg.RemoveEclipse)
		} else {
			peers[p.ID] = p2p.NewHonestPeer(core, genesis, cfg.MiningReward)
		}
	}

	for _, e := range s.PublicEdges {
		wireLink(peers, e, false)
	}
	for _, e := range s.OverlayEdges {
		wireLink(peers, e, true)
	}
	return peers, ringmasterID
}

func wireLink(peers map[common.PeerID]p2p.NodeKind, e EdgeSpec, overlay bool) {
	lpAB := p2p.LinkParams{PropagationMs: e.PropagationMs, SpeedKbps: e.SpeedKbps}
	setLink(peers[e.A], e.B, lpAB, overlay)
	setLink(peers[e.B], e.A, lpAB, overlay)
}

func setLink(node p2p.NodeKind, other common.PeerID, lp p2p.LinkParams, overlay bool) {
	if overlay {
		if m, ok := node.(*p2p.MaliciousPeer); ok {
			m.OverlayLinks[other] = lp
		}
		return
	}
	node.Core().PublicLinks[other] = lp
}
