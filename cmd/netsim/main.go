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

// Command netsim runs a single simulation: it loads a run configuration and
// an already-generated topology, wires the scheduler and the peer set
// together, runs to completion, and writes the artifacts spec.md §6
// describes. Flag parsing is kept deliberately thin -- generating the
// topology itself and any sweep/batch orchestration around repeated runs are
// out of scope (spec.md §1) and belong to an external driver.
package main

import (
	"flag"
	"os"

	"github.com/probechain/netsim/common"
	"github.com/probechain/netsim/config"
	"github.com/probechain/netsim/eventqueue"
	"github.com/probechain/netsim/output"
	"github.com/probechain/netsim/p2p"
	"github.com/probechain/netsim/protocol"
	"github.com/probechain/netsim/randsrc"
	"github.com/probechain/netsim/topology"
	"github.com/probechain/netsim/xlog"
)

var log = xlog.Root().New("pkg", "main")

func main() {
	configPath := flag.String("config", "", "path to run configuration (TOML)")
	topologyPath := flag.String("topology", "", "path to peer/link topology (TOML)")
	flag.Parse()

	if *configPath == "" || *topologyPath == "" {
		log.Crit("both -config and -topology are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Crit("failed to load configuration", "err", err)
	}
	spec, err := topology.Load(*topologyPath)
	if err != nil {
		log.Crit("failed to load topology", "err", err)
	}

	rng := randsrc.New(cfg.Seed)
	peers, ringmasterID := topology.BuildPeers(spec, cfg)

	sched := eventqueue.New()
	driver := protocol.NewDriver(cfg, rng, peers, ringmasterID)
	driver.Register(sched)

	armInitialEvents(sched, rng, cfg, peers)
	sched.ScheduleFinalize(int(ringmasterID), cfg.SimHorizon)
	sched.RunUntil(cfg.SimHorizon)

	stats := sched.Stats()
	log.Info("run complete", "dispatched", stats.Dispatched, "dropped", stats.Dropped)

	if err := output.WriteAll(cfg.OutputDir, spec, peers, cfg.RemoveEclipse, cfg.CounterMeasure); err != nil {
		log.Crit("failed to write output", "err", err)
	}
	os.Exit(0)
}

// armInitialEvents schedules each peer's first mining attempt (if it has any
// hashing power) and first transaction-generation attempt, matching
// scheduleMining/scheduleNextTxnGenerate's own delay model so the very first
// draw looks exactly like every subsequent one (spec.md §4.1).
func armInitialEvents(sched *eventqueue.Scheduler, rng *randsrc.Source, cfg *config.Config, peers map[common.PeerID]p2p.NodeKind) {
	for pid, node := range peers {
		core := node.Core()
		if core.HashPower > 0 {
			parent, _ := node.MiningParentAndDepth()
			core.MiningParent = parent
			delay := rng.Exp(core.HashPower / cfg.BlockMeanInterval)
			sched.Schedule(eventqueue.BlockGenerate, int(pid), delay, protocol.BlockGeneratePayload{ParentID: parent})
		}
		delay := rng.Exp(1 / cfg.TxnMeanInterval)
		sched.Schedule(eventqueue.TransactionGenerate, int(pid), delay, nil)
	}
}
