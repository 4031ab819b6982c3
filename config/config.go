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

// Package config holds the run configuration for the simulator core
// (spec.md §6, "External Interfaces"). Parsing of command-line flags and
// generation of the peer topology are explicitly out of scope (spec.md §1)
// and live in an external driver; this package only validates and, when
// asked, loads a already-produced TOML file into a Config value.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/naoina/toml"

	"github.com/probechain/netsim/common"
)

// Config is the full set of parameters spec.md §6 lists as required (unless
// noted optional).
type Config struct {
	PeerCount        int     `toml:"peer_count"`
	MaliciousFrac    float64 `toml:"malicious_fraction"`
	TxnMeanInterval  float64 `toml:"txn_mean_interval"`
	BlockMeanInterval float64 `toml:"block_mean_interval"`
	GetTimeout       float64 `toml:"get_timeout"`
	SimHorizon       float64 `toml:"sim_horizon"`
	OutputDir        string  `toml:"output_dir"`
	RemoveEclipse    bool    `toml:"remove_eclipse"`
	CounterMeasure   bool    `toml:"counter_measure"`
	MiningReward     uint64  `toml:"mining_reward"`
	Seed             int64   `toml:"seed"`
}

// Default mining reward used when Config.MiningReward is left at zero,
// matching the original simulator's fixed coinbase subsidy (supplemental
// from original_source: the distillation treats this as a bare constant).
const DefaultMiningReward = 50

// Validate rejects configuration errors before any event is scheduled
// (spec.md §7, "Configuration errors").
func (c *Config) Validate() error {
	switch {
	case c.PeerCount <= 0:
		return fmt.Errorf("%w: peer_count must be positive, got %d", common.ErrInvalidConfig, c.PeerCount)
	case c.MaliciousFrac < 0 || c.MaliciousFrac > 1:
		return fmt.Errorf("%w: malicious_fraction must be in [0,1], got %f", common.ErrInvalidConfig, c.MaliciousFrac)
	case c.TxnMeanInterval <= 0:
		return fmt.Errorf("%w: txn_mean_interval must be positive", common.ErrInvalidConfig)
	case c.BlockMeanInterval <= 0:
		return fmt.Errorf("%w: block_mean_interval must be positive", common.ErrInvalidConfig)
	case c.GetTimeout <= 0:
		return fmt.Errorf("%w: get_timeout must be positive", common.ErrInvalidConfig)
	case c.SimHorizon <= 0:
		return fmt.Errorf("%w: sim_horizon must be positive", common.ErrInvalidConfig)
	}
	if c.MiningReward == 0 {
		c.MiningReward = DefaultMiningReward
	}
	return nil
}

// MaliciousCount returns how many of the PeerCount peers are malicious. The
// first colluder by id becomes the ringmaster (spec.md §6).
func (c *Config) MaliciousCount() int {
	return int(float64(c.PeerCount) * c.MaliciousFrac)
}

// Load reads a TOML configuration file into a Config and validates it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads TOML config from r, letting tests supply an in-memory reader
// instead of a real file.
func Decode(r io.Reader) (*Config, error) {
	var c Config
	if err := toml.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
