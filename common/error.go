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

package common

import "errors"

var (
	// ErrUnknownPeer is returned when an operation names a peer id that was
	// never registered with the network.
	ErrUnknownPeer = errors.New("unknown peer id")

	// ErrUnknownBlock is returned when a lookup targets a block id the
	// caller has no record of.
	ErrUnknownBlock = errors.New("unknown block id")

	// ErrAlreadyDangling is an invariant violation (spec §7, "Logical
	// assertion failures"): a bookkeeping structure that spec invariants
	// guarantee holds at most one live entry per key -- a block parked
	// waiting on the same missing parent, an outstanding get-request
	// against the same peer for the same block -- received a second entry
	// while the first was still live.
	ErrAlreadyDangling = errors.New("duplicate entry for an id that should only be recorded once")

	// ErrRequestedBlockMissing is an invariant violation: a peer that
	// announced a hash could not produce the block on request.
	ErrRequestedBlockMissing = errors.New("announcer has no record of the block it announced")

	// ErrInvalidConfig is returned by config.Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)
