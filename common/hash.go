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

import "encoding/hex"

// HashLength is the expected length of a block identity digest.
const HashLength = 32

// Hash is a fixed-size block identity digest, kept as a plain byte array so
// it's directly usable as a map key (block ids key every per-peer index).
type Hash [HashLength]byte

// BytesToHash wraps b in a Hash, truncating or left-padding as needed.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// Hex returns the 0x-prefixed lowercase hex digest used as a block's public
// identity (spec §3: "Identity is the hex digest of a hash over ...").
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the zero hash (used nowhere as a real block
// id; genesis uses the sentinel parent id "-1" instead, per spec §3/§6).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// PeerID identifies a peer for the lifetime of a run.
type PeerID int

// TxID is the dense, monotonically increasing transaction id described in
// spec §3/§9 (duplicate-suppression watermark).
type TxID uint64

// GenesisParentID is the sentinel parent identifier carried by the genesis
// block (spec §3, §6): "-1", not a real hash.
const GenesisParentID = "-1"
