// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package model

import (
	"fmt"

	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/oot"
	"github.com/fenhl/oottracker-go/internal/ram"
)

// TrackerCtx is the versioned blob describing the seed's dungeon-info
// display config. It models a 4-byte big-endian version and, for version
// 1, a (row, col) byte pair per dungeon in oot.AllDungeons order; no other
// content of the blob (such as revealed dungeon rewards) is modeled.
type TrackerCtx struct {
	version uint32

	// DungeonPositions maps a dungeon to its reward-icon grid coordinate
	// (row, col), populated only for Version() == 1.
	DungeonPositions map[oot.Dungeon][2]uint8
}

// NewTrackerCtx returns a version-0 (bare) context.
func NewTrackerCtx() TrackerCtx { return TrackerCtx{version: 0} }

// Version returns the context's version tag; only 0 and 1 are accepted.
func (c TrackerCtx) Version() uint32 { return c.version }

// DungeonPosition returns the grid coordinate for d in a version-1
// context, or false if unset/not version 1.
func (c TrackerCtx) DungeonPosition(d oot.Dungeon) (row, col uint8, ok bool) {
	if c.version != 1 {
		return 0, 0, false
	}
	pos, ok := c.DungeonPositions[d]
	if !ok {
		return 0, 0, false
	}
	return pos[0], pos[1], true
}

// DecodeTrackerCtx parses a raw blob of at least 4 bytes (version 1 needs
// 4 plus 2 per dungeon); no upper size bound is checked and bytes past
// the dungeon-position pairs are ignored. The first four bytes (big
// endian) are the version; versions other than 0 and 1 are rejected.
func DecodeTrackerCtx(b []byte) (TrackerCtx, error) {
	if len(b) < 4 {
		return TrackerCtx{}, fmt.Errorf("model: tracker ctx too short: %d bytes", len(b))
	}
	version := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	switch version {
	case 0:
		return TrackerCtx{version: 0}, nil
	case 1:
		if len(b) < 4+2*len(oot.AllDungeons()) {
			return TrackerCtx{}, fmt.Errorf("model: tracker ctx v1 too short: %d bytes", len(b))
		}
		positions := make(map[oot.Dungeon][2]uint8, len(oot.AllDungeons()))
		for i, d := range oot.AllDungeons() {
			off := 4 + i*2
			positions[d] = [2]uint8{b[off], b[off+1]}
		}
		return TrackerCtx{version: 1, DungeonPositions: positions}, nil
	default:
		return TrackerCtx{}, fmt.Errorf("model: unsupported tracker ctx version %d", version)
	}
}

// Encode writes the version and, for version 1, the dungeon-position
// pairs: 4 bytes for version 0, 4 plus 2 per dungeon for version 1. Bytes
// that DecodeTrackerCtx ignored are not reproduced.
func (c TrackerCtx) Encode() []byte {
	b := make([]byte, 4)
	b[0] = byte(c.version >> 24)
	b[1] = byte(c.version >> 16)
	b[2] = byte(c.version >> 8)
	b[3] = byte(c.version)
	if c.version == 1 {
		for _, d := range oot.AllDungeons() {
			pos := c.DungeonPositions[d]
			b = append(b, pos[0], pos[1])
		}
	}
	return b
}

// ModelState is the per-room playthrough state: knowledge about the seed,
// the live RAM/save snapshot, and the tracker's display context.
type ModelState struct {
	Knowledge  *knowledge.Knowledge
	Ram        *ram.Ram
	TrackerCtx TrackerCtx
}

// Clone returns a deep-enough copy of s suitable for concurrent readers:
// the Ram is replaced with a fresh copy via its Encode/Decode round trip,
// and the Knowledge with a new one whose maps are copied entry by entry.
// Map values that are pointers (such as reward locations) are shared with
// s, not copied, and TrackerCtx is copied by value, so its
// DungeonPositions map is shared too.
func (s *ModelState) Clone() (*ModelState, error) {
	encoded := s.Ram.Encode()
	r, err := ram.Decode(encoded)
	if err != nil {
		return nil, err
	}
	k := knowledge.New()
	for setting, v := range s.Knowledge.Settings {
		k.Settings[setting] = v
	}
	for reward, loc := range s.Knowledge.RewardLocation {
		k.RewardLocation[reward] = loc
	}
	for med, active := range s.Knowledge.ActiveTrials {
		k.ActiveTrials[med] = active
	}
	for d, mq := range s.Knowledge.DungeonMQ {
		k.DungeonMQ[d] = mq
	}
	for pair, target := range s.Knowledge.Entrances {
		k.Entrances[pair] = target
	}
	return &ModelState{Knowledge: k, Ram: r, TrackerCtx: s.TrackerCtx}, nil
}
