// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package ram extends the save codec with the live per-frame N64 memory
// ranges a running emulator exposes, grounded in fenhl/oottracker's ram.rs
// and the RAM range table in SPEC_FULL.md §6.2.
package ram

import (
	"encoding/binary"
	"fmt"

	"github.com/fenhl/oottracker-go/internal/save"
)

// Range describes one of the eight fixed N64 address ranges a connection
// reads or writes; Offset is informational (the N64 address), Length is
// what callers must supply.
type Range struct {
	Offset int
	Length int
}

// Ranges lists the eight fixed ranges in wire order, matching SPEC_FULL.md
// §6.2 exactly. Decode/Encode consume/produce byte slices in this order.
var Ranges = [8]Range{
	{Offset: 0x11a5d0, Length: save.Size}, // save
	{Offset: 0x1c84b4, Length: 2},         // pad
	{Offset: 0x1c8545, Length: 1},         // current scene id
	{Offset: 0x1ca1c8, Length: 4},         // switch flags
	{Offset: 0x1ca1d8, Length: 8},         // chest + room-clear flags
	{Offset: 0x1d8870, Length: 2},         // text-box id
	{Offset: 0x1d887e, Length: 0xc0},      // text-box contents
	{Offset: 0x1d8dd4, Length: 0x16},      // pause context
}

const (
	idxSave = iota
	idxPad
	idxScene
	idxSwitch
	idxChestRoomClear
	idxTextBoxID
	idxTextBoxContents
	idxPauseCtx
)

// PauseCtx is the three pause-context words read from the pause-context
// range (bytes 0..2, 0x10..0x12, 0x14..0x16 of that 0x16-byte range).
type PauseCtx struct {
	State       uint16
	Changing    uint16
	ScreenIdx   uint16
}

// Ram extends Save with live per-frame data: input pad bits, the current
// scene and its live switch/chest/room-clear words, the active text box,
// and pause-menu context.
type Ram struct {
	Save *save.Save

	Pad               save.Pad
	CurrentSceneID    uint8
	LiveSwitchFlags   uint32
	LiveChestFlags    uint32
	LiveRoomClear     uint32
	TextBoxID         uint16
	TextBoxContents   [0xc0]byte
	Pause             PauseCtx
}

// Decode parses the eight fixed-order byte ranges (see Ranges) into a Ram.
func Decode(ranges [8][]byte) (*Ram, error) {
	for i, r := range Ranges {
		if len(ranges[i]) != r.Length {
			return nil, &RangeSizeError{Index: i, Expected: r.Length, Actual: len(ranges[i])}
		}
	}
	s, err := save.Decode(ranges[idxSave])
	if err != nil {
		return nil, err
	}
	var out Ram
	out.Save = s
	out.Pad = save.Pad(binary.BigEndian.Uint16(ranges[idxPad])).FromBitsTruncate()
	out.CurrentSceneID = ranges[idxScene][0]

	chestRoomClear := ranges[idxChestRoomClear]
	out.LiveChestFlags = binary.BigEndian.Uint32(chestRoomClear[0:4])
	out.LiveRoomClear = binary.BigEndian.Uint32(chestRoomClear[4:8])
	out.LiveSwitchFlags = binary.BigEndian.Uint32(ranges[idxSwitch])

	out.TextBoxID = binary.BigEndian.Uint16(ranges[idxTextBoxID])
	copy(out.TextBoxContents[:], ranges[idxTextBoxContents])

	pauseRaw := ranges[idxPauseCtx]
	out.Pause = PauseCtx{
		State:     binary.BigEndian.Uint16(pauseRaw[0x00:0x02]),
		Changing:  binary.BigEndian.Uint16(pauseRaw[0x10:0x12]),
		ScreenIdx: binary.BigEndian.Uint16(pauseRaw[0x14:0x16]),
	}
	return &out, nil
}

// Encode returns the eight fixed-order byte ranges for r, inverse of Decode.
func (r *Ram) Encode() [8][]byte {
	var out [8][]byte
	out[idxSave] = r.Save.Encode()

	pad := make([]byte, 2)
	binary.BigEndian.PutUint16(pad, uint16(r.Pad))
	out[idxPad] = pad

	out[idxScene] = []byte{r.CurrentSceneID}

	sw := make([]byte, 4)
	binary.BigEndian.PutUint32(sw, r.LiveSwitchFlags)
	out[idxSwitch] = sw

	crc := make([]byte, 8)
	binary.BigEndian.PutUint32(crc[0:4], r.LiveChestFlags)
	binary.BigEndian.PutUint32(crc[4:8], r.LiveRoomClear)
	out[idxChestRoomClear] = crc

	tbID := make([]byte, 2)
	binary.BigEndian.PutUint16(tbID, r.TextBoxID)
	out[idxTextBoxID] = tbID

	tbContents := make([]byte, 0xc0)
	copy(tbContents, r.TextBoxContents[:])
	out[idxTextBoxContents] = tbContents

	pauseRaw := make([]byte, 0x16)
	binary.BigEndian.PutUint16(pauseRaw[0x00:0x02], r.Pause.State)
	binary.BigEndian.PutUint16(pauseRaw[0x10:0x12], r.Pause.Changing)
	binary.BigEndian.PutUint16(pauseRaw[0x14:0x16], r.Pause.ScreenIdx)
	out[idxPauseCtx] = pauseRaw

	return out
}

// RangeSizeError is returned by Decode when a supplied range has the wrong
// length for its fixed slot.
type RangeSizeError struct {
	Index            int
	Expected, Actual int
}

func (e *RangeSizeError) Error() string {
	return fmt.Sprintf("ram: range %d: expected %d bytes, got %d", e.Index, e.Expected, e.Actual)
}
