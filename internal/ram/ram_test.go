// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package ram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenhl/oottracker-go/internal/save"
)

func freshRanges(t *testing.T) [8][]byte {
	t.Helper()
	saveBytes := make([]byte, save.Size)
	copy(saveBytes[0x001c:0x001c+6], []byte("ZELDAZ"))
	saveBytes[0x0004+3] = 1 // is_adult raw 1 == child
	for i := range 24 {
		saveBytes[0x0074+i] = byte(save.ItemNone)
	}
	for i := 0; i < 19; i++ {
		saveBytes[0x00bc+i] = 0xff
	}

	var out [8][]byte
	out[idxSave] = saveBytes
	out[idxPad] = make([]byte, 2)
	out[idxScene] = []byte{0x51}
	out[idxSwitch] = make([]byte, 4)
	out[idxChestRoomClear] = make([]byte, 8)
	out[idxTextBoxID] = make([]byte, 2)
	out[idxTextBoxContents] = make([]byte, 0xc0)
	out[idxPauseCtx] = make([]byte, 0x16)
	return out
}

func TestRamRoundTrip(t *testing.T) {
	ranges := freshRanges(t)
	r, err := Decode(ranges)
	require.NoError(t, err)
	assert.EqualValues(t, 0x51, r.CurrentSceneID)

	out := r.Encode()
	for i := range out {
		assert.Equal(t, ranges[i], out[i], "range %d", i)
	}
}

func TestRamDeltaIdentity(t *testing.T) {
	ranges := freshRanges(t)
	a, err := Decode(ranges)
	require.NoError(t, err)

	d := Diff(a, a)
	assert.True(t, d.IsEmpty())

	b, err := Decode(ranges)
	require.NoError(t, err)
	b.CurrentSceneID = 0x52
	b.Save.SkullTokens = 5

	delta := Diff(a, b)
	assert.False(t, delta.IsEmpty())

	applied, err := delta.Apply(a)
	require.NoError(t, err)
	assert.EqualValues(t, 0x52, applied.CurrentSceneID)
	assert.EqualValues(t, 5, applied.Save.SkullTokens)
}

func TestRamDecodeRejectsWrongRangeSize(t *testing.T) {
	ranges := freshRanges(t)
	ranges[idxPad] = []byte{0x00}
	_, err := Decode(ranges)
	require.Error(t, err)
	var rse *RangeSizeError
	require.ErrorAs(t, err, &rse)
}
