// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package cells

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/oot"
	"github.com/fenhl/oottracker-go/internal/ram"
	"github.com/fenhl/oottracker-go/internal/save"
)

func freshModelState(t *testing.T) *model.ModelState {
	t.Helper()
	saveBytes := make([]byte, save.Size)
	copy(saveBytes[0x001c:0x001c+6], []byte("ZELDAZ"))
	for i := range 24 {
		saveBytes[0x0074+i] = byte(save.ItemNone)
	}
	for i := 0; i < 19; i++ {
		saveBytes[0x00bc+i] = 0xff
	}

	var ranges [8][]byte
	ranges[0] = saveBytes
	ranges[1] = make([]byte, 2)
	ranges[2] = []byte{0x00}
	ranges[3] = make([]byte, 4)
	ranges[4] = make([]byte, 8)
	ranges[5] = make([]byte, 2)
	ranges[6] = make([]byte, 0xc0)
	ranges[7] = make([]byte, 0x16)

	r, err := ram.Decode(ranges)
	require.NoError(t, err)
	return &model.ModelState{Knowledge: knowledge.New(), Ram: r, TrackerCtx: model.NewTrackerCtx()}
}

// TestSimpleClickIsPureAndDeterministic exercises the "cell click is
// pure" property: reading twice without clicking returns the same value,
// and double-clicking a Simple cell returns it to its starting state.
func TestSimpleClickIsPureAndDeterministic(t *testing.T) {
	ms := freshModelState(t)
	assert.False(t, KokiriSword.Read(ms))
	assert.False(t, KokiriSword.Read(ms))

	KokiriSword.LeftClick(ms)
	assert.True(t, KokiriSword.Read(ms))

	KokiriSword.LeftClick(ms)
	assert.False(t, KokiriSword.Read(ms))
}

// TestBombsCellSequence reproduces the worked example verbatim: start at
// (false, false), left-click sets the bomb bag, right-click twice toggles
// bombchus on then off, leaving the bomb bag alone throughout.
func TestBombsCellSequence(t *testing.T) {
	ms := freshModelState(t)
	left, right := Bombs.Read(ms)
	assert.False(t, left)
	assert.False(t, right)

	Bombs.LeftClick(ms)
	left, right = Bombs.Read(ms)
	assert.True(t, left)
	assert.False(t, right)

	Bombs.RightClick(ms)
	left, right = Bombs.Read(ms)
	assert.True(t, left)
	assert.True(t, right)

	Bombs.RightClick(ms)
	left, right = Bombs.Read(ms)
	assert.True(t, left)
	assert.False(t, right)
}

// TestMedallionLocationCycle reproduces the MedallionLocation cycle
// scenario: starting from unknown, nine left-clicks visit every dungeon in
// wire order plus Link's Pocket, and the tenth returns to unknown.
func TestMedallionLocationCycle(t *testing.T) {
	ms := freshModelState(t)
	cell := MedallionLocation(oot.RewardForestMedallion)

	assert.Equal(t, len(oot.MedallionLocationCycle)-1, cell.Read(ms))

	wantOrder := []oot.DungeonRewardLocation{
		oot.LocDekuTree, oot.LocDodongosCavern, oot.LocJabuJabu, oot.LocForestTemple,
		oot.LocFireTemple, oot.LocWaterTemple, oot.LocShadowTemple, oot.LocSpiritTemple,
		oot.LocLinksPocket,
	}
	for _, want := range wantOrder {
		cell.LeftClick(ms)
		idx := cell.Read(ms)
		require.NotNil(t, oot.MedallionLocationCycle[idx])
		assert.Equal(t, want, *oot.MedallionLocationCycle[idx])
	}

	cell.LeftClick(ms)
	assert.Nil(t, oot.MedallionLocationCycle[cell.Read(ms)])
}

// TestMedallionLocationCycleReverses checks the right-click direction is
// the exact inverse of left-click.
func TestMedallionLocationCycleReverses(t *testing.T) {
	ms := freshModelState(t)
	cell := StoneLocation(oot.RewardKokiriEmerald)

	cell.LeftClick(ms)
	cell.LeftClick(ms)

	cell.RightClick(ms)
	assert.Equal(t, oot.LocDekuTree, *oot.MedallionLocationCycle[cell.Read(ms)])
}

func TestSongCellIndependentToggles(t *testing.T) {
	ms := freshModelState(t)
	song, check := ZeldasLullaby.Read(ms)
	assert.False(t, song)
	assert.False(t, check)

	ZeldasLullaby.RightClick(ms)
	song, check = ZeldasLullaby.Read(ms)
	assert.False(t, song)
	assert.True(t, check)

	ZeldasLullaby.LeftClick(ms)
	song, check = ZeldasLullaby.Read(ms)
	assert.True(t, song)
	assert.True(t, check)
}

func TestBossKeyAndSmallKeysAreIndependentPerDungeon(t *testing.T) {
	ms := freshModelState(t)
	deku := BossKey(oot.DekuTree)
	dodongo := BossKey(oot.DodongosCavern)

	deku.LeftClick(ms)
	assert.True(t, deku.Read(ms))
	assert.False(t, dodongo.Read(ms))

	keys := SmallKeys(oot.DekuTree, 3)
	assert.EqualValues(t, 0, keys.Read(ms))
	keys.LeftClick(ms)
	keys.LeftClick(ms)
	assert.EqualValues(t, 2, keys.Read(ms))
	keys.LeftClick(ms)
	keys.LeftClick(ms)
	assert.EqualValues(t, 0, keys.Read(ms)) // wraps past Max back to 0
}

func TestMqCellTracksKnowledge(t *testing.T) {
	ms := freshModelState(t)
	cell := Mq(oot.FireTemple)
	assert.Equal(t, 0, cell.Read(ms)) // unknown

	cell.LeftClick(ms) // unknown -> vanilla
	assert.Equal(t, 1, cell.Read(ms))
	mq, known := ms.Knowledge.IsMQ(oot.FireTemple)
	assert.True(t, known)
	assert.False(t, mq)

	cell.LeftClick(ms) // vanilla -> mq
	assert.Equal(t, 2, cell.Read(ms))
	mq, known = ms.Knowledge.IsMQ(oot.FireTemple)
	assert.True(t, known)
	assert.True(t, mq)

	cell.LeftClick(ms) // mq -> unknown
	assert.Equal(t, 0, cell.Read(ms))
	_, known = ms.Knowledge.IsMQ(oot.FireTemple)
	assert.False(t, known)
}

func TestBottlesCountDrivesSetEmptiableBottles(t *testing.T) {
	ms := freshModelState(t)
	assert.EqualValues(t, 0, Bottles.Read(ms))

	Bottles.LeftClick(ms)
	Bottles.LeftClick(ms)
	assert.EqualValues(t, 2, Bottles.Read(ms))
	assert.Equal(t, save.ItemEmptyBottle, ms.Ram.Save.Inventory.Get(save.SlotBottle1))
	assert.Equal(t, save.ItemEmptyBottle, ms.Ram.Save.Inventory.Get(save.SlotBottle2))

	Bottles.RightClick(ms)
	assert.EqualValues(t, 1, Bottles.Read(ms))
	assert.Equal(t, save.ItemNone, ms.Ram.Save.Inventory.Get(save.SlotBottle1))
	assert.Equal(t, save.ItemEmptyBottle, ms.Ram.Save.Inventory.Get(save.SlotBottle2))
}
