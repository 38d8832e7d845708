// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/ram"
	"github.com/fenhl/oottracker-go/internal/save"
)

func freshRam(t *testing.T) *ram.Ram {
	t.Helper()
	saveBytes := make([]byte, save.Size)
	copy(saveBytes[0x001c:0x001c+6], []byte("ZELDAZ"))
	saveBytes[0x0004+3] = 1
	for i := range 24 {
		saveBytes[0x0074+i] = byte(save.ItemNone)
	}
	for i := 0; i < 19; i++ {
		saveBytes[0x00bc+i] = 0xff
	}
	var ranges [8][]byte
	ranges[0] = saveBytes
	ranges[1] = make([]byte, 2)
	ranges[2] = []byte{DekuTreeSceneID}
	ranges[3] = make([]byte, 4)
	ranges[4] = make([]byte, 8)
	ranges[5] = make([]byte, 2)
	ranges[6] = make([]byte, 0xc0)
	ranges[7] = make([]byte, 0x16)
	r, err := ram.Decode(ranges)
	require.NoError(t, err)
	return r
}

func TestCheckedFallsThroughToLiveOverlay(t *testing.T) {
	r := freshRam(t)
	check := model.LocationCheck{Name: "Deku Tree Map Chest"}

	checked, ok := Checked(r, check)
	require.True(t, ok)
	assert.False(t, checked)

	r.LiveChestFlags = 1 << 0
	checked, ok = Checked(r, check)
	require.True(t, ok)
	assert.True(t, checked)
}

func TestCheckedUnknownCheckIsNotRepresented(t *testing.T) {
	r := freshRam(t)
	_, ok := Checked(r, model.LocationCheck{Name: "Nonexistent Check"})
	assert.False(t, ok)
}

func TestCheckedResolvesExitPrerequisiteBinding(t *testing.T) {
	r := freshRam(t)
	check := exitPrereq(0, "Deku Tree Lobby", "Deku Tree Boss Room", vanillaOnly)

	checked, ok := Checked(r, check)
	require.True(t, ok)
	assert.False(t, checked)

	r.LiveSwitchFlags = 1 << 6
	checked, ok = Checked(r, check)
	require.True(t, ok)
	assert.True(t, checked)
}

func TestBindingsCoverScenesBeyondDekuTree(t *testing.T) {
	forestTemple := Bindings(0x03)
	require.Len(t, forestTemple, 4)
	assert.Equal(t, model.LocationCheck{Name: "Forest Temple Raised Island Courtyard Chest"}, forestTemple[0].Check)

	assert.Empty(t, Bindings(0x02)) // Jabu Jabus Belly has no known flag bindings
}

func TestGoldSkulltulaRegistration(t *testing.T) {
	RegisterGoldSkulltula("Test GS", 3)
	r := freshRam(t)
	checked, ok := Checked(r, model.LocationCheck{Name: "Test GS"})
	require.True(t, ok)
	assert.False(t, checked)

	r.Save.GoldSkulltulas[0] = 1 << 3
	checked, ok = Checked(r, model.LocationCheck{Name: "Test GS"})
	require.True(t, ok)
	assert.True(t, checked)
}
