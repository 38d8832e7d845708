// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package save

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freshSaveBytes builds a minimal valid Size-byte buffer resembling a
// fresh-file OoT save: child, daytime, no magic, Kokiri Sword equipped.
func freshSaveBytes(t *testing.T) []byte {
	t.Helper()
	b := make([]byte, Size)
	copy(b[offSignature:offSignature+6], signature[:])
	b[offIsAdult+3] = 1 // is_adult raw 1 == child
	b[offTimeOfDay], b[offTimeOfDay+1] = 0x60, 0x00
	for i := range numInventorySlots {
		b[offInventory+i] = byte(ItemNone)
	}
	b[offEquipment], b[offEquipment+1] = 0x00, byte(KokiriSword)
	for i := 0; i < numSmallKeyDungeons; i++ {
		b[offSmallKeys+i] = 0xff
	}
	b[offGameMode+3] = byte(GameModeGameplay)
	return b
}

func TestDecodeFreshSave(t *testing.T) {
	s, err := Decode(freshSaveBytes(t))
	require.NoError(t, err)
	assert.False(t, s.IsAdult)
	assert.True(t, s.TimeOfDay.Matches(TimeDay))
	assert.Equal(t, MagicNone, s.Magic)
	assert.Equal(t, Equipment(KokiriSword), s.Equipment)
	assert.EqualValues(t, 0, s.SkullTokens)
	assert.EqualValues(t, 0, s.QuestItems)
	for i := 0; i < numSmallKeyDungeons; i++ {
		assert.EqualValues(t, 0, s.SmallKeys[i])
	}
}

func TestDecodeRejectsBadSize(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrSize, de.Kind)
}

func TestDecodeRejectsBadSignature(t *testing.T) {
	b := freshSaveBytes(t)
	b[offSignature] = 'X'
	_, err := Decode(b)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrAssertEq, de.Kind)
}

// TestSaveRoundTrip is TESTABLE PROPERTIES #1.
func TestSaveRoundTrip(t *testing.T) {
	orig := freshSaveBytes(t)
	s, err := Decode(orig)
	require.NoError(t, err)
	got := s.Encode()
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestDeltaIdentity is TESTABLE PROPERTIES #3.
func TestDeltaIdentity(t *testing.T) {
	a, err := Decode(freshSaveBytes(t))
	require.NoError(t, err)

	empty := Diff(a, a)
	assert.Empty(t, empty)

	again, err := empty.Apply(a)
	require.NoError(t, err)
	assert.Equal(t, a.Encode(), again.Encode())

	b, err := Decode(freshSaveBytes(t))
	require.NoError(t, err)
	b.SkullTokens = 5
	b.Equipment.Set(MasterSword, true)

	d := Diff(a, b)
	require.NotEmpty(t, d)
	reconstructed, err := d.Apply(a)
	require.NoError(t, err)
	assert.Equal(t, b.Encode(), reconstructed.Encode())
}

func TestUpgradesAccessors(t *testing.T) {
	var u Upgrades
	u.SetBombBag(BombBag20)
	assert.Equal(t, BombBag20, u.BombBag())
	u.SetBombBag(BombBag40)
	assert.Equal(t, BombBag40, u.BombBag())
	assert.Zero(t, u.Quiver())
}

func TestRecvMwItemUnknown(t *testing.T) {
	s, err := Decode(freshSaveBytes(t))
	require.NoError(t, err)
	before := s.Encode()
	err = s.RecvMwItem(0xffff)
	require.Error(t, err)
	assert.Equal(t, before, s.Encode())
}

func TestRecvMwItemProgressiveBombBag(t *testing.T) {
	s, err := Decode(freshSaveBytes(t))
	require.NoError(t, err)
	require.NoError(t, s.RecvMwItem(MwBombBag))
	assert.Equal(t, BombBag20, s.Upgrades.BombBag())
	require.NoError(t, s.RecvMwItem(MwBombBag))
	assert.Equal(t, BombBag30, s.Upgrades.BombBag())
	assert.EqualValues(t, 2, s.InvAmounts.NumReceivedMwItems)
}

func TestAddBottleRutosLetterDedup(t *testing.T) {
	inv := emptyBottleInventory()
	inv.AddBottle(ItemRutosLetter)
	inv.AddBottle(ItemRutosLetter)
	count := 0
	for _, s := range bottleSlots() {
		if inv.Get(s) == ItemRutosLetter {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
