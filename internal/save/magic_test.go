// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package save

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagicCapacityEncodeDecodeRoundTrip(t *testing.T) {
	for _, m := range []MagicCapacity{MagicNone, MagicSmall, MagicLarge} {
		acquired, has, level := m.encode()
		got, err := decodeMagicCapacity(acquired, has, level)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

// TestMagicLargeSurvivesSaveRoundTrip is TESTABLE PROPERTIES #1 for a save
// with the second magic-meter upgrade: offset 0x003c (magic meter level)
// must come back as 1, not the single-meter value MagicSmall also writes
// there, or the preserved raw byte at 0x0032 silently corrupts on re-encode.
func TestMagicLargeSurvivesSaveRoundTrip(t *testing.T) {
	b := freshSaveBytes(t)
	b[offMagicAcquired] = 2
	b[offMagicHas] = 1
	b[offMagicLevel] = 1

	s, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, MagicLarge, s.Magic)

	got := s.Encode()
	assert.EqualValues(t, 2, got[offMagicAcquired])
	assert.EqualValues(t, 1, got[offMagicHas])
	assert.EqualValues(t, 1, got[offMagicLevel])
}
