// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateThenGetString(t *testing.T) {
	k := New()
	closed := "closed"
	require.NoError(t, k.Update("open_forest", NewStringSet(closed)))
	v, err := k.GetString("open_forest")
	require.NoError(t, err)
	assert.Equal(t, closed, v)
}

func TestUpdateConflictingStringsErrors(t *testing.T) {
	k := New()
	require.NoError(t, k.Update("open_forest", NewStringSet("closed")))
	err := k.Update("open_forest", NewStringSet("open"))
	require.Error(t, err)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
}

func TestMergeIsCommutativeAssociativeIdempotent(t *testing.T) {
	a := NewIntRange(0, 10)
	b := NewIntRange(5, 20)
	ab, err := Merge("x", a, b)
	require.NoError(t, err)
	ba, err := Merge("x", b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	selfMerge, err := Merge("x", ab, ab)
	require.NoError(t, err)
	assert.Equal(t, ab, selfMerge)

	c := NewIntRange(6, 8)
	abc1, err := Merge("x", ab, c)
	require.NoError(t, err)
	bc, err := Merge("x", b, c)
	require.NoError(t, err)
	abc2, err := Merge("x", a, bc)
	require.NoError(t, err)
	assert.Equal(t, abc1, abc2)
}

func TestMergeEmptyIntersectionConflicts(t *testing.T) {
	_, err := Merge("x", NewIntRange(0, 2), NewIntRange(5, 10))
	require.Error(t, err)
}

func TestRemove(t *testing.T) {
	k := New()
	require.NoError(t, k.Update("foo", NewBool(boolPtr(true))))
	k.Remove("foo")
	_, err := k.Get("foo")
	require.Error(t, err)
	var use *UnknownSettingError
	require.ErrorAs(t, err, &use)
}

func TestVanillaPinsMQAndTrials(t *testing.T) {
	v := Vanilla()
	mq, known := v.IsMQ(0)
	assert.True(t, known)
	assert.False(t, mq)
	active, known := v.TrialActive(0)
	assert.True(t, known)
	assert.True(t, active)
}

func boolPtr(b bool) *bool { return &b }
