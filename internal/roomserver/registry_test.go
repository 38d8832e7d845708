// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenhl/oottracker-go/internal/cells"
	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/ram"
	"github.com/fenhl/oottracker-go/internal/save"
)

func freshModelState() *model.ModelState {
	return &model.ModelState{
		Knowledge:  knowledge.New(),
		Ram:        &ram.Ram{Save: save.NewFresh()},
		TrackerCtx: model.NewTrackerCtx(),
	}
}

func TestCellRegistryRenderAllCoversEveryCellKind(t *testing.T) {
	reg := NewCellRegistry(cells.Default)
	ms := freshModelState()

	rendered := reg.RenderAll(ms)
	assert.Len(t, rendered, 7) // a row of four and a row of three cells in cells.Default
}

func TestCellRegistryClickOutOfRange(t *testing.T) {
	reg := NewCellRegistry(cells.Default)
	ms := freshModelState()

	err := reg.Click(ms, 999, false)
	var cellErr *CellIDError
	require.ErrorAs(t, err, &cellErr)
	assert.Equal(t, 999, cellErr.CellID)
}

func TestCellRegistryClickTogglesSimpleCell(t *testing.T) {
	reg := NewCellRegistry(cells.Default)
	ms := freshModelState()

	before, err := reg.Render(ms, 0) // KokiriSword, a Simple cell
	require.NoError(t, err)
	require.NotNil(t, before.Bool)

	require.NoError(t, reg.Click(ms, 0, false))

	after, err := reg.Render(ms, 0)
	require.NoError(t, err)
	require.NotNil(t, after.Bool)
	assert.NotEqual(t, *before.Bool, *after.Bool)

	// A second left-click returns Simple to its original state.
	require.NoError(t, reg.Click(ms, 0, false))
	restored, err := reg.Render(ms, 0)
	require.NoError(t, err)
	assert.Equal(t, *before.Bool, *restored.Bool)
}

func TestCellRegistryClickCompositeRespectsSide(t *testing.T) {
	reg := NewCellRegistry(cells.Default)
	ms := freshModelState()

	before, err := reg.Render(ms, 1) // Bombs, a Composite cell
	require.NoError(t, err)

	require.NoError(t, reg.Click(ms, 1, true)) // right click toggles only the badge
	after, err := reg.Render(ms, 1)
	require.NoError(t, err)

	assert.Equal(t, *before.Bool, *after.Bool)
	assert.NotEqual(t, *before.Bool2, *after.Bool2)
}
