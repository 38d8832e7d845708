// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage, err := NewSQLiteStorage(ctx, SQLiteDriverName, ":memory:")
	require.NoError(t, err)
	defer storage.Close()

	ms := freshModelState()
	require.NoError(t, storage.SaveRoom(ctx, "my-room", ms))

	names, err := storage.ListRoomNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-room"}, names)

	loaded, err := storage.LoadRoom(ctx, "my-room")
	require.NoError(t, err)
	assert.Equal(t, ms.Ram.Save.Encode(), loaded.Ram.Save.Encode())

	require.NoError(t, storage.DeleteRoom(ctx, "my-room"))
	_, err = storage.LoadRoom(ctx, "my-room")
	assert.Error(t, err)
}

func TestSQLiteStorageUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	storage, err := NewSQLiteStorage(ctx, SQLiteDriverName, ":memory:")
	require.NoError(t, err)
	defer storage.Close()

	ms := freshModelState()
	require.NoError(t, storage.SaveRoom(ctx, "my-room", ms))

	ms.Ram.Save.Equipment.Set(3, true)
	require.NoError(t, storage.SaveRoom(ctx, "my-room", ms))

	names, err := storage.ListRoomNames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 1)
}
