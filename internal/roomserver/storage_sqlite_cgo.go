// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

//go:build cgo

package roomserver

import (
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDriverName is the database/sql driver name to pass to
// NewSQLiteStorage: the cgo mattn/go-sqlite3 driver when cgo is
// available, matching dendrite's preference for the cgo SQLite driver
// when the build supports it.
const SQLiteDriverName = "sqlite3"
