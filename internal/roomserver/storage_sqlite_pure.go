// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

//go:build !cgo

package roomserver

import (
	_ "modernc.org/sqlite"
)

// SQLiteDriverName is the database/sql driver name to pass to
// NewSQLiteStorage: the pure-Go modernc.org/sqlite driver, used in
// cgo-free builds exactly the way dendrite offers a cgo-free SQLite
// option for cross-compiled/Docker builds.
const SQLiteDriverName = "sqlite"
