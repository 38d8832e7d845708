// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"gotest.tools/v3/assert"
)

// TestSQLStoragePostgresDialectQueries exercises the $N-placeholder,
// ON CONFLICT (name) branch of SQLStorage against a mocked driver, since
// TestSQLiteStorage* already covers the real round-trip against the
// ?-placeholder SQLite branch and CI has no Postgres server to dial.
func TestSQLStoragePostgresDialectQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NilError(t, err)
	defer db.Close()

	s := &SQLStorage{db: db, dialect: dialectPostgres}
	ctx := context.Background()

	ms := freshModelState()
	mock.ExpectExec(`INSERT INTO rooms \(name, knowledge, ram_blob, updated_at\) VALUES \(\$1, \$2, \$3, now\(\)\)`).
		WithArgs("my-room", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NilError(t, s.SaveRoom(ctx, "my-room", ms))

	mock.ExpectQuery(`SELECT name FROM rooms`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("my-room"))
	names, err := s.ListRoomNames(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{"my-room"})

	mock.ExpectExec(`DELETE FROM rooms WHERE name = \$1`).
		WithArgs("my-room").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NilError(t, s.DeleteRoom(ctx, "my-room"))

	assert.NilError(t, mock.ExpectationsWereMet())
}
