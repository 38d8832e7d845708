// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsSatisfyVerify(t *testing.T) {
	var c Config
	c.Defaults()
	assert.NoError(t, c.Verify())
}

func TestVerifyCollectsEveryProblem(t *testing.T) {
	var c Config
	c.Defaults()
	c.Listener.BindAddress = ""
	c.Database.ConnectionString = ""
	c.Database.SaveInterval = 0
	c.NATS.Enabled = true
	c.NATS.URL = ""

	err := c.Verify()
	require.Error(t, err)
	verr, ok := err.(*VerifyError)
	require.True(t, ok)
	assert.Len(t, verr.Problems, 4)
}

func TestLoadAppliesDefaultsThenOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listener:
  bind_address: "127.0.0.1:9090"
database:
  connection_string: "file:test.db"
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", c.Listener.BindAddress)
	// Untouched by the override document, still the zero-config default.
	assert.Equal(t, "[::1]:24801", c.Listener.TCPBindAddress)
	assert.Equal(t, 10, c.Database.MaxOpenConns)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadSurfacesVerifyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  save_interval: -1
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	_, ok := err.(*VerifyError)
	assert.True(t, ok)
}
