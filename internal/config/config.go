// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package config defines the tracker process's YAML-parsed configuration,
// grounded in dendrite's setup/config: small, composable sub-structs each
// with their own Defaults(), parsed with gopkg.in/yaml.v2.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is the tracker process's top-level configuration document.
type Config struct {
	Listener Listener `yaml:"listener"`
	Database Database `yaml:"database"`
	Logging  Logging  `yaml:"logging"`
	Tracing  Tracing  `yaml:"tracing"`
	Sentry   Sentry   `yaml:"sentry"`
	NATS     NATS     `yaml:"nats"`
	RandoData RandoData `yaml:"rando_data"`
}

// Listener configures the room server's HTTP/WebSocket bind address and
// the standalone TCP connection listener.
type Listener struct {
	BindAddress    string `yaml:"bind_address"`
	TCPBindAddress string `yaml:"tcp_bind_address"`
}

// Database configures the room-server persistence backend. Exactly one
// of Postgres/SQLite is expected.
type Database struct {
	// ConnectionString is a lib/pq DSN ("postgres://...") or a
	// mattn/go-sqlite3 / modernc.org/sqlite path ("file:rooms.db").
	ConnectionString string `yaml:"connection_string"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	MaxIdleConns     int    `yaml:"max_idle_conns"`
	// SaveInterval is the minimum time between two automatic saves of a
	// room; a room is saved when it is mutated and at least this long has
	// passed since its last save.
	SaveInterval time.Duration `yaml:"save_interval"`
}

// Logging configures logrus output, following dendrite's Logging sub-config.
type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Tracing configures the opentracing/Jaeger integration.
type Tracing struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	AgentAddr   string `yaml:"agent_addr"`
}

// Sentry configures crash reporting.
type Sentry struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// NATS configures the optional cross-replica room-event fan-out bus.
type NATS struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// RandoData points at the OoTR source checkout the randodata loader reads
// from.
type RandoData struct {
	SourceDir string `yaml:"source_dir"`
}

// Defaults fills in the zero-config defaults, matching dendrite's
// Defaults(opts) convention (here with no DefaultOpts since this process
// has no "generate" mode).
func (c *Config) Defaults() {
	c.Listener.BindAddress = "0.0.0.0:8080"
	c.Listener.TCPBindAddress = "[::1]:24801"
	c.Database.ConnectionString = "file:rooms.db"
	c.Database.MaxOpenConns = 10
	c.Database.MaxIdleConns = 2
	c.Database.SaveInterval = 60 * time.Second
	c.Logging.Level = "info"
	c.Tracing.ServiceName = "oottracker"
	c.NATS.Subject = "oottracker.room"
}

// Verify collects configuration errors the way dendrite's ConfigErrors
// does, rather than failing on the first problem found.
func (c *Config) Verify() error {
	var errs []string
	if c.Listener.BindAddress == "" {
		errs = append(errs, "listener.bind_address must not be empty")
	}
	if c.Database.ConnectionString == "" {
		errs = append(errs, "database.connection_string must not be empty")
	}
	if c.Database.SaveInterval <= 0 {
		errs = append(errs, "database.save_interval must be positive")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url must be set when nats.enabled is true")
	}
	if len(errs) == 0 {
		return nil
	}
	return &VerifyError{Problems: errs}
}

// VerifyError collects every configuration problem found by Verify.
type VerifyError struct{ Problems []string }

func (e *VerifyError) Error() string {
	return fmt.Sprintf("config: %d problem(s): %v", len(e.Problems), e.Problems)
}

// Load reads and parses a YAML config document from path, applying
// Defaults first so the document only needs to override what it cares
// about.
func Load(path string) (*Config, error) {
	var c Config
	c.Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return &c, nil
}
