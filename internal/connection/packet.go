// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package connection implements the pluggable connection abstractions of
// SPEC_FULL.md §4.7 (spec.md §4.7): Null, TCP, RetroArch, and Firebase,
// grounded in fenhl/oottracker's ui/tcp.rs / ui/retroarch.rs and in
// dendrite's own preference for small interfaces over per-source-kind
// handles (internal/caching's Cache-kind split, syncapi's per-transport
// stream producers).
package connection

import (
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/oot"
	"github.com/fenhl/oottracker-go/internal/ram"
	"github.com/fenhl/oottracker-go/internal/save"
)

// PacketKind tags a Packet's payload, matching the four wire forms named
// in SPEC_FULL.md §4.7 plus the cell-level update a Firebase subscription
// can emit.
type PacketKind int

const (
	PacketRamInit PacketKind = iota
	PacketSaveInit
	PacketSaveDelta
	PacketKnowledgeInit
	PacketUpdateCell
)

// Packet is one emission of a Connection's packet stream. Exactly one of
// the payload fields is populated, selected by Kind; callers type-switch
// on Kind rather than on payload nil-ness so a zero-value payload (an
// empty SaveDelta, for instance) is never mistaken for "not this kind".
type Packet struct {
	Kind PacketKind

	Ram           *ram.Ram
	Save          *save.Save
	SaveDelta     save.Delta
	Locations     [9]*oot.DungeonRewardLocation // wire order per oot.AllRewards, nil = unknown
	UpdateCellID  string
	UpdateCellVal any
}

// Connection is the behaviorally-polymorphic handle SPEC_FULL.md §4.7
// describes: a stable identity, a capability flag, a packet stream, and
// an optional state-write path.
type Connection interface {
	// Hash is a stable identity for this connection, keyed by kind and
	// distinguishing parameters (e.g. "tcp:[::1]:24801",
	// "retroarch:127.0.0.1:55355").
	Hash() string

	// CanChangeState reports whether SetState ever succeeds.
	CanChangeState() bool

	// PacketStream returns a channel the caller ranges over for as long
	// as the connection is open; it is closed when the connection's
	// underlying stream ends (socket close, context cancellation).
	// Implementations never block the caller's goroutine setting this up:
	// the producing goroutine is started before PacketStream returns.
	PacketStream() <-chan Packet

	// SetState pushes ms to the remote side. Read-only connections
	// return CannotChangeState.
	SetState(ms *model.ModelState) error
}

// CannotChangeState is returned by SetState on any connection whose
// CanChangeState is false.
type CannotChangeState struct{ Kind string }

func (e *CannotChangeState) Error() string {
	return "connection: " + e.Kind + " connection cannot change state"
}
