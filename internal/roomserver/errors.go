// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package roomserver implements spec.md §4.6/§4.7/§6.4/§6.5's room
// server: concurrent multi-room, multi-world, multi-client synchronization
// fanning out state updates to WebSocket subscribers, with per-room write
// serialization (via Arceliar/phony actors, the way dendrite's federation
// senders serialize per-destination sends), persistence, and
// autotracker-delay ordering.
package roomserver

import "fmt"

// RoomNameError is returned when a room slug fails the
// ^[0-9a-z]+(?:-[0-9a-z]+)*$ pattern required by spec.md §4.6.
type RoomNameError struct{ Name string }

func (e *RoomNameError) Error() string { return fmt.Sprintf("roomserver: invalid room name %q", e.Name) }

// CellIDError is returned when a click references a cell id out of range
// for the room's active layout.
type CellIDError struct {
	CellID int
	Layout string
}

func (e *CellIDError) Error() string {
	return fmt.Sprintf("roomserver: cell id %d out of range for layout %q", e.CellID, e.Layout)
}

// CannotChangeStateError mirrors connection.CannotChangeState for the
// room-server's own read-only surfaces (e.g. a restream world with no
// write permission granted).
type CannotChangeStateError struct{ Room string }

func (e *CannotChangeStateError) Error() string {
	return fmt.Sprintf("roomserver: room %q does not accept state writes here", e.Room)
}

// ProtocolError wraps a malformed WebSocket frame (§6.4, §7 "Protocol
// errors"): an unknown message tag or a length-prefix mismatch. The
// originating connection is closed; other rooms/sockets are unaffected.
type ProtocolError struct{ Detail string }

func (e *ProtocolError) Error() string { return "roomserver: protocol error: " + e.Detail }

// roomNameValid reports whether name matches ^[0-9a-z]+(?:-[0-9a-z]+)*$.
func roomNameValid(name string) bool {
	if name == "" {
		return false
	}
	segStart := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z':
			segStart = false
		case c == '-':
			if segStart {
				return false // empty segment (leading '-' or "--")
			}
			segStart = true
		default:
			return false
		}
	}
	return !segStart // must not end on a bare '-'
}
