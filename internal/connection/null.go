// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package connection

import "github.com/fenhl/oottracker-go/internal/model"

// Null never emits a packet and never accepts a state write; it exists so
// every room/UI surface can hold a Connection even when no real source is
// configured yet.
type Null struct{}

func (Null) Hash() string              { return "null" }
func (Null) CanChangeState() bool      { return false }
func (Null) SetState(*model.ModelState) error {
	return &CannotChangeState{Kind: "null"}
}

// PacketStream returns a channel that is never written to and never
// closed, since Null has no underlying stream, matching "never emits".
func (Null) PacketStream() <-chan Packet {
	return make(chan Packet)
}
