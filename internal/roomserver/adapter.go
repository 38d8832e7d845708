// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"github.com/fenhl/oottracker-go/internal/connection"
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/oot"
)

// PumpConnection ranges over conn's packet stream for as long as it stays
// open, applying each Packet to room's ModelState (spec.md §4.7: "a
// connection's packets are the only way a room's Ram/Save/Knowledge
// changes outside of a WebSocket click"). It runs until the connection
// closes its stream, so callers start it in its own goroutine.
func PumpConnection(conn connection.Connection, room *Room) {
	for pkt := range conn.PacketStream() {
		kind := pkt.Kind
		room.Mutate(nil, func(ms *model.ModelState) {
			if err := applyPacket(ms, pkt); err != nil {
				decodeErrors.WithLabelValues(room.Name).Inc()
				if room.log != nil {
					room.log.WithError(err).WithField("packet_kind", kind).Warn("roomserver: dropping malformed packet")
				}
			}
		})
	}
}

func applyPacket(ms *model.ModelState, pkt connection.Packet) error {
	switch pkt.Kind {
	case connection.PacketRamInit:
		if pkt.Ram == nil {
			return &ProtocolError{Detail: "RamInit packet missing Ram"}
		}
		ms.Ram = pkt.Ram
	case connection.PacketSaveInit:
		if pkt.Save == nil {
			return &ProtocolError{Detail: "SaveInit packet missing Save"}
		}
		ms.Ram.Save = pkt.Save
	case connection.PacketSaveDelta:
		next, err := pkt.SaveDelta.Apply(ms.Ram.Save)
		if err != nil {
			return err
		}
		ms.Ram.Save = next
	case connection.PacketKnowledgeInit:
		for i, loc := range pkt.Locations {
			reward := oot.AllRewards()[i]
			ms.Knowledge.RewardLocation[reward] = loc
		}
	case connection.PacketUpdateCell:
		// Firebase-sourced cell updates carry their own presentation-level
		// semantics (SPEC_FULL.md §4.7's Firebase item); the tracker layer
		// that owns cell registries applies these, not the room server.
		return &ProtocolError{Detail: "UpdateCell packets must be applied by the presentation layer"}
	default:
		return &ProtocolError{Detail: "unknown packet kind"}
	}
	return nil
}
