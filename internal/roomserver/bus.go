// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fenhl/oottracker-go/internal/model"
)

// Bus is the optional cross-replica room-event fan-out described in
// SPEC_FULL.md §3: when multiple room-server processes share a room
// (behind a load balancer), a mutation on one replica publishes to a NATS
// subject so the other replicas' WebSocket subscribers stay consistent,
// enriching spec.md's single-process model the way dendrite's own
// internal pub/sub keeps multiple roomserver workers in sync.
type Bus struct {
	conn    *nats.Conn
	subject string
	log     *logrus.Entry
}

// roomUpdateMessage is the wire payload published to the bus subject: the
// room name and its RAM ranges + knowledge, reusing the same framing as
// SQLStorage so every replica decodes identically.
type roomUpdateMessage struct {
	Room      string          `json:"room"`
	Knowledge json.RawMessage `json:"knowledge"`
	RamBlob   []byte          `json:"ram_blob"`
}

// NewBus connects to a NATS server and returns a Bus publishing/subscribing
// on subject. A nil *Bus is always safe to call methods on; it is simply
// a no-op, for single-replica deployments.
func NewBus(url, subject string, log *logrus.Entry) (*Bus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, errors.Wrap(err, "roomserver: connecting to nats")
	}
	return &Bus{conn: conn, subject: subject, log: log}, nil
}

// PublishRoomUpdate publishes state's current snapshot for room to the
// bus. Errors are logged, not returned: a missed fan-out message degrades
// replica consistency but must never abort the mutation that triggered it
// (spec.md §7's "never taint other rooms" principle extended across
// replicas).
func (b *Bus) PublishRoomUpdate(room string, state *model.ModelState) {
	if b == nil || b.conn == nil {
		return
	}
	knowledgeJSON, err := state.Knowledge.MarshalJSON()
	if err != nil {
		b.logError(room, err)
		return
	}
	msg := roomUpdateMessage{
		Room:      room,
		Knowledge: knowledgeJSON,
		RamBlob:   encodeRamRanges(state.Ram.Encode()),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError(room, err)
		return
	}
	if err := b.conn.Publish(b.subject+"."+room, payload); err != nil {
		b.logError(room, err)
	}
}

func (b *Bus) logError(room string, err error) {
	if b.log != nil {
		b.log.WithError(err).WithField("room", room).Error("roomserver: nats publish failed")
	}
}

// Subscribe registers onUpdate to be called with every remote
// roomUpdateMessage published for room by another replica.
func (b *Bus) Subscribe(room string, onUpdate func(knowledgeJSON json.RawMessage, ramBlob []byte)) (*nats.Subscription, error) {
	if b == nil || b.conn == nil {
		return nil, nil
	}
	return b.conn.Subscribe(b.subject+"."+room, func(m *nats.Msg) {
		var msg roomUpdateMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			b.logError(room, err)
			return
		}
		onUpdate(msg.Knowledge, msg.RamBlob)
	})
}

// Close closes the underlying NATS connection without draining it.
func (b *Bus) Close() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}
