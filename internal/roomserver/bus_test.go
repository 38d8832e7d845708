// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"encoding/json"
	"testing"
	"time"

	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runEmbeddedNATS starts an in-process NATS server on an ephemeral port
// for the lifetime of one test, since the Bus has no fake/mock seam of
// its own and the real wire protocol is the thing worth exercising.
func runEmbeddedNATS(t *testing.T) string {
	t.Helper()
	opts := natstest.DefaultTestOptions
	opts.Port = -1
	srv := natstest.RunServer(&opts)
	t.Cleanup(srv.Shutdown)
	return srv.Addr().String()
}

func TestBusPublishRoomUpdateReachesSubscriber(t *testing.T) {
	addr := runEmbeddedNATS(t)

	pub, err := NewBus("nats://"+addr, "oottracker.rooms", nil)
	require.NoError(t, err)
	defer pub.Close()
	sub, err := NewBus("nats://"+addr, "oottracker.rooms", nil)
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan roomUpdateMessage, 1)
	_, err = sub.Subscribe("my-room", func(knowledgeJSON json.RawMessage, ramBlob []byte) {
		received <- roomUpdateMessage{Room: "my-room", Knowledge: knowledgeJSON, RamBlob: ramBlob}
	})
	require.NoError(t, err)

	ms := freshModelState()
	pub.PublishRoomUpdate("my-room", ms)

	select {
	case msg := <-received:
		assert.Equal(t, "my-room", msg.Room)
		assert.NotEmpty(t, msg.RamBlob)
		assert.NotEmpty(t, msg.Knowledge)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for bus message")
	}
}

func TestNilBusIsNoop(t *testing.T) {
	var b *Bus
	b.PublishRoomUpdate("my-room", freshModelState())
	sub, err := b.Subscribe("my-room", func(json.RawMessage, []byte) {})
	assert.NoError(t, err)
	assert.Nil(t, sub)
	b.Close()
}
