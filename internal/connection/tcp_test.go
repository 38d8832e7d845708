// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package connection

import (
	"bufio"
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenhl/oottracker-go/internal/save"
)

func TestTCPVersionMismatch(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		client.Write([]byte{0x01, tagGoodbye}) // wrong version byte
	}()

	c := NewTCP("")
	out := make(chan Packet, 1)
	err := c.serve(server, out)
	var mismatch *VersionMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.EqualValues(t, supportedTCPVersion, mismatch.Server)
	assert.EqualValues(t, 0x01, mismatch.Client)
}

func TestTCPGoodbyeEndsStreamCleanly(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		client.Write([]byte{supportedTCPVersion, tagGoodbye})
	}()

	c := NewTCP("")
	out := make(chan Packet, 1)
	require.NoError(t, c.serve(server, out))
}

func TestTCPSaveInitPacket(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	freshBuf := save.NewFresh().Encode()

	go func() {
		client.Write([]byte{supportedTCPVersion, tagSaveInit})
		client.Write(freshBuf)
		client.Write([]byte{tagGoodbye})
	}()

	c := NewTCP("")
	out := make(chan Packet, 2)
	require.NoError(t, c.serve(server, out))

	pkt := <-out
	assert.Equal(t, PacketSaveInit, pkt.Kind)
	require.NotNil(t, pkt.Save)
	assert.False(t, pkt.Save.IsAdult)
}

func TestReadSaveDeltaDecodesEntries(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x02}) // count = 2
	buf.Write([]byte{0x00, 0x10, 0x05})
	buf.Write([]byte{0x01, 0x20, 0xff})

	d, err := readSaveDelta(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Len(t, d, 2)
	assert.EqualValues(t, 0x0010, d[0].Offset)
	assert.EqualValues(t, 0x05, d[0].Value)
	assert.EqualValues(t, 0x0120, d[1].Offset)
	assert.EqualValues(t, 0xff, d[1].Value)
}

func TestReadKnowledgeInitUnknownTagIsNil(t *testing.T) {
	buf := bytes.NewBuffer(bytes.Repeat([]byte{unknownLocation}, 9))
	locs, err := readKnowledgeInit(bufio.NewReader(buf))
	require.NoError(t, err)
	for _, l := range locs {
		assert.Nil(t, l)
	}
}

func TestNullConnectionNeverChangesState(t *testing.T) {
	n := Null{}
	assert.False(t, n.CanChangeState())
	assert.Error(t, n.SetState(nil))
}
