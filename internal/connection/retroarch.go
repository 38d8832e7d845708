// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package connection

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/ram"
)

// retroArchMaxChunk is the largest single READ_CORE_RAM response RetroArch
// reliably returns over one UDP datagram (SPEC_FULL.md §4.7).
const retroArchMaxChunk = 1356

// RetroArch polls a running RetroArch instance's core RAM over UDP once a
// second, using the textual READ_CORE_RAM protocol, and emits a single
// RamInit packet per poll. It never accepts a state write.
type RetroArch struct {
	Addr string // e.g. "127.0.0.1:55355"

	conn net.Conn
	log  *logrus.Entry
}

// NewRetroArch dials addr (RetroArch's network command port) and returns a
// RetroArch connection.
func NewRetroArch(addr string) (*RetroArch, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "connection: dialing retroarch at %s", addr)
	}
	return &RetroArch{
		Addr: addr,
		conn: conn,
		log:  logrus.WithFields(logrus.Fields{"conn_kind": "retroarch", "addr": addr}),
	}, nil
}

func (c *RetroArch) Hash() string          { return "retroarch:" + c.Addr }
func (c *RetroArch) CanChangeState() bool { return false }
func (c *RetroArch) SetState(*model.ModelState) error {
	return &CannotChangeState{Kind: "retroarch"}
}

// PacketStream starts the 1-second poll loop and returns the channel it
// writes RamInit packets to. Each poll runs under a fresh
// context.Background; the loop stops at the first failed poll (for
// example once the UDP connection is closed).
func (c *RetroArch) PacketStream() <-chan Packet {
	out := make(chan Packet)
	go func() {
		defer close(out)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			r, err := c.pollOnce(context.Background())
			if err != nil {
				c.log.WithError(err).Warn("connection: retroarch poll failed, stopping")
				return
			}
			out <- Packet{Kind: PacketRamInit, Ram: r}
		}
	}()
	return out
}

func (c *RetroArch) pollOnce(ctx context.Context) (*ram.Ram, error) {
	var ranges [8][]byte
	for i, rg := range ram.Ranges {
		buf, err := c.readCoreRAM(ctx, rg.Offset, rg.Length)
		if err != nil {
			return nil, errors.Wrapf(err, "connection: retroarch range %d", i)
		}
		ranges[i] = buf
	}
	return ram.Decode(ranges)
}

// readCoreRAM reads length bytes starting at offset, reassembling
// word-aligned chunks no larger than retroArchMaxChunk per the
// READ_CORE_RAM protocol.
func (c *RetroArch) readCoreRAM(ctx context.Context, offset, length int) ([]byte, error) {
	out := make([]byte, 0, length)
	for remaining := length; remaining > 0; {
		chunk := remaining
		if chunk > retroArchMaxChunk {
			chunk = retroArchMaxChunk
		}
		if chunk > 1 {
			chunk &^= 1 // keep reads word-aligned per the protocol's expectations
		}

		addr := offset + len(out)
		cmd := fmt.Sprintf("READ_CORE_RAM %x %d\n", addr, chunk)
		if err := c.conn.SetDeadline(time.Now().Add(2 * time.Second)); err != nil {
			return nil, err
		}
		if _, err := c.conn.Write([]byte(cmd)); err != nil {
			return nil, errors.Wrap(err, "connection: writing READ_CORE_RAM request")
		}

		reply := make([]byte, retroArchMaxChunk*3+64)
		n, err := c.conn.Read(reply)
		if err != nil {
			return nil, errors.Wrap(err, "connection: reading READ_CORE_RAM reply")
		}
		bytesRead, err := parseReadCoreRAMReply(reply[:n])
		if err != nil {
			return nil, err
		}
		out = append(out, bytesRead...)
		remaining -= len(bytesRead)
	}
	return out, nil
}

// parseReadCoreRAMReply parses "READ_CORE_RAM <addr> <hex byte>...\n".
func parseReadCoreRAMReply(line []byte) ([]byte, error) {
	text := strings.TrimSpace(string(line))
	fields := strings.Fields(text)
	if len(fields) < 2 || fields[0] != "READ_CORE_RAM" {
		return nil, errors.Errorf("connection: malformed READ_CORE_RAM reply: %q", text)
	}
	out := make([]byte, 0, len(fields)-2)
	for _, f := range fields[2:] {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "connection: decoding READ_CORE_RAM byte %q", f)
		}
		out = append(out, byte(v))
	}
	return out, nil
}
