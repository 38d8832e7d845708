// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package connection

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/oot"
	"github.com/fenhl/oottracker-go/internal/save"
)

// Packet tag bytes for the TCP wire framing.
const (
	tagGoodbye         byte = 0x00
	tagSaveDelta       byte = 0x01
	tagSaveInit        byte = 0x02
	tagKnowledgeInit   byte = 0x03
	supportedTCPVersion byte = 0x00
	// unknownLocation is the tag byte a KnowledgeInit sender uses for a
	// reward whose dungeon isn't yet known; it falls outside the nine
	// real location indices (0-8).
	unknownLocation byte = 0xff
)

// VersionMismatch is returned (and logged) when a TCP client's opening
// version byte doesn't match supportedTCPVersion.
type VersionMismatch struct{ Server, Client byte }

func (e *VersionMismatch) Error() string {
	return fmt.Sprintf("connection: tcp version mismatch: server=%d client=%d", e.Server, e.Client)
}

// TCP binds [::1]:24801 (SPEC_FULL.md §4.7/§6.1), accepts a single
// connection, and turns its framed packet stream into Packets. It never
// accepts writes: the game-side connector is the one driving state.
type TCP struct {
	Addr string // defaults to "[::1]:24801" if empty

	log *logrus.Entry
}

// NewTCP returns a TCP connection bound to addr (or the default port if
// addr is empty).
func NewTCP(addr string) *TCP {
	if addr == "" {
		addr = "[::1]:24801"
	}
	return &TCP{Addr: addr, log: logrus.WithFields(logrus.Fields{"conn_kind": "tcp", "addr": addr})}
}

func (c *TCP) Hash() string          { return "tcp:" + c.Addr }
func (c *TCP) CanChangeState() bool { return false }
func (c *TCP) SetState(*model.ModelState) error {
	return &CannotChangeState{Kind: "tcp"}
}

// PacketStream binds the listener and starts a goroutine accepting one
// connection and decoding its packet stream. The returned channel is
// closed when that connection ends (Goodbye, EOF, or a protocol error).
func (c *TCP) PacketStream() <-chan Packet {
	out := make(chan Packet)
	go func() {
		defer close(out)
		ln, err := net.Listen("tcp", c.Addr)
		if err != nil {
			c.log.WithError(err).Error("connection: tcp listen failed")
			return
		}
		defer ln.Close()

		conn, err := ln.Accept()
		if err != nil {
			c.log.WithError(err).Error("connection: tcp accept failed")
			return
		}
		defer conn.Close()

		if err := c.serve(conn, out); err != nil && !errors.Is(err, io.EOF) {
			c.log.WithError(err).Warn("connection: tcp stream ended")
		}
	}()
	return out
}

func (c *TCP) serve(conn net.Conn, out chan<- Packet) error {
	r := bufio.NewReader(conn)

	version, err := r.ReadByte()
	if err != nil {
		return errors.Wrap(err, "connection: reading tcp version byte")
	}
	if version != supportedTCPVersion {
		return &VersionMismatch{Server: supportedTCPVersion, Client: version}
	}

	for {
		tag, err := r.ReadByte()
		if err != nil {
			return errors.Wrap(err, "connection: reading tcp packet tag")
		}
		switch tag {
		case tagGoodbye:
			return nil
		case tagSaveDelta:
			d, err := readSaveDelta(r)
			if err != nil {
				return err
			}
			out <- Packet{Kind: PacketSaveDelta, SaveDelta: d}
		case tagSaveInit:
			buf := make([]byte, save.Size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return errors.Wrap(err, "connection: reading tcp SaveInit body")
			}
			s, err := save.Decode(buf)
			if err != nil {
				return errors.Wrap(err, "connection: decoding tcp SaveInit")
			}
			out <- Packet{Kind: PacketSaveInit, Save: s}
		case tagKnowledgeInit:
			locs, err := readKnowledgeInit(r)
			if err != nil {
				return err
			}
			out <- Packet{Kind: PacketKnowledgeInit, Locations: locs}
		default:
			return errors.Errorf("connection: unknown tcp packet tag 0x%02x", tag)
		}
	}
}

func readSaveDelta(r *bufio.Reader) (save.Delta, error) {
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, errors.Wrap(err, "connection: reading SaveDelta count")
	}
	d := make(save.Delta, 0, count)
	for i := uint16(0); i < count; i++ {
		var offset uint16
		if err := binary.Read(r, binary.BigEndian, &offset); err != nil {
			return nil, errors.Wrap(err, "connection: reading SaveDelta offset")
		}
		value, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "connection: reading SaveDelta value")
		}
		d = append(d, save.ByteChange{Offset: offset, Value: value})
	}
	return d, nil
}

func readKnowledgeInit(r *bufio.Reader) ([9]*oot.DungeonRewardLocation, error) {
	var out [9]*oot.DungeonRewardLocation
	for i := range out {
		tag, err := r.ReadByte()
		if err != nil {
			return out, errors.Wrap(err, "connection: reading KnowledgeInit tag")
		}
		if tag == unknownLocation {
			continue
		}
		loc := oot.DungeonRewardLocation(tag)
		out[i] = &loc
	}
	return out, nil
}
