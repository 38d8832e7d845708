// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"encoding/binary"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Arceliar/phony"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/ram"
	"github.com/fenhl/oottracker-go/internal/save"
)

// Message tags for the length-prefixed WebSocket frames of §6.4. Each
// frame is a 1-byte tag followed by a 4-byte big-endian length and a JSON
// payload, the same tag-then-framed-body idiom as the TCP protocol in
// internal/connection/tcp.go, reused here instead of gorilla/websocket's
// own per-message framing so server and client agree on message
// boundaries independent of the underlying WebSocket message type.
const (
	tagPing      byte = 0x00
	tagInit      byte = 0x01
	tagInitRaw   byte = 0x02
	tagUpdate    byte = 0x03
	tagUpdateRaw byte = 0x04
	tagError     byte = 0x05
)

const (
	tagPong                    byte = 0x00
	tagSubscribeRoom           byte = 0x01
	tagSubscribeMw             byte = 0x02
	tagSubscribeRestream       byte = 0x03
	tagSubscribeDoubleRestream byte = 0x04
	tagSubscribeRaw            byte = 0x05
	tagClickRoom               byte = 0x06
	tagClickMw                 byte = 0x07
	tagClickRestream           byte = 0x08
	tagSetRaw                  byte = 0x09
	tagMwCreateRoom            byte = 0x0a
	tagMwDeleteRoom            byte = 0x0b
	tagMwResetPlayer           byte = 0x0c
	tagMwGetItem               byte = 0x0d
	tagMwGetItemAll            byte = 0x0e
)

const pingPeriod = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscribeRoomPayload / clickRoomPayload etc. are the JSON bodies carried
// by their respective tags.
type subscribeRoomPayload struct {
	Room   string `json:"room"`
	Layout string `json:"layout"`
}
type subscribeMwPayload struct {
	Room  string `json:"room"`
	World int    `json:"world"`
}
type subscribeRestreamPayload struct {
	Restream string `json:"restream"`
	Runner   string `json:"runner"`
}
type clickPayload struct {
	Room   string `json:"room"`
	World  int    `json:"world,omitempty"`
	Runner string `json:"runner,omitempty"`
	CellID int    `json:"cell_id"`
	Right  bool   `json:"right"`
}
type mwCreateRoomPayload struct {
	Room       string `json:"room"`
	WorldCount int    `json:"world_count"`
}
type mwDeleteRoomPayload struct {
	Room string `json:"room"`
}
type mwResetPlayerPayload struct {
	Room    string `json:"room"`
	World   int    `json:"world"`
	SaveHex string `json:"save_hex"` // hex-encoded 0x1450-byte save
}
type mwGetItemPayload struct {
	Room        string `json:"room"`
	SourceWorld int    `json:"source_world"`
	TargetWorld int    `json:"target_world,omitempty"` // 0 for MwGetItemAll
	ItemKind    uint16 `json:"item_kind"`
	Key         uint32 `json:"key"`
}
type initPayload struct {
	Layout string         `json:"layout"`
	Cells  []RenderedCell `json:"cells"`
}
type updatePayload struct {
	CellID int          `json:"cell_id"`
	Cell   RenderedCell `json:"cell"`
}
type errorPayload struct {
	Message string `json:"message"`
}

// Hub owns every live room/mw-room/restream keyed by name and dispatches
// WebSocket connections against them (spec.md §4.6/§6.4).
type Hub struct {
	rooms     map[string]*Room
	mwRooms   map[string]*MwRoom
	restreams map[string]*Restream

	layout *CellRegistry // the single shared layout's cell registry (SPEC_FULL.md §4.3's layout choice affects only presentation)

	storage Storage
	bus     *Bus
	log     *logrus.Entry

	// clientCount is a lock-free mirror of websocketClients (SPEC_FULL.md
	// §3 "go.uber.org/atomic ... websocket client count"), readable from
	// a status endpoint without going through the Prometheus registry.
	clientCount atomic.Int64
}

// NewHub constructs an empty Hub.
func NewHub(layout *CellRegistry, storage Storage, bus *Bus, log *logrus.Entry) *Hub {
	return &Hub{
		rooms:     make(map[string]*Room),
		mwRooms:   make(map[string]*MwRoom),
		restreams: make(map[string]*Restream),
		layout:    layout,
		storage:   storage,
		bus:       bus,
		log:       log,
	}
}

// ClientCount reports the number of currently connected WebSocket clients.
func (h *Hub) ClientCount() int64 { return h.clientCount.Load() }

// RoomOrCreate returns the named room, creating it with a blank/vanilla
// ModelState if it doesn't exist yet, optionally restoring from storage
// first.
func (h *Hub) RoomOrCreate(name string, saveInterval time.Duration, blank func() *model.ModelState) (*Room, error) {
	if r, ok := h.rooms[name]; ok {
		return r, nil
	}
	initial := blank()
	if h.storage != nil {
		if stored, err := h.storage.LoadRoom(nil, name); err == nil && stored != nil { //nolint:staticcheck // nil Context acceptable for a best-effort local read at startup
			initial = stored
		}
	}
	r, err := NewRoom(name, initial, h.storage, saveInterval, h.bus, h.log)
	if err != nil {
		return nil, err
	}
	h.rooms[name] = r
	roomCount.Set(float64(len(h.rooms)))
	return r, nil
}

// ForceSaveAll persists every open room, for graceful shutdown (spec.md §5).
func (h *Hub) ForceSaveAll() {
	for _, r := range h.rooms {
		_ = r.ForceSave(nil) //nolint:staticcheck // best-effort flush at shutdown
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and runs its
// read/write pumps until the socket closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.log != nil {
			h.log.WithError(err).Warn("roomserver: websocket upgrade failed")
		}
		return
	}
	sessionID := uuid.NewString()
	c := &wsConn{hub: h, conn: conn, sessionID: sessionID, log: h.log.WithField("ws_session", sessionID)}
	websocketClients.Inc()
	h.clientCount.Inc()
	defer websocketClients.Dec()
	defer h.clientCount.Dec()
	c.run()
}

// wsConn is one client session: the 30-second ping loop and the dispatch
// of client->server frames against the Hub (§6.4's "Server pings every
// 30s; clients MUST Pong").
type wsConn struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	log       *logrus.Entry

	subRoom   *Room
	subMw     *MwRoom
	subRestream *Restream
	subID     uint64
	subCh     <-chan *model.ModelState
}

func (c *wsConn) run() {
	defer c.cleanup()
	c.conn.SetReadDeadline(time.Now().Add(pingPeriod * 2))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pingPeriod * 2))
		return nil
	})

	done := make(chan struct{})
	go c.pingLoop(done)
	go c.broadcastLoop(done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			close(done)
			return
		}
		if err := c.handleFrame(data); err != nil {
			c.sendError(err.Error())
		}
	}
}

// pingLoop implements §6.4's 30-second server ping; a missed Pong (the
// read deadline above expiring) is treated as a closed socket, not merely
// logged, per SPEC_FULL.md §4 item 5.
func (c *wsConn) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

// broadcastLoop forwards whichever room this connection is subscribed to
// onto the socket as Update/UpdateRaw frames.
func (c *wsConn) broadcastLoop(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ms, ok := <-c.subCh:
			if !ok {
				c.subCh = nil
				continue
			}
			c.pushFullState(ms)
		}
	}
}

func (c *wsConn) pushFullState(ms *model.ModelState) {
	if c.hub.layout == nil {
		return
	}
	for id := range c.hub.layout.byID {
		rc, err := c.hub.layout.Render(ms, id)
		if err != nil {
			continue
		}
		c.sendFrame(tagUpdate, updatePayload{CellID: id, Cell: rc})
	}
}

func (c *wsConn) handleFrame(data []byte) error {
	if len(data) < 5 {
		return &ProtocolError{Detail: "short frame"}
	}
	tag := data[0]
	if int(binary.BigEndian.Uint32(data[1:5])) != len(data)-5 {
		return &ProtocolError{Detail: "frame length does not match payload"}
	}
	body := data[5:]
	switch tag {
	case tagPong:
		c.conn.SetReadDeadline(time.Now().Add(pingPeriod * 2))
		return nil
	case tagSubscribeRoom:
		var p subscribeRoomPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.subscribeRoom(p.Room, false)
	case tagSubscribeMw:
		var p subscribeMwPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.subscribeMw(p.Room)
	case tagSubscribeRestream, tagSubscribeDoubleRestream:
		var p subscribeRestreamPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.subscribeRestream(p.Restream)
	case tagSubscribeRaw:
		var p subscribeRoomPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.subscribeRoom(p.Room, true) // raw subscriptions reuse the same room lookup; rawness only affects the fan-out buffering applied in Room.Subscribe
	case tagClickRoom:
		var p clickPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.clickRoom(p)
	case tagClickMw:
		var p clickPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.clickMw(p)
	case tagClickRestream:
		var p clickPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.clickRestream(p)
	case tagMwCreateRoom:
		var p mwCreateRoomPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.mwCreateRoom(p)
	case tagMwDeleteRoom:
		var p mwDeleteRoomPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		delete(c.hub.mwRooms, p.Room)
		return nil
	case tagMwResetPlayer:
		var p mwResetPlayerPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.mwResetPlayer(p)
	case tagMwGetItem:
		var p mwGetItemPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.mwGetItem(p, false)
	case tagMwGetItemAll:
		var p mwGetItemPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return &ProtocolError{Detail: err.Error()}
		}
		return c.mwGetItem(p, true)
	default:
		return &ProtocolError{Detail: "unknown client message tag"}
	}
}

func (c *wsConn) subscribeRoom(name string, raw bool) error {
	r, ok := c.hub.rooms[name]
	if !ok {
		return &RoomNameError{Name: name}
	}
	c.subRoom = r
	c.subID, c.subCh = r.Subscribe(raw)
	if c.hub.layout != nil {
		snapshot, err := r.Snapshot()
		if err == nil {
			c.sendFrame(tagInit, initPayload{Layout: c.hub.layout.layoutName, Cells: c.hub.layout.RenderAll(snapshot)})
		}
	}
	return nil
}

func (c *wsConn) subscribeMw(name string) error {
	mw, ok := c.hub.mwRooms[name]
	if !ok {
		return &RoomNameError{Name: name}
	}
	c.subMw = mw
	c.subID, c.subCh = mw.Subscribe(true)
	return nil
}

func (c *wsConn) subscribeRestream(name string) error {
	rs, ok := c.hub.restreams[name]
	if !ok {
		return &RoomNameError{Name: name}
	}
	c.subRestream = rs
	c.subID, c.subCh = rs.Subscribe(true)
	return nil
}

func (c *wsConn) clickRoom(p clickPayload) error {
	r, ok := c.hub.rooms[p.Room]
	if !ok {
		return &RoomNameError{Name: p.Room}
	}
	if c.hub.layout == nil {
		return &ProtocolError{Detail: "no layout configured"}
	}
	r.MutateSync(func(ms *model.ModelState) {
		_ = c.hub.layout.Click(ms, p.CellID, p.Right)
	})
	return nil
}

func (c *wsConn) clickMw(p clickPayload) error {
	mw, ok := c.hub.mwRooms[p.Room]
	if !ok {
		return &RoomNameError{Name: p.Room}
	}
	if p.World < 1 || p.World > len(mw.Worlds) {
		return &CellIDError{CellID: p.World, Layout: "mw-world"}
	}
	var clickErr error
	phony.Block(mw, func() {
		clickErr = c.hub.layout.Click(mw.Worlds[p.World-1].State, p.CellID, p.Right)
		mw.broadcastLocked()
	})
	return clickErr
}

func (c *wsConn) clickRestream(p clickPayload) error {
	rs, ok := c.hub.restreams[p.Room]
	if !ok {
		return &RoomNameError{Name: p.Room}
	}
	if !rs.Mutate(p.Runner, func(ms *model.ModelState) {
		_ = c.hub.layout.Click(ms, p.CellID, p.Right)
	}) {
		return &ProtocolError{Detail: "unknown runner"}
	}
	return nil
}

func (c *wsConn) mwCreateRoom(p mwCreateRoomPayload) error {
	if p.WorldCount < 1 {
		return &ProtocolError{Detail: "world_count must be at least 1"}
	}
	states := make([]*model.ModelState, p.WorldCount)
	for i := range states {
		states[i] = &model.ModelState{
			Knowledge:  knowledge.New(),
			Ram:        &ram.Ram{Save: save.NewFresh()},
			TrackerCtx: model.NewTrackerCtx(),
		}
	}
	mw, err := NewMwRoom(p.Room, states, 0, c.hub.storage, c.hub.bus, c.hub.log)
	if err != nil {
		return err
	}
	c.hub.mwRooms[p.Room] = mw
	mwRoomCount.Set(float64(len(c.hub.mwRooms)))
	return nil
}

func (c *wsConn) mwResetPlayer(p mwResetPlayerPayload) error {
	mw, ok := c.hub.mwRooms[p.Room]
	if !ok {
		return &RoomNameError{Name: p.Room}
	}
	raw, err := hexDecode(p.SaveHex)
	if err != nil {
		return &ProtocolError{Detail: err.Error()}
	}
	s, err := save.Decode(raw)
	if err != nil {
		return err
	}
	mw.Submit(AutoUpdate{Kind: AutoUpdateReset, World: p.World, NewSave: s})
	return nil
}

func (c *wsConn) mwGetItem(p mwGetItemPayload, all bool) error {
	mw, ok := c.hub.mwRooms[p.Room]
	if !ok {
		return &RoomNameError{Name: p.Room}
	}
	kind := save.MwItemKind(p.ItemKind)
	if all || kind == save.TriforcePiece {
		mw.Submit(AutoUpdate{Kind: AutoUpdateQueue, Item: MwItem{SourceWorld: p.SourceWorld, Key: p.Key, Kind: kind}, TargetWorld: p.SourceWorld})
		return nil
	}
	mw.Submit(AutoUpdate{Kind: AutoUpdateQueue, Item: MwItem{SourceWorld: p.SourceWorld, Key: p.Key, Kind: kind}, TargetWorld: p.TargetWorld})
	return nil
}

func (c *wsConn) sendFrame(tag byte, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame := make([]byte, 5+len(body))
	frame[0] = tag
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(body)))
	copy(frame[5:], body)
	_ = c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (c *wsConn) sendError(msg string) {
	c.sendFrame(tagError, errorPayload{Message: msg})
}

func (c *wsConn) cleanup() {
	if c.subRoom != nil {
		c.subRoom.Unsubscribe(c.subID)
	}
	if c.subMw != nil {
		c.subMw.Unsubscribe(c.subID)
	}
	if c.subRestream != nil {
		c.subRestream.Unsubscribe(c.subID)
	}
	c.conn.Close()
}

func hexDecode(s string) ([]byte, error) {
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, &ProtocolError{Detail: "invalid hex digit"}
	}
}
