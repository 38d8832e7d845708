// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/ram"
	"github.com/fenhl/oottracker-go/internal/save"
)

// NewRouter builds the external HTTP surface (spec.md §6.5's REST
// endpoints plus the WebSocket upgrade), mirroring dendrite's
// PathPrefix-per-concern router assembly in
// contrib/dendrite-demo-embedded/server.go.
func NewRouter(h *Hub, saveInterval time.Duration) *mux.Router {
	r := mux.NewRouter().SkipClean(true).UseEncodedPath()
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.ServeWS)
	r.HandleFunc("/rooms", h.handleListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{name}", h.handleCreateRoom(saveInterval)).Methods(http.MethodPut)
	r.HandleFunc("/rooms/{name}", h.handleGetRoomSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{name}", h.handleDeleteRoom).Methods(http.MethodDelete)
	r.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	return r
}

type statsPayload struct {
	Rooms            int   `json:"rooms"`
	MwRooms          int   `json:"mw_rooms"`
	WebsocketClients int64 `json:"websocket_clients"`
}

func (h *Hub) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsPayload{
		Rooms:            len(h.rooms),
		MwRooms:          len(h.mwRooms),
		WebsocketClients: h.ClientCount(),
	})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleListRooms reports every room name the Hub currently holds in
// memory (storage.ListRoomNames covers rooms persisted but not loaded).
func (h *Hub) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(h.rooms)+len(h.mwRooms))
	for name := range h.rooms {
		names = append(names, name)
	}
	for name := range h.mwRooms {
		names = append(names, name)
	}
	writeJSON(w, http.StatusOK, names)
}

// handleCreateRoom creates a single-player room with a fresh vanilla
// ModelState if it doesn't already exist (idempotent PUT, spec.md §6.5).
func (h *Hub) handleCreateRoom(saveInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		name := mux.Vars(req)["name"]
		_, err := h.RoomOrCreate(name, saveInterval, func() *model.ModelState {
			return &model.ModelState{
				Knowledge:  knowledge.New(),
				Ram:        &ram.Ram{Save: save.NewFresh()},
				TrackerCtx: model.NewTrackerCtx(),
			}
		})
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func (h *Hub) handleGetRoomSnapshot(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	r, ok := h.rooms[name]
	if !ok {
		writeError(w, &RoomNameError{Name: name})
		return
	}
	snapshot, err := r.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	cells := []RenderedCell(nil)
	if h.layout != nil {
		cells = h.layout.RenderAll(snapshot)
	}
	writeJSON(w, http.StatusOK, initPayload{Layout: layoutName(h.layout), Cells: cells})
}

func (h *Hub) handleDeleteRoom(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]
	delete(h.rooms, name)
	delete(h.mwRooms, name)
	if h.storage != nil {
		if err := h.storage.DeleteRoom(req.Context(), name); err != nil {
			writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func layoutName(reg *CellRegistry) string {
	if reg == nil {
		return ""
	}
	return reg.layoutName
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch err.(type) {
	case *RoomNameError, *CellIDError:
		status = http.StatusNotFound
	case *ProtocolError, *CannotChangeStateError:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
