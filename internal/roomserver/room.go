// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"context"
	"time"

	"github.com/Arceliar/phony"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fenhl/oottracker-go/internal/model"
)

// Room is a single-player room (spec.md §4.6): a ModelState, a
// change-notification fan-out, and a last-saved timestamp, mutated only
// through its own phony.Inbox so every write is serialized without an
// explicit mutex (SPEC_FULL.md §3, "Arceliar/phony ... phony Inboxes stand
// in for dendrite's federation actors").
type Room struct {
	phony.Inbox

	Name  string
	state *model.ModelState

	subscribers map[uint64]*subscriber
	nextSubID   uint64

	storage      Storage
	saveInterval time.Duration
	lastSaved    time.Time
	saving       bool

	bus *Bus
	log *logrus.Entry
}

type subscriber struct {
	raw bool
	ch  chan *model.ModelState
}

// NewRoom constructs a Room. name must already satisfy roomNameValid;
// callers that accept names from outside (HTTP handlers) should validate
// with NewRoom's return error instead of duplicating the pattern.
func NewRoom(name string, initial *model.ModelState, storage Storage, saveInterval time.Duration, bus *Bus, log *logrus.Entry) (*Room, error) {
	if !roomNameValid(name) {
		return nil, &RoomNameError{Name: name}
	}
	return &Room{
		Name:         name,
		state:        initial,
		subscribers:  make(map[uint64]*subscriber),
		storage:      storage,
		saveInterval: saveInterval,
		lastSaved:    time.Now(),
		bus:          bus,
		log:          log.WithField("room", name),
	}, nil
}

// Subscribe registers a new subscription and returns its receive channel.
// raw subscribers (§5 "a subscriber observes a strictly increasing
// sequence of model states; no intermediate state is skipped") get a
// large buffer and are dropped on overflow rather than risk blocking the
// room's write actor; layout subscribers coalesce to the latest state.
func (r *Room) Subscribe(raw bool) (id uint64, ch <-chan *model.ModelState) {
	var gotID uint64
	var gotCh chan *model.ModelState
	phony.Block(r, func() {
		r.nextSubID++
		gotID = r.nextSubID
		bufSize := 1
		if raw {
			bufSize = 256
		}
		gotCh = make(chan *model.ModelState, bufSize)
		r.subscribers[gotID] = &subscriber{raw: raw, ch: gotCh}
		// Prime the new subscriber with the current state so it doesn't
		// have to wait for the next mutation to render anything.
		snapshot, err := r.state.Clone()
		if err == nil {
			gotCh <- snapshot
		}
	})
	return gotID, gotCh
}

// Unsubscribe removes and closes a subscriber's channel. Safe to call more
// than once for the same id.
func (r *Room) Unsubscribe(id uint64) {
	phony.Block(r, func() {
		if sub, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(sub.ch)
		}
	})
}

// Mutate runs f against the room's ModelState on the room's own actor
// goroutine, then broadcasts the resulting snapshot to every subscriber
// and persists if the save interval has elapsed. from is the calling
// actor (nil for external callers such as an HTTP handler or connection
// goroutine, which are not themselves phony actors).
func (r *Room) Mutate(from phony.Actor, f func(*model.ModelState)) {
	r.Act(from, func() {
		f(r.state)
		r.broadcastLocked()
		r.maybeSaveLocked()
	})
}

// MutateSync is Mutate but blocks the caller until the mutation (and its
// broadcast) has completed, for call sites that need to observe the
// result synchronously (e.g. a WebSocket click handler replying with the
// new cell value).
func (r *Room) MutateSync(f func(*model.ModelState)) {
	phony.Block(r, func() {
		f(r.state)
		r.broadcastLocked()
		r.maybeSaveLocked()
	})
}

// Snapshot returns a deep-enough copy of the current state, safe for the
// caller to read without racing future mutations.
func (r *Room) Snapshot() (*model.ModelState, error) {
	var out *model.ModelState
	var err error
	phony.Block(r, func() {
		out, err = r.state.Clone()
	})
	return out, err
}

// broadcastLocked must only be called from the room's own actor goroutine.
func (r *Room) broadcastLocked() {
	snapshot, err := r.state.Clone()
	if err != nil {
		if r.log != nil {
			r.log.WithError(err).Error("roomserver: failed to clone state for broadcast")
		}
		return
	}
	for id, sub := range r.subscribers {
		select {
		case sub.ch <- snapshot:
		default:
			if sub.raw {
				delete(r.subscribers, id)
				close(sub.ch)
				continue
			}
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- snapshot:
			default:
			}
		}
	}
	if r.bus != nil {
		r.bus.PublishRoomUpdate(r.Name, snapshot)
	}
}

// maybeSaveLocked persists the room if at least saveInterval has elapsed
// since lastSaved (spec.md §4.6): NewRoom sets it to the construction
// time, and every save attempt resets it whether or not the write
// succeeds. It must only be called
// from the room's own actor goroutine.
func (r *Room) maybeSaveLocked() {
	if r.storage == nil || r.saving || time.Since(r.lastSaved) < r.saveInterval {
		return
	}
	r.persistAsync()
}

// ForceSave bypasses the save-interval threshold (spec.md §4.6's
// "force_save"), used on graceful shutdown to flush every dirty room.
func (r *Room) ForceSave(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "roomserver.ForceSave")
	defer span.Finish()
	span.SetTag("room", r.Name)

	done := make(chan error, 1)
	phony.Block(r, func() {
		if r.storage == nil {
			done <- nil
			return
		}
		snapshot, err := r.state.Clone()
		if err != nil {
			done <- err
			return
		}
		done <- r.storage.SaveRoom(ctx, r.Name, snapshot)
		r.lastSaved = time.Now()
	})
	return <-done
}

// persistAsync snapshots under the actor lock and saves off-actor so a
// slow database write never stalls room mutation; a second save is
// skipped while one is already in flight (r.saving), matching "no two
// writers update the same row concurrently" (spec.md §5).
func (r *Room) persistAsync() {
	snapshot, err := r.state.Clone()
	if err != nil {
		if r.log != nil {
			r.log.WithError(err).Error("roomserver: failed to clone state for persistence")
		}
		return
	}
	r.saving = true
	r.lastSaved = time.Now()
	go func() {
		span, spanCtx := opentracing.StartSpanFromContext(context.Background(), "roomserver.persistAsync")
		span.SetTag("room", r.Name)
		defer span.Finish()

		ctx, cancel := context.WithTimeout(spanCtx, 10*time.Second)
		defer cancel()
		if err := r.storage.SaveRoom(ctx, r.Name, snapshot); err != nil {
			if r.log != nil {
				r.log.WithError(errors.Wrap(err, "roomserver: persisting room")).Error("save failed")
			}
			span.SetTag("error", true)
		}
		r.Act(nil, func() { r.saving = false })
	}()
}
