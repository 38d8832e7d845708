// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"github.com/Arceliar/phony"

	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/model"
)

// RunnerState is one runner's (Knowledge, ModelState) pair within a
// Restream (spec.md §4.6).
type RunnerState struct {
	Runner    string
	Knowledge *knowledge.Knowledge
	State     *model.ModelState
}

// Restream is keyed by restreamer name and groups per-runner states into
// "worlds" for a multi-runner race/relay overlay. It repeats Room's
// broadcast/subscribe logic, with one subscriber set shared by all runner
// slots, since a restream's write pattern (one connection feeding one runner
// slot) is identical to a single-player room's.
type Restream struct {
	phony.Inbox

	Name    string
	Runners map[string]*RunnerState

	subscribers map[uint64]*subscriber
	nextSubID   uint64
}

// NewRestream constructs an empty Restream keyed by name.
func NewRestream(name string) (*Restream, error) {
	if !roomNameValid(name) {
		return nil, &RoomNameError{Name: name}
	}
	return &Restream{
		Name:        name,
		Runners:     make(map[string]*RunnerState),
		subscribers: make(map[uint64]*subscriber),
	}, nil
}

// AddRunner registers a runner slot, replacing any existing entry with the
// same name.
func (rs *Restream) AddRunner(runner string, k *knowledge.Knowledge, ms *model.ModelState) {
	phony.Block(rs, func() {
		rs.Runners[runner] = &RunnerState{Runner: runner, Knowledge: k, State: ms}
		rs.broadcastLocked(ms)
	})
}

// Mutate runs f against runner's ModelState, broadcasting the change.
// Returns false if runner has no registered slot.
func (rs *Restream) Mutate(runner string, f func(*model.ModelState)) bool {
	ok := false
	phony.Block(rs, func() {
		r, found := rs.Runners[runner]
		if !found {
			return
		}
		ok = true
		f(r.State)
		rs.broadcastLocked(r.State)
	})
	return ok
}

func (rs *Restream) Subscribe(raw bool) (id uint64, ch <-chan *model.ModelState) {
	var gotID uint64
	var gotCh chan *model.ModelState
	phony.Block(rs, func() {
		rs.nextSubID++
		gotID = rs.nextSubID
		bufSize := 1
		if raw {
			bufSize = 256
		}
		gotCh = make(chan *model.ModelState, bufSize)
		rs.subscribers[gotID] = &subscriber{raw: raw, ch: gotCh}
	})
	return gotID, gotCh
}

func (rs *Restream) Unsubscribe(id uint64) {
	phony.Block(rs, func() {
		if sub, ok := rs.subscribers[id]; ok {
			delete(rs.subscribers, id)
			close(sub.ch)
		}
	})
}

// broadcastLocked fans out the most recently mutated runner's state; a
// double-restream UI (SubscribeDoubleRestream, §6.4) instead calls
// Runners directly to render two runners side by side.
func (rs *Restream) broadcastLocked(latest *model.ModelState) {
	for id, sub := range rs.subscribers {
		if latest == nil {
			continue
		}
		snapshot, err := latest.Clone()
		if err != nil {
			continue
		}
		select {
		case sub.ch <- snapshot:
		default:
			if sub.raw {
				delete(rs.subscribers, id)
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
}
