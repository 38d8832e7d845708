// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"context"
	"strconv"
	"time"

	"github.com/Arceliar/phony"
	"github.com/sirupsen/logrus"

	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/oot"
	"github.com/fenhl/oottracker-go/internal/save"
)

// MwItem is one item grant crossing between worlds (spec.md §4.6):
// SourceWorld is 1-indexed, Key deduplicates a (source, key) pair across
// redeliveries, Kind is the save-level multiworld item id.
type MwItem struct {
	SourceWorld int
	Key         uint32
	Kind        save.MwItemKind
}

// MwWorld is one ordered world of a multiworld room: its ModelState, the
// queue of items it has received (for display/history), and the set of
// its own items it kept locally (spec.md §4.6).
type MwWorld struct {
	State    *model.ModelState
	Queue    []MwItem
	OwnItems map[uint32]struct{}
}

// AutoUpdateKind tags one of the three autotracker update shapes recovered
// from original_source/mw.rs (SPEC_FULL.md §4 item 4).
type AutoUpdateKind int

const (
	AutoUpdateQueue AutoUpdateKind = iota
	AutoUpdateReset
	AutoUpdateDungeonRewardLocation
)

// AutoUpdate is one event submitted to a mw-room's delay queue.
type AutoUpdate struct {
	Kind AutoUpdateKind

	// AutoUpdateQueue
	Item        MwItem
	TargetWorld int

	// AutoUpdateReset
	World   int
	NewSave *save.Save

	// AutoUpdateDungeonRewardLocation
	Reward   oot.Reward
	Location oot.DungeonRewardLocation
}

type delayEntry struct {
	deadline  time.Time
	update    AutoUpdate
	submitted time.Time
}

// MwRoom is a multiworld room: N ordered worlds, a per-room delay queue
// providing a configurable visual broadcast delay without dropping events
// (spec.md §4.6, §5), and the same subscriber fan-out shape as Room.
// Unlike Room it has no save interval: every applied update persists all
// worlds, unless a previous save is still in flight. All mutation happens on the room's own phony.Inbox so a single
// triforce-piece broadcast touching every world is atomic with respect to
// outside readers (spec.md §5).
type MwRoom struct {
	phony.Inbox

	Name             string
	Worlds           []*MwWorld
	AutotrackerDelay time.Duration

	delayQueue []delayEntry

	subscribers map[uint64]*subscriber
	nextSubID   uint64

	storage   Storage
	lastSaved time.Time
	saving    bool

	bus *Bus
	log *logrus.Entry
}

// NewMwRoom constructs an MwRoom with the given initial per-world states.
func NewMwRoom(name string, initial []*model.ModelState, autotrackerDelay time.Duration, storage Storage, bus *Bus, log *logrus.Entry) (*MwRoom, error) {
	if !roomNameValid(name) {
		return nil, &RoomNameError{Name: name}
	}
	worlds := make([]*MwWorld, len(initial))
	for i, ms := range initial {
		worlds[i] = &MwWorld{State: ms, OwnItems: make(map[uint32]struct{})}
	}
	return &MwRoom{
		Name:             name,
		Worlds:           worlds,
		AutotrackerDelay: autotrackerDelay,
		subscribers:      make(map[uint64]*subscriber),
		storage:          storage,
		bus:              bus,
		log:              log.WithField("room", name),
	}, nil
}

// Subscribe registers a subscriber against the room's combined snapshot
// stream, the same coalescing rules as Room.Subscribe.
func (r *MwRoom) Subscribe(raw bool) (id uint64, ch <-chan *model.ModelState) {
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
	})
	return gotID, gotCh
}

func (r *MwRoom) Unsubscribe(id uint64) {
	phony.Block(r, func() {
		if sub, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			close(sub.ch)
		}
	})
}

// Snapshot returns a deep-enough copy of world w's current state (1-indexed).
func (r *MwRoom) Snapshot(world int) (*model.ModelState, error) {
	var out *model.ModelState
	var err error
	phony.Block(r, func() {
		if world < 1 || world > len(r.Worlds) {
			err = &CellIDError{CellID: world, Layout: "mw-world"}
			return
		}
		out, err = r.Worlds[world-1].State.Clone()
	})
	return out, err
}

// Submit enqueues update with the room's configured delay (spec.md §4.6's
// delay queue). Per-room FIFO order is guaranteed because time.Now() is
// monotonically non-decreasing: every later Submit computes a deadline no
// earlier than one already in the queue, so a plain append-and-sleep-to-head
// loop never needs to resort the queue (Open Question: autotracker delay
// of 0 still goes through this path rather than a fast path, preserving
// ordering per spec.md §9).
func (r *MwRoom) Submit(update AutoUpdate) {
	now := time.Now()
	deadline := now.Add(r.AutotrackerDelay)
	r.Act(nil, func() {
		r.delayQueue = append(r.delayQueue, delayEntry{deadline: deadline, update: update, submitted: now})
		if len(r.delayQueue) == 1 {
			r.scheduleHeadLocked()
		}
	})
}

// scheduleHeadLocked must only be called from the room's own actor
// goroutine, with the queue non-empty.
func (r *MwRoom) scheduleHeadLocked() {
	head := r.delayQueue[0]
	delay := time.Until(head.deadline)
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		r.Act(nil, func() {
			if len(r.delayQueue) == 0 {
				return
			}
			entry := r.delayQueue[0]
			r.delayQueue = r.delayQueue[1:]
			mwBroadcastLatency.Observe(time.Since(entry.submitted).Seconds())
			r.applyAutoUpdateLocked(entry.update)
			if len(r.delayQueue) > 0 {
				r.scheduleHeadLocked()
			}
		})
	})
}

// Flush immediately applies every queued update in submission order,
// bypassing remaining delay (spec.md §5: "on channel close, the tail of
// the queue is flushed in order").
func (r *MwRoom) Flush() {
	phony.Block(r, func() {
		for len(r.delayQueue) > 0 {
			entry := r.delayQueue[0]
			r.delayQueue = r.delayQueue[1:]
			mwBroadcastLatency.Observe(time.Since(entry.submitted).Seconds())
			r.applyAutoUpdateLocked(entry.update)
		}
	})
}

func (r *MwRoom) applyAutoUpdateLocked(u AutoUpdate) {
	switch u.Kind {
	case AutoUpdateQueue:
		r.applyQueueLocked(u.Item, u.TargetWorld)
	case AutoUpdateReset:
		r.applyResetLocked(u.World, u.NewSave)
	case AutoUpdateDungeonRewardLocation:
		r.applyDungeonRewardLocationLocked(u.World, u.Reward, u.Location)
	}
	r.broadcastLocked()
	r.maybeSaveAllLocked()
}

// applyQueueLocked implements spec.md §4.6's "Multiworld item handling":
// a triforce piece (kind 0x00ca) is credited to every world; every other
// item is deduplicated by (source, key) and either queued for the target
// world or recorded as the source world's own item.
func (r *MwRoom) applyQueueLocked(item MwItem, targetWorld int) {
	if item.Kind == save.TriforcePiece {
		for i, w := range r.Worlds {
			_ = w.State.Ram.Save.RecvMwItem(item.Kind) // TriforcePiece is always a known id
			if i+1 == item.SourceWorld {
				w.OwnItems[item.Key] = struct{}{}
			} else {
				w.Queue = append(w.Queue, item)
			}
		}
		return
	}
	if item.SourceWorld < 1 || item.SourceWorld > len(r.Worlds) || targetWorld < 1 || targetWorld > len(r.Worlds) {
		return
	}
	if item.SourceWorld != targetWorld {
		target := r.Worlds[targetWorld-1]
		for _, q := range target.Queue {
			if q.SourceWorld == item.SourceWorld && q.Key == item.Key {
				return // already queued, spec.md's "not already in queue"
			}
		}
		target.Queue = append(target.Queue, item)
		if err := target.State.Ram.Save.RecvMwItem(item.Kind); err != nil && r.log != nil {
			r.log.WithError(err).WithField("world", targetWorld).Warn("roomserver: unknown mw item grant")
		}
		return
	}
	source := r.Worlds[item.SourceWorld-1]
	source.OwnItems[item.Key] = struct{}{}
}

// applyResetLocked replaces a world's save with newSave, then re-applies
// any already-queued items beyond the new save's own receive counter,
// preserving monotonicity (spec.md §4.6's Reset semantics).
func (r *MwRoom) applyResetLocked(worldNum int, newSave *save.Save) {
	if worldNum < 1 || worldNum > len(r.Worlds) || newSave == nil {
		return
	}
	w := r.Worlds[worldNum-1]
	w.State.Ram.Save = newSave
	for i := int(newSave.InvAmounts.NumReceivedMwItems); i < len(w.Queue); i++ {
		_ = w.State.Ram.Save.RecvMwItem(w.Queue[i].Kind)
	}
}

func (r *MwRoom) applyDungeonRewardLocationLocked(worldNum int, reward oot.Reward, location oot.DungeonRewardLocation) {
	if worldNum < 1 || worldNum > len(r.Worlds) {
		return
	}
	loc := location
	r.Worlds[worldNum-1].State.Knowledge.RewardLocation[reward] = &loc
}

func (r *MwRoom) broadcastLocked() {
	if len(r.subscribers) == 0 && r.bus == nil {
		return
	}
	// The room server reports the first world's snapshot to "raw" and
	// layout-less subscribers; per-world cell reads go through the
	// websocket handler's own Snapshot(world) call instead.
	var headSnapshot *model.ModelState
	if len(r.Worlds) > 0 {
		headSnapshot, _ = r.Worlds[0].State.Clone()
	}
	for id, sub := range r.subscribers {
		if headSnapshot == nil {
			continue
		}
		select {
		case sub.ch <- headSnapshot:
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
			case sub.ch <- headSnapshot:
			default:
			}
		}
	}
	if r.bus != nil && headSnapshot != nil {
		r.bus.PublishRoomUpdate(r.Name, headSnapshot)
	}
}

func (r *MwRoom) maybeSaveAllLocked() {
	if r.storage == nil || r.saving {
		return
	}
	r.saving = true
	snapshots := make([]*model.ModelState, len(r.Worlds))
	for i, w := range r.Worlds {
		snapshots[i], _ = w.State.Clone()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for i, snap := range snapshots {
			if snap == nil {
				continue
			}
			worldRoomName := r.Name + "/" + strconv.Itoa(i+1)
			if err := r.storage.SaveRoom(ctx, worldRoomName, snap); err != nil && r.log != nil {
				r.log.WithError(err).WithField("world", i+1).Error("roomserver: mw world persist failed")
			}
		}
		r.Act(nil, func() { r.saving = false })
	}()
}
