// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenhl/oottracker-go/internal/model"
)

// memStorage is a Storage fake that records every SaveRoom call, letting
// tests assert persistence behavior without a real database.
type memStorage struct {
	mu    sync.Mutex
	saved map[string]*model.ModelState
	calls int
}

func newMemStorage() *memStorage {
	return &memStorage{saved: make(map[string]*model.ModelState)}
}

func (s *memStorage) SaveRoom(_ context.Context, name string, state *model.ModelState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.saved[name] = state
	return nil
}
func (s *memStorage) LoadRoom(context.Context, string) (*model.ModelState, error) {
	return nil, assert.AnError
}
func (s *memStorage) DeleteRoom(context.Context, string) error     { return nil }
func (s *memStorage) ListRoomNames(context.Context) ([]string, error) { return nil, nil }
func (s *memStorage) Close() error                                  { return nil }

func (s *memStorage) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestNewRoomRejectsInvalidName(t *testing.T) {
	_, err := NewRoom("Not Valid!", freshModelState(), nil, time.Minute, nil, testLog())
	var nameErr *RoomNameError
	require.ErrorAs(t, err, &nameErr)
}

func TestRoomSubscribePrimesCurrentState(t *testing.T) {
	r, err := NewRoom("my-room", freshModelState(), nil, time.Minute, nil, testLog())
	require.NoError(t, err)

	_, ch := r.Subscribe(true)
	select {
	case ms := <-ch:
		require.NotNil(t, ms)
	case <-time.After(time.Second):
		t.Fatal("subscriber was not primed with the current state")
	}
}

func TestRoomMutateBroadcastsToSubscribers(t *testing.T) {
	r, err := NewRoom("my-room", freshModelState(), nil, time.Minute, nil, testLog())
	require.NoError(t, err)

	_, ch := r.Subscribe(true)
	<-ch // drain the priming snapshot

	r.Mutate(nil, func(ms *model.ModelState) {
		ms.Ram.Save.Equipment.Set(3, true) // arbitrary mutation, value unimportant
	})

	select {
	case ms := <-ch:
		require.NotNil(t, ms)
	case <-time.After(time.Second):
		t.Fatal("mutation was never broadcast")
	}
}

func TestRoomUnsubscribeClosesChannel(t *testing.T) {
	r, err := NewRoom("my-room", freshModelState(), nil, time.Minute, nil, testLog())
	require.NoError(t, err)

	id, ch := r.Subscribe(true)
	<-ch
	r.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestRoomForceSavePersistsImmediately(t *testing.T) {
	storage := newMemStorage()
	r, err := NewRoom("my-room", freshModelState(), storage, time.Hour, nil, testLog())
	require.NoError(t, err)

	require.NoError(t, r.ForceSave(context.Background()))
	assert.Equal(t, 1, storage.callCount())
}

func TestRoomMutateDoesNotSaveBeforeInterval(t *testing.T) {
	storage := newMemStorage()
	r, err := NewRoom("my-room", freshModelState(), storage, time.Hour, nil, testLog())
	require.NoError(t, err)

	r.MutateSync(func(ms *model.ModelState) {
		ms.Ram.Save.Equipment.Set(3, true)
	})
	assert.Equal(t, 0, storage.callCount())
}
