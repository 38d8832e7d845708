// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package connection

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/ram"
	"github.com/fenhl/oottracker-go/internal/save"
)

func freshModelStateForFirebaseTest() *model.ModelState {
	return &model.ModelState{Ram: &ram.Ram{Save: save.NewFresh()}, TrackerCtx: model.NewTrackerCtx()}
}

func TestParseFirebaseDataLeaf(t *testing.T) {
	pkts := parseFirebaseData(`{"path":"/cells/bombs","data":true}`)
	require.Len(t, pkts, 1)
	assert.Equal(t, PacketUpdateCell, pkts[0].Kind)
	assert.Equal(t, "cells/bombs", pkts[0].UpdateCellID)
	assert.Equal(t, true, pkts[0].UpdateCellVal)
}

func TestParseFirebaseDataObjectExpandsPerLeaf(t *testing.T) {
	pkts := parseFirebaseData(`{"path":"/cells","data":{"bombs":true,"sword":false}}`)
	require.Len(t, pkts, 2)
	ids := map[string]bool{}
	for _, p := range pkts {
		ids[p.UpdateCellID] = true
	}
	assert.True(t, ids["cells/bombs"])
	assert.True(t, ids["cells/sword"])
}

func TestParseFirebaseDataInvalidJSONIsIgnored(t *testing.T) {
	assert.Nil(t, parseFirebaseData("not json"))
}

func TestFirebaseHashIncludesURL(t *testing.T) {
	c := NewFirebase("https://example.firebaseio.com/room1/")
	assert.Equal(t, "firebase:https://example.firebaseio.com/room1", c.Hash())
	assert.True(t, c.CanChangeState())
}

func TestFirebaseSetStateSurfacesNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewFirebase(srv.URL)
	err := c.SetState(freshModelStateForFirebaseTest())
	assert.Error(t, err)
}

func TestFirebaseSetStatePUTsBody(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewFirebase(srv.URL)
	require.NoError(t, c.SetState(freshModelStateForFirebaseTest()))
	assert.Equal(t, http.MethodPut, gotMethod)
}
