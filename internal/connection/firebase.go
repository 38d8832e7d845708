// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package connection

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/fenhl/oottracker-go/internal/model"
)

// Firebase subscribes to a Firebase Realtime Database REST "streaming"
// endpoint (Server-Sent-Events of put/patch events against a cell-valued
// JSON tree) and can push state back via PUT, per SPEC_FULL.md §4.7's
// "Firebase | yes | subscribes ... ; set_state PUTs".
type Firebase struct {
	BaseURL string // e.g. "https://project.firebaseio.com/trackers/room1"
	Client  *http.Client

	log *logrus.Entry
}

// NewFirebase returns a Firebase connection rooted at baseURL (no
// trailing ".json").
func NewFirebase(baseURL string) *Firebase {
	return &Firebase{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  http.DefaultClient,
		log:     logrus.WithFields(logrus.Fields{"conn_kind": "firebase", "url": baseURL}),
	}
}

func (c *Firebase) Hash() string          { return "firebase:" + c.BaseURL }
func (c *Firebase) CanChangeState() bool { return true }

// SetState PUTs a JSON body holding two fields of ms, ram.currentSceneId
// and ram.save.isAdult, built incrementally with sjson, mirroring how the
// subscription side is read with gjson. No other part of ms (its
// knowledge, the rest of the save, the other RAM ranges) is sent.
func (c *Firebase) SetState(ms *model.ModelState) error {
	body := "{}"
	var err error
	body, err = sjson.Set(body, "ram.currentSceneId", ms.Ram.CurrentSceneID)
	if err != nil {
		return errors.Wrap(err, "connection: building firebase state body")
	}
	body, err = sjson.Set(body, "ram.save.isAdult", ms.Ram.Save.IsAdult)
	if err != nil {
		return errors.Wrap(err, "connection: building firebase state body")
	}

	req, err := http.NewRequest(http.MethodPut, c.BaseURL+".json", strings.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "connection: building firebase PUT request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "connection: firebase PUT failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.Errorf("connection: firebase PUT returned status %d", resp.StatusCode)
	}
	return nil
}

// PacketStream opens the streaming GET and emits one UpdateCell packet per
// SSE "put"/"patch" event, until the response body ends or a read fails.
func (c *Firebase) PacketStream() <-chan Packet {
	out := make(chan Packet)
	go func() {
		defer close(out)
		req, err := http.NewRequest(http.MethodGet, c.BaseURL+".json", nil)
		if err != nil {
			c.log.WithError(err).Error("connection: building firebase stream request")
			return
		}
		req.Header.Set("Accept", "text/event-stream")
		resp, err := c.Client.Do(req)
		if err != nil {
			c.log.WithError(err).Error("connection: firebase stream request failed")
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		var event string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data := strings.TrimPrefix(line, "data: ")
				if event != "put" && event != "patch" {
					continue
				}
				for _, pkt := range parseFirebaseData(data) {
					out <- pkt
				}
			}
		}
		if err := scanner.Err(); err != nil {
			c.log.WithError(err).Warn("connection: firebase stream ended")
		}
	}()
	return out
}

// parseFirebaseData turns one SSE data payload (`{"path":"/a/b","data":...}`)
// into UpdateCell packets: one per direct child of data when data is an
// object (a nested object is passed on whole as that child's value, not
// expanded further), otherwise a single packet for path itself.
func parseFirebaseData(data string) []Packet {
	if !gjson.Valid(data) {
		return nil
	}
	root := gjson.Parse(data)
	path := root.Get("path").String()
	value := root.Get("data")

	var packets []Packet
	if value.IsObject() {
		value.ForEach(func(key, v gjson.Result) bool {
			packets = append(packets, Packet{
				Kind:          PacketUpdateCell,
				UpdateCellID:  fmt.Sprintf("%s/%s", strings.Trim(path, "/"), key.String()),
				UpdateCellVal: v.Value(),
			})
			return true
		})
		return packets
	}
	return []Packet{{
		Kind:          PacketUpdateCell,
		UpdateCellID:  strings.Trim(path, "/"),
		UpdateCellVal: value.Value(),
	}}
}
