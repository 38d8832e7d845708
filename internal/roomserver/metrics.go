// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors dendrite's internal/httputil pattern of a package-level
// CounterVec/Gauge set registered once via sync.Once, here covering
// SPEC_FULL.md §2's "room count, mw broadcast latency, decode error
// counts, websocket client count".
var (
	roomCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oottracker",
		Subsystem: "roomserver",
		Name:      "rooms_open",
		Help:      "Number of single-player rooms currently held in memory.",
	})
	mwRoomCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oottracker",
		Subsystem: "roomserver",
		Name:      "mw_rooms_open",
		Help:      "Number of multiworld rooms currently held in memory.",
	})
	websocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oottracker",
		Subsystem: "roomserver",
		Name:      "websocket_clients",
		Help:      "Number of currently connected WebSocket clients.",
	})
	mwBroadcastLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "oottracker",
		Subsystem: "roomserver",
		Name:      "mw_broadcast_latency_seconds",
		Help:      "Time from an mw item's delay-queue submission to its application across all worlds.",
		Buckets:   prometheus.DefBuckets,
	})
	decodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oottracker",
		Subsystem: "roomserver",
		Name:      "decode_errors_total",
		Help:      "Count of save/RAM decode errors encountered while applying connection packets, by room.",
	}, []string{"room"})
)

var registerMetricsOnce sync.Once

// RegisterMetrics registers this package's Prometheus collectors exactly
// once; safe to call from multiple call sites (cmd/tracker's main, tests).
func RegisterMetrics() {
	registerMetricsOnce.Do(func() {
		prometheus.MustRegister(roomCount, mwRoomCount, websocketClients, mwBroadcastLatency, decodeErrors)
	})
}
