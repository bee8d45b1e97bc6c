// Package metrics provides observability for the game server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Step metrics
	StepCount      int64
	StepLatencySum int64 // nanoseconds
	StepLatencyMax int64
	LastStepTime   time.Time

	// Event metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64
	eventsByType     map[string]int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64
	WSDropped           int64

	// Sessions
	SessionsWon  int64
	SessionsLost int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// New creates an empty collector.
func New() *Collector {
	return &Collector{
		StartTime:    time.Now(),
		eventsByType: make(map[string]int64),
	}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordStep records a simulation step.
func (c *Collector) RecordStep(latency time.Duration) {
	atomic.AddInt64(&c.StepCount, 1)
	atomic.AddInt64(&c.StepLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.StepLatencyMax) {
		atomic.StoreInt64(&c.StepLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastStepTime = time.Now()
	c.mu.Unlock()
}

// RecordEvent counts a published event by type.
func (c *Collector) RecordEvent(eventType string) {
	c.mu.Lock()
	c.eventsByType[eventType]++
	c.mu.Unlock()
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordWSDrop records a message dropped for a slow client.
func (c *Collector) RecordWSDrop() {
	atomic.AddInt64(&c.WSDropped, 1)
}

// RecordSessionEnd counts a finished session.
func (c *Collector) RecordSessionEnd(won bool) {
	if won {
		atomic.AddInt64(&c.SessionsWon, 1)
	} else {
		atomic.AddInt64(&c.SessionsLost, 1)
	}
}

// EventCounts returns a copy of the per-type event counters.
func (c *Collector) EventCounts() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int64, len(c.eventsByType))
	for k, v := range c.eventsByType {
		out[k] = v
	}
	return out
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	counts := c.EventCounts()

	c.mu.RLock()
	lastStep := c.LastStepTime
	c.mu.RUnlock()

	stepCount := atomic.LoadInt64(&c.StepCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	// Calculate averages
	var stepAvg, eventAvg float64
	if stepCount > 0 {
		stepAvg = float64(atomic.LoadInt64(&c.StepLatencySum)) / float64(stepCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"step": map[string]interface{}{
			"count":          stepCount,
			"avg_latency_ms": stepAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.StepLatencyMax)) / 1e6,
			"last_step":      lastStep.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"by_type":          counts,
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
			"dropped":            atomic.LoadInt64(&c.WSDropped),
		},

		"sessions": map[string]interface{}{
			"won":  atomic.LoadInt64(&c.SessionsWon),
			"lost": atomic.LoadInt64(&c.SessionsLost),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Step metrics
		fmt.Fprintf(w, "# HELP coldfront_step_count Total simulation steps\n")
		fmt.Fprintf(w, "# TYPE coldfront_step_count counter\n")
		fmt.Fprintf(w, "coldfront_step_count %d\n\n", atomic.LoadInt64(&c.StepCount))

		fmt.Fprintf(w, "# HELP coldfront_step_latency_max_ms Maximum step latency\n")
		fmt.Fprintf(w, "# TYPE coldfront_step_latency_max_ms gauge\n")
		fmt.Fprintf(w, "coldfront_step_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.StepLatencyMax))/1e6)

		// Event metrics
		counts := c.EventCounts()
		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Strings(types)

		fmt.Fprintf(w, "# HELP coldfront_events_total Events published by type\n")
		fmt.Fprintf(w, "# TYPE coldfront_events_total counter\n")
		for _, t := range types {
			fmt.Fprintf(w, "coldfront_events_total{type=%q} %d\n", t, counts[t])
		}
		fmt.Fprintln(w)

		fmt.Fprintf(w, "# HELP coldfront_events_written Total events written\n")
		fmt.Fprintf(w, "# TYPE coldfront_events_written counter\n")
		fmt.Fprintf(w, "coldfront_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP coldfront_event_write_errors Total event write errors\n")
		fmt.Fprintf(w, "# TYPE coldfront_event_write_errors counter\n")
		fmt.Fprintf(w, "coldfront_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		// WebSocket metrics
		fmt.Fprintf(w, "# HELP coldfront_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE coldfront_ws_connections gauge\n")
		fmt.Fprintf(w, "coldfront_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP coldfront_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE coldfront_ws_messages_total counter\n")
		fmt.Fprintf(w, "coldfront_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "coldfront_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		// Sessions
		fmt.Fprintf(w, "# HELP coldfront_sessions_total Finished sessions by outcome\n")
		fmt.Fprintf(w, "# TYPE coldfront_sessions_total counter\n")
		fmt.Fprintf(w, "coldfront_sessions_total{outcome=\"won\"} %d\n", atomic.LoadInt64(&c.SessionsWon))
		fmt.Fprintf(w, "coldfront_sessions_total{outcome=\"lost\"} %d\n", atomic.LoadInt64(&c.SessionsLost))
	}
}
