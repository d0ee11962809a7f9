package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/AaronLay10/SentientUI/internal/version"
)

// Metrics state
var (
	metricsState = &MetricsState{}
)

// MetricsState holds runtime metrics for the /metrics endpoint.
type MetricsState struct {
	mu        sync.RWMutex
	startTime time.Time
	appID     string

	renders        atomic.Uint64
	dispatches     atomic.Uint64
	dispatchErrors atomic.Uint64
}

// InitMetrics initializes the metrics system. Must be called at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
}

// SetAppID sets the app label on every metric.
func SetAppID(id string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.appID = id
}

// GetAppID returns the current app label.
func GetAppID() string {
	metricsState.mu.RLock()
	defer metricsState.mu.RUnlock()
	return metricsState.appID
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricsHandler returns Prometheus-compatible metrics in text format.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	metricsState.mu.RLock()
	startTime := metricsState.startTime
	appID := metricsState.appID
	metricsState.mu.RUnlock()

	uptime := time.Since(startTime).Seconds()

	readiness.mu.RLock()
	registryReady := readiness.registryReady
	mqttConnected := readiness.mqttConnected
	postgresConnected := readiness.postgresConnected
	readiness.mu.RUnlock()

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	writeMetric := func(name, mtype, help string, value interface{}, labels string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		if labels != "" {
			fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
		} else {
			fmt.Fprintf(w, "%s %v\n", name, value)
		}
	}

	labels := fmt.Sprintf(`app="%s",instance="%s",version="%s"`, appID, hostname, version.Version)

	writeMetric("sdui_uptime_seconds", "gauge",
		"Number of seconds since the host started", uptime, labels)
	writeMetric("sdui_registry_ready", "gauge",
		"Whether the component registry is built (1) or not (0)", boolGauge(registryReady), labels)
	writeMetric("sdui_registry_components", "gauge",
		"Number of registered component types", len(s.deps.Registry), labels)
	writeMetric("sdui_screens_cached", "gauge",
		"Number of screens in the screen store", s.store.Len(), labels)
	writeMetric("sdui_sessions_active", "gauge",
		"Number of sessions held in memory", s.deps.Sessions.Len(), labels)
	writeMetric("sdui_renders_total", "counter",
		"Total number of screens and lists rendered over HTTP", metricsState.renders.Load(), labels)
	writeMetric("sdui_dispatches_total", "counter",
		"Total number of actions dispatched over HTTP", metricsState.dispatches.Load(), labels)
	writeMetric("sdui_dispatch_errors_total", "counter",
		"Total number of dispatches that returned an error", metricsState.dispatchErrors.Load(), labels)
	writeMetric("sdui_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount(), labels)
	writeMetric("sdui_mqtt_connected", "gauge",
		"Whether MQTT broker is connected (1) or not (0)", boolGauge(mqttConnected), labels)
	writeMetric("sdui_postgres_connected", "gauge",
		"Whether PostgreSQL is connected (1) or not (0)", boolGauge(postgresConnected), labels)
	writeMetric("sdui_ws_clients", "gauge",
		"Number of active WebSocket client connections", events.SubscriberCount(), labels)
	writeMetric("sdui_ws_dropped_total", "counter",
		"Total number of events skipped for slow WebSocket clients", events.DroppedCount(), labels)
}
