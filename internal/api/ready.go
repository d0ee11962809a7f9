package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

// readinessState tracks the dependencies /ready reports on.
type readinessState struct {
	mu                sync.RWMutex
	registryReady     bool
	mqttConnected     bool
	mqttOptional      bool
	postgresConnected bool
	postgresOptional  bool
}

var readiness = &readinessState{}

// CheckResult is the status of one readiness dependency.
type CheckResult struct {
	Status   string `json:"status"` // ok, not_ready, unavailable
	Optional bool   `json:"optional,omitempty"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckResult `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

// SetRegistryReady marks whether the component registry snapshot is built.
func SetRegistryReady(ready bool) {
	readiness.mu.Lock()
	readiness.registryReady = ready
	readiness.mu.Unlock()
}

// SetMQTTState records the broker connection state. An optional broker never
// blocks readiness.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
	readiness.mu.Unlock()
}

// SetPostgresState records the database connection state.
func SetPostgresState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.postgresConnected = connected
	readiness.postgresOptional = optional
	readiness.mu.Unlock()
}

func dependencyCheck(connected, optional bool) CheckResult {
	switch {
	case connected:
		return CheckResult{Status: "ok", Optional: optional}
	case optional:
		return CheckResult{Status: "unavailable", Optional: true}
	default:
		return CheckResult{Status: "not_ready"}
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	registryReady := readiness.registryReady
	mqtt := dependencyCheck(readiness.mqttConnected, readiness.mqttOptional)
	pg := dependencyCheck(readiness.postgresConnected, readiness.postgresOptional)
	readiness.mu.RUnlock()

	resp := ReadinessResponse{
		Ready:  true,
		Checks: map[string]CheckResult{"mqtt": mqtt, "postgres": pg},
	}

	var reasons []string
	if registryReady {
		resp.Checks["registry"] = CheckResult{Status: "ok"}
	} else {
		resp.Checks["registry"] = CheckResult{Status: "not_ready"}
		reasons = append(reasons, "component registry not built")
	}
	if mqtt.Status == "not_ready" {
		reasons = append(reasons, "mqtt not connected")
	}
	if pg.Status == "not_ready" {
		reasons = append(reasons, "postgres not connected")
	}

	w.Header().Set("Content-Type", "application/json")
	if len(reasons) > 0 {
		resp.Ready = false
		resp.NotReadyMsg = strings.Join(reasons, "; ")
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
