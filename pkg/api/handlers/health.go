package handlers

import (
	"net/http"

	"github.com/lodestone-io/lodestone/pkg/engine"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	engine *engine.Engine
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(eng *engine.Engine) *HealthHandler {
	return &HealthHandler{engine: eng}
}

// Liveness handles GET /health.
// Returns 200 as long as the process is serving requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"state": h.engine.State().String(),
	}))
}

// Readiness handles GET /health/ready.
// Returns 200 only while the engine is running; a draining or stopped
// engine reports 503 so load balancers stop routing to it.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	state := h.engine.State()
	if state != engine.StateRunning {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("engine is "+state.String()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"state": state.String(),
		"live":  h.engine.LiveRepositories(),
	}))
}
