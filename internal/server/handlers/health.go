package handlers

import "net/http"

// Ping answers the replication heartbeat and doubles as a liveness check.
// GET /api/v1/ping
func (h *Handler) Ping(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
