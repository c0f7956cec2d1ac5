package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nfaria/cofre/pkg/api"
)

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func sendError(w http.ResponseWriter, status int, code, message string) {
	sendJSON(w, status, api.ErrorResponse{Error: code, Message: message})
}
