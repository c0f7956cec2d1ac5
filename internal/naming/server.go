// Package naming implements the discovery service that maps logical server
// paths to URIs, plus the client the servers and CLI use to talk to it.
// Replicas register themselves under well-known paths ("/cofre/server" for
// the primary, "/cofre/server/backup" for the backup) and clients resolve
// the primary before every connection attempt.
package naming

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/nfaria/cofre/pkg/api"
)

// Well-known registry paths for the file-server replicas.
const (
	PrimaryPath = "/cofre/server"
	BackupPath  = "/cofre/server/backup"
)

// Registry is the in-memory path-to-URI table served over HTTP. Bindings do
// not survive a restart; servers re-register on startup.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]string
	log      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		bindings: make(map[string]string),
		log:      logger,
	}
}

// Bind registers a URI under a path. Returns false if the path is taken.
func (reg *Registry) Bind(path, uri string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, bound := reg.bindings[path]; bound {
		return false
	}
	reg.bindings[path] = uri
	return true
}

// Rebind registers a URI under a path, replacing any existing binding.
func (reg *Registry) Rebind(path, uri string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.bindings[path] = uri
}

// Unbind removes the binding for path, but only when the caller names the
// currently bound URI. A stale unbind from a server that was already
// replaced must not take down its successor's binding.
func (reg *Registry) Unbind(path, uri string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.bindings[path] != uri {
		return false
	}
	delete(reg.bindings, path)
	return true
}

// Lookup resolves a path to its bound URI.
func (reg *Registry) Lookup(path string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	uri, ok := reg.bindings[path]
	return uri, ok
}

// Handler returns the registry's HTTP mux.
func (reg *Registry) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /naming/bind", reg.handleBind)
	mux.HandleFunc("POST /naming/rebind", reg.handleRebind)
	mux.HandleFunc("POST /naming/unbind", reg.handleUnbind)
	mux.HandleFunc("GET /naming/lookup", reg.handleLookup)
	return mux
}

func (reg *Registry) handleBind(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBindRequest(w, r)
	if !ok {
		return
	}

	if !reg.Bind(req.Path, req.URI) {
		writeJSON(w, http.StatusConflict, api.ErrorResponse{
			Error:   "already_bound",
			Message: "path is already bound; use rebind to replace",
		})
		return
	}

	reg.log.Info("bound", "path", req.Path, "uri", req.URI)
	writeJSON(w, http.StatusCreated, api.LookupResponse{Path: req.Path, URI: req.URI})
}

func (reg *Registry) handleRebind(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBindRequest(w, r)
	if !ok {
		return
	}

	reg.Rebind(req.Path, req.URI)
	reg.log.Info("rebound", "path", req.Path, "uri", req.URI)
	writeJSON(w, http.StatusOK, api.LookupResponse{Path: req.Path, URI: req.URI})
}

func (reg *Registry) handleUnbind(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBindRequest(w, r)
	if !ok {
		return
	}

	if !reg.Unbind(req.Path, req.URI) {
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{
			Error:   "not_bound",
			Message: "path is not bound to that uri",
		})
		return
	}

	reg.log.Info("unbound", "path", req.Path)
	w.WriteHeader(http.StatusNoContent)
}

func (reg *Registry) handleLookup(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	uri, ok := reg.Lookup(path)
	if !ok {
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{
			Error:   "not_bound",
			Message: "no server bound at this path",
		})
		return
	}

	writeJSON(w, http.StatusOK, api.LookupResponse{Path: path, URI: uri})
}

func decodeBindRequest(w http.ResponseWriter, r *http.Request) (api.BindRequest, bool) {
	var req api.BindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error:   "bad_request",
			Message: "path and uri are required",
		})
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
