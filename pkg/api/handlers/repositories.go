package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lodestone-io/lodestone/pkg/engine"
	"github.com/lodestone-io/lodestone/pkg/repository"
)

// RepositoryHandler handles repository inspection and session endpoints.
type RepositoryHandler struct {
	engine *engine.Engine
}

// NewRepositoryHandler creates a new RepositoryHandler.
func NewRepositoryHandler(eng *engine.Engine) *RepositoryHandler {
	return &RepositoryHandler{engine: eng}
}

// RepositoryResponse is the response body for GET /api/v1/repositories/{name}.
type RepositoryResponse struct {
	Name        string            `json:"name"`
	SourceName  string            `json:"source_name"`
	Options     map[string]string `json:"options,omitempty"`
	Descriptors map[string]string `json:"descriptors,omitempty"`
	Live        bool              `json:"live"`
}

// SessionResponse is the response body for session creation.
type SessionResponse struct {
	SessionID  string `json:"session_id"`
	Repository string `json:"repository"`
}

// LockRequest is the request body for lock acquisition.
type LockRequest struct {
	Key string `json:"key"`
}

// LockResponse is the response body for lock endpoints.
type LockResponse struct {
	LockID    string    `json:"lock_id"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// List handles GET /api/v1/repositories.
func (h *RepositoryHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.engine.GetRepositoryNames(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	WriteJSONOK(w, names)
}

// Get handles GET /api/v1/repositories/{name}.
// Resolution is read-only: inspecting a repository never constructs it.
func (h *RepositoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	desc, err := h.engine.ResolveDescriptor(r.Context(), name)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	options := make(map[string]string, len(desc.Options))
	for key, value := range desc.Options {
		options[string(key)] = value
	}

	live := false
	for _, liveName := range h.engine.LiveRepositories() {
		if liveName == name {
			live = true
			break
		}
	}

	WriteJSONOK(w, RepositoryResponse{
		Name:        desc.Name,
		SourceName:  desc.SourceName,
		Options:     options,
		Descriptors: desc.Descriptors,
		Live:        live,
	})
}

// Namespaces handles GET /api/v1/repositories/{name}/namespaces.
// Bindings are read from the configuration graph at request time.
func (h *RepositoryHandler) Namespaces(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	desc, err := h.engine.ResolveDescriptor(r.Context(), name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if desc.Namespaces == nil {
		WriteJSONOK(w, map[string]string{})
		return
	}

	bindings, err := desc.Namespaces.Bindings(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to read namespace bindings")
		return
	}
	WriteJSONOK(w, bindings)
}

// CreateSession handles POST /api/v1/repositories/{name}/sessions.
// This constructs the repository on first use.
func (h *RepositoryHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	repo, err := h.engine.GetRepository(r.Context(), name)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	session, err := repo.Login(r.Context())
	if err != nil {
		writeRepositoryError(w, err)
		return
	}

	WriteJSONCreated(w, SessionResponse{
		SessionID:  session.ID(),
		Repository: name,
	})
}

// DeleteSession handles DELETE /api/v1/repositories/{name}/sessions/{sid}.
func (h *RepositoryHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	session.Logout()
	WriteJSONNoContent(w)
}

// AcquireLock handles POST .../sessions/{sid}/locks.
func (h *RepositoryHandler) AcquireLock(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req LockRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Key == "" {
		BadRequest(w, "Lock key is required")
		return
	}

	lock, err := session.Lock(r.Context(), req.Key)
	if err != nil {
		writeRepositoryError(w, err)
		return
	}

	WriteJSONCreated(w, LockResponse{
		LockID:    lock.ID,
		Key:       lock.Key,
		ExpiresAt: lock.ExpiresAt,
	})
}

// RefreshLock handles POST .../sessions/{sid}/locks/{lid}/refresh.
func (h *RepositoryHandler) RefreshLock(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	if err := session.RefreshLock(r.Context(), chi.URLParam(r, "lid")); err != nil {
		writeRepositoryError(w, err)
		return
	}
	WriteJSONNoContent(w)
}

// ReleaseLock handles DELETE .../sessions/{sid}/locks/{lid}.
func (h *RepositoryHandler) ReleaseLock(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	if err := session.Unlock(r.Context(), chi.URLParam(r, "lid")); err != nil {
		writeRepositoryError(w, err)
		return
	}
	WriteJSONNoContent(w)
}

// lookupSession resolves the {name} and {sid} URL parameters to a live
// session, writing a problem response on failure.
func (h *RepositoryHandler) lookupSession(w http.ResponseWriter, r *http.Request) (*repository.Session, bool) {
	name := chi.URLParam(r, "name")

	repo, err := h.engine.GetRepository(r.Context(), name)
	if err != nil {
		writeEngineError(w, err)
		return nil, false
	}

	session, ok := repo.Session(chi.URLParam(r, "sid"))
	if !ok {
		NotFound(w, "Session not found")
		return nil, false
	}
	return session, true
}

// writeEngineError maps engine errors to problem responses.
func writeEngineError(w http.ResponseWriter, err error) {
	var cfgErr *engine.ConfigurationError
	var conErr *engine.ConstructionError

	switch {
	case errors.Is(err, engine.ErrInvalidName):
		BadRequest(w, err.Error())
	case errors.Is(err, engine.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, engine.ErrNotRunning):
		ServiceUnavailable(w, err.Error())
	case errors.As(err, &cfgErr):
		UnprocessableEntity(w, err.Error())
	case errors.As(err, &conErr):
		InternalServerError(w, err.Error())
	default:
		InternalServerError(w, err.Error())
	}
}

// writeRepositoryError maps repository and session errors to problem
// responses.
func writeRepositoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrLockConflict):
		Conflict(w, err.Error())
	case errors.Is(err, repository.ErrLockNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, repository.ErrSessionClosed),
		errors.Is(err, repository.ErrRepositoryClosed):
		Gone(w, err.Error())
	default:
		InternalServerError(w, err.Error())
	}
}
