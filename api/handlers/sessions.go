package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/session"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// SessionHandler serves session CRUD over the pluggable session.Store,
// grounded on apikey.go's decode-validate-call-store-respond shape.
type SessionHandler struct {
	store  session.Store
	logger *zap.Logger
}

// NewSessionHandler builds a handler backed by store.
func NewSessionHandler(store session.Store, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{store: store, logger: logger}
}

type createSessionResponse struct {
	ID string `json:"id"`
}

// HandleCreate serves POST /sessions.
// @Summary Create a session
// @Tags sessions
// @Produce json
// @Success 201 {object} Response{data=createSessionResponse} "Created session"
// @Router /sessions [post]
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	if _, err := h.store.Create(r.Context(), id); err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "failed to create session", h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: createSessionResponse{ID: id}})
}

// HandleList serves GET /sessions.
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} Response{data=[]session.Session} "Sessions"
// @Router /sessions [get]
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	sessions, err := h.store.List(r.Context(), limit, offset)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "failed to list sessions", h.logger)
		return
	}
	WriteSuccess(w, sessions)
}

// HandleGet serves GET /sessions/{id}.
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Success 200 {object} Response{data=session.Session} "Session"
// @Failure 404 {object} Response "Session not found"
// @Router /sessions/{id} [get]
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := sessionIDFromPath(r.URL.Path)
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "session id is required", h.logger)
		return
	}

	sess, err := h.store.Get(r.Context(), id)
	if err == session.ErrNotFound {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrModelNotFound, "session not found", h.logger)
		return
	}
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "failed to get session", h.logger)
		return
	}
	WriteSuccess(w, sess)
}

// HandleDelete serves DELETE /sessions/{id}.
// @Summary Delete a session
// @Tags sessions
// @Success 204 "Deleted"
// @Router /sessions/{id} [delete]
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := sessionIDFromPath(r.URL.Path)
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "session id is required", h.logger)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "failed to delete session", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionIDFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-1]
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
