package handlers

import (
	"context"
	"time"

	"net/http"

	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/pipeline"
	"github.com/Trafexofive/DeepSearchStack/session"
	"github.com/Trafexofive/DeepSearchStack/transport"
	"github.com/Trafexofive/DeepSearchStack/types"
)

// DeepSearchHandler serves the streaming and quick variants of the deep
// search endpoint, grounded on ChatHandler's Content-Type validation and
// request-decoding sequencing but fanning the request out to the
// orchestrator rather than a single LLM call.
type DeepSearchHandler struct {
	orchestrator *pipeline.Orchestrator
	sessions     session.Store
	logger       *zap.Logger
}

// NewDeepSearchHandler builds a handler backed by orchestrator. sessions
// may be nil when session persistence is disabled.
func NewDeepSearchHandler(orchestrator *pipeline.Orchestrator, sessions session.Store, logger *zap.Logger) *DeepSearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeepSearchHandler{orchestrator: orchestrator, sessions: sessions, logger: logger}
}

// HandleStream serves POST /deepsearch: runs the pipeline and streams its
// events as SSE.
// @Summary Streaming deep search
// @Description Run the search/scrape/retrieve/synthesize pipeline and stream progress over SSE
// @Tags deepsearch
// @Accept json
// @Produce text/event-stream
// @Param request body types.DeepSearchRequest true "Deep search request"
// @Success 200 {string} string "SSE event stream"
// @Failure 400 {object} Response "Invalid request"
// @Router /deepsearch [post]
func (h *DeepSearchHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req types.DeepSearchRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Query == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "query is required", h.logger)
		return
	}

	h.ensureSession(r.Context(), req.SessionID)

	events := h.orchestrator.Run(r.Context(), req)
	transport.WriteSSE(w, r, events, h.logger)
}

// HandleQuick serves POST /deepsearch/quick: runs the pipeline to
// completion in-process and returns the final DeepSearchResponse as JSON,
// for callers that don't want to consume an event stream.
// @Summary Non-streaming deep search
// @Description Run the pipeline and return only the final result
// @Tags deepsearch
// @Accept json
// @Produce json
// @Param request body types.DeepSearchRequest true "Deep search request"
// @Success 200 {object} Response{data=types.DeepSearchResponse} "Final result"
// @Failure 400 {object} Response "Invalid request"
// @Failure 500 {object} Response "Pipeline error"
// @Router /deepsearch/quick [post]
func (h *DeepSearchHandler) HandleQuick(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req types.QuickSearchRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Query == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "query is required", h.logger)
		return
	}

	h.ensureSession(r.Context(), req.SessionID)

	events := h.orchestrator.Run(r.Context(), req.DeepSearchRequest)

	var result *types.DeepSearchResponse
	for ev := range events {
		switch ev.Type {
		case types.EventComplete:
			result = ev.Complete
		case types.EventError:
			msg := "pipeline failed"
			if ev.Error != nil {
				msg = ev.Error.Message
			}
			WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, msg, h.logger)
			return
		}
	}

	if result == nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError, "pipeline produced no result", h.logger)
		return
	}
	WriteSuccess(w, result)
}

// ensureSession best-effort creates the session record up front so the
// caller's first AppendMessage (performed by the orchestrator's caller,
// not the orchestrator itself) never races session creation. Failures are
// logged, not surfaced — session persistence is an enhancement, not a
// prerequisite for answering the query.
func (h *DeepSearchHandler) ensureSession(ctx context.Context, id string) {
	if h.sessions == nil || id == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := h.sessions.Get(ctx, id); err == session.ErrNotFound {
		if _, err := h.sessions.Create(ctx, id); err != nil {
			h.logger.Warn("failed to create session", zap.String("session_id", id), zap.Error(err))
		}
	}
}
