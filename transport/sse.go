// Package transport frames PipelineEvent streams as Server-Sent Events (and,
// optionally, as a WebSocket duplex), relaying the orchestrator's event
// channel to an HTTP client without re-buffering or reordering.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/Trafexofive/DeepSearchStack/types"
)

// sseFrame is the wire shape of one SSE event: {type, data, timestamp}.
type sseFrame struct {
	Type      types.PipelineEventType `json:"type"`
	Data      any                     `json:"data"`
	Timestamp string                  `json:"timestamp"`
}

func payloadFor(ev types.PipelineEvent) any {
	switch ev.Type {
	case types.EventProgress:
		return ev.Progress
	case types.EventContent:
		return ev.Content
	case types.EventSources:
		return ev.Sources
	case types.EventComplete:
		return ev.Complete
	case types.EventError:
		return ev.Error
	default:
		return nil
	}
}

// WriteSSE drains events onto w as Server-Sent-Events frames, one
// `data: <json>\n\n` line per event, flushing after every write so the
// client observes progress in real time. The transport is write-only; it
// returns once events closes or the request context is cancelled. Clients
// are expected to read until the first `complete` or `error` frame.
func WriteSSE(w http.ResponseWriter, r *http.Request, events <-chan types.PipelineEvent, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("response writer does not support flushing; SSE streaming unavailable")
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeFrame(w, ev); err != nil {
				logger.Warn("sse write failed, aborting stream", zap.Error(err))
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func writeFrame(w http.ResponseWriter, ev types.PipelineEvent) error {
	frame := sseFrame{Type: ev.Type, Data: payloadFor(ev), Timestamp: ev.Timestamp}
	body, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}

// WriteWS relays events over an accepted WebSocket connection as text
// frames carrying the same {type, data, timestamp} JSON shape as SSE, for
// callers that prefer a duplex transport. It closes the connection once
// events is drained.
func WriteWS(ctx context.Context, conn *websocket.Conn, events <-chan types.PipelineEvent, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			frame := sseFrame{Type: ev.Type, Data: payloadFor(ev), Timestamp: ev.Timestamp}
			body, err := json.Marshal(frame)
			if err != nil {
				logger.Warn("ws marshal failed, dropping frame", zap.Error(err))
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, body)
			cancel()
			if err != nil {
				logger.Warn("ws write failed, aborting stream", zap.Error(err))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
