package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trafexofive/DeepSearchStack/types"
)

func TestWriteSSE_FramesEachEventAsDataLine(t *testing.T) {
	events := make(chan types.PipelineEvent, 2)
	events <- types.PipelineEvent{Type: types.EventProgress, Timestamp: "t1", Progress: &types.ProgressPayload{Stage: "searching", Progress: 0.1}}
	events <- types.PipelineEvent{Type: types.EventComplete, Timestamp: "t2", Complete: &types.DeepSearchResponse{Answer: "done"}}
	close(events)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/deepsearch", nil)

	WriteSSE(w, r, events, nil)

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(body), "\n\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "data: "))
	assert.Contains(t, lines[0], `"type":"progress"`)
	assert.Contains(t, lines[1], `"type":"complete"`)
	assert.Contains(t, lines[1], `"done"`)
}

func TestWriteSSE_StopsWhenRequestContextCancelled(t *testing.T) {
	events := make(chan types.PipelineEvent)
	w := httptest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	r := httptest.NewRequest("POST", "/deepsearch", nil).WithContext(ctx)
	cancel()

	WriteSSE(w, r, events, nil)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
}
