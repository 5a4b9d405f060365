package openaidirect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trafexofive/DeepSearchStack/llm"
	"github.com/Trafexofive/DeepSearchStack/types"
)

func TestToOpenAIMessages_MapsRoles(t *testing.T) {
	messages := []types.Message{
		types.NewSystemMessage("be concise"),
		types.NewUserMessage("hello"),
		types.NewAssistantMessage("hi there"),
		types.NewToolMessage("call-1", "lookup", "result text"),
	}

	out := toOpenAIMessages(messages)
	require.Len(t, out, 4)
}

func TestProvider_ModelDefaultsWhenRequestOmitsIt(t *testing.T) {
	p := &Provider{defaultModel: "gpt-4o-mini"}
	assert.Equal(t, "gpt-4o-mini", p.model(&llm.ChatRequest{}))
	assert.Equal(t, "gpt-4o", p.model(&llm.ChatRequest{Model: "gpt-4o"}))
}

func TestProvider_Name(t *testing.T) {
	p := &Provider{}
	assert.Equal(t, "openai", p.Name())
}
