package provider

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clippy-ai/clippy/internal/config"
)

// stubProvider is a minimal Provider for registry tests.
type stubProvider struct {
	id string
}

func (s *stubProvider) ID() string     { return s.id }
func (s *stubProvider) Name() string   { return s.id }
func (s *stubProvider) Models() []Model { return nil }
func (s *stubProvider) ChatModel() model.ToolCallingChatModel { return nil }
func (s *stubProvider) Generate(ctx context.Context, req *CompletionRequest) (*schema.Message, error) {
	return &schema.Message{Role: schema.Assistant, Content: "stub"}, nil
}
func (s *stubProvider) Stream(ctx context.Context, req *CompletionRequest) (*CompletionStream, error) {
	return nil, nil
}

func TestRegistryRegisterGet(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubProvider{id: "anthropic"})

	p, err := r.Get("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.ID())

	_, err = r.Get("missing")
	assert.Error(t, err)
}

func TestParseModelString(t *testing.T) {
	provider, model := ParseModelString("anthropic/claude-sonnet-4-20250514")
	assert.Equal(t, "anthropic", provider)
	assert.Equal(t, "claude-sonnet-4-20250514", model)

	provider, model = ParseModelString("gpt-4o")
	assert.Equal(t, "", provider)
	assert.Equal(t, "gpt-4o", model)
}

func TestResolveQualifiedModel(t *testing.T) {
	r := NewRegistry(&config.Config{Model: "openai/gpt-4o"})
	r.Register(&stubProvider{id: "openai"})

	p, modelID, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.ID())
	assert.Equal(t, "gpt-4o", modelID)
}

func TestResolvePrefersAnthropic(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubProvider{id: "openai"})
	r.Register(&stubProvider{id: "anthropic"})

	p, _, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.ID())
}

func TestResolveUnknownProvider(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubProvider{id: "anthropic"})

	_, _, err := r.Resolve("google/gemini")
	assert.Error(t, err)
}

func TestResolveEmptyRegistry(t *testing.T) {
	r := NewRegistry(nil)
	_, _, err := r.Resolve("")
	assert.Error(t, err)
}

func TestFromConfigNoProviders(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := FromConfig(context.Background(), &config.Config{})
	assert.Error(t, err)
}

func TestAnthropicRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewAnthropicProvider(context.Background(), &AnthropicConfig{})
	assert.Error(t, err)
}

func TestOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewOpenAIProvider(context.Background(), &OpenAIConfig{})
	assert.Error(t, err)
}
