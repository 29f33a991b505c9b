// Package provider abstracts LLM providers behind the Eino ChatModel
// interface.
package provider

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Provider represents an LLM provider backed by an Eino ChatModel.
type Provider interface {
	// ID returns the provider identifier.
	ID() string

	// Name returns the human-readable provider name.
	Name() string

	// Models returns the list of available models.
	Models() []Model

	// ChatModel returns the Eino ChatModel for this provider.
	ChatModel() model.ToolCallingChatModel

	// Generate produces a single completion for the request.
	Generate(ctx context.Context, req *CompletionRequest) (*schema.Message, error)

	// Stream produces a streaming completion for the request.
	Stream(ctx context.Context, req *CompletionRequest) (*CompletionStream, error)
}

// Model describes one model a provider can serve.
type Model struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ProviderID      string `json:"providerID"`
	ContextLength   int    `json:"contextLength"`
	MaxOutputTokens int    `json:"maxOutputTokens"`
	SupportsTools   bool   `json:"supportsTools"`
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Messages    []*schema.Message  `json:"messages"`
	Tools       []*schema.ToolInfo `json:"tools,omitempty"`
	MaxTokens   int                `json:"maxTokens,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

// CompletionStream wraps an Eino stream reader.
type CompletionStream struct {
	reader *schema.StreamReader[*schema.Message]
}

// NewCompletionStream creates a new completion stream.
func NewCompletionStream(reader *schema.StreamReader[*schema.Message]) *CompletionStream {
	return &CompletionStream{reader: reader}
}

// Recv receives the next message chunk from the stream.
func (s *CompletionStream) Recv() (*schema.Message, error) {
	return s.reader.Recv()
}

// Close closes the stream.
func (s *CompletionStream) Close() {
	s.reader.Close()
}

// bindTools returns chatModel with the request's tools bound, when any.
func bindTools(chatModel model.ToolCallingChatModel, req *CompletionRequest) (model.ToolCallingChatModel, error) {
	if len(req.Tools) == 0 {
		return chatModel, nil
	}
	return chatModel.WithTools(req.Tools)
}

// requestOptions converts request knobs into Eino model options.
func requestOptions(req *CompletionRequest) []model.Option {
	var opts []model.Option
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		opts = append(opts, model.WithTemperature(float32(req.Temperature)))
	}
	return opts
}

// ParseModelString parses "provider/model" format. A bare model name returns
// an empty provider ID.
func ParseModelString(s string) (providerID, modelID string) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", s
}
