// Package agent runs the tool-calling loop that turns user requests into
// model completions and tool executions.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/schema"

	"github.com/clippy-ai/clippy/internal/config"
	"github.com/clippy-ai/clippy/internal/event"
	"github.com/clippy-ai/clippy/internal/logging"
	"github.com/clippy-ai/clippy/internal/permission"
	"github.com/clippy-ai/clippy/internal/provider"
	"github.com/clippy-ai/clippy/internal/tool"
)

// Agent drives the completion/tool loop for one working directory.
type Agent struct {
	providers   *provider.Registry
	tools       *tool.Registry
	permissions *permission.Manager
	store       *Store
	cfg         *config.Config
	workDir     string
}

// RunOptions adjusts a single run. The zero value runs the default agent
// with every registered tool.
type RunOptions struct {
	Agent         string
	Model         string
	SystemPrompt  string
	Temperature   *float64
	Tools         map[string]bool
	MaxIterations int
	ParentID      string
}

// RunResult summarizes a finished run.
type RunResult struct {
	ConversationID string
	Output         string
	Steps          int
	ToolCalls      int
}

// New creates an agent.
func New(providers *provider.Registry, tools *tool.Registry, permissions *permission.Manager, store *Store, cfg *config.Config, workDir string) *Agent {
	return &Agent{
		providers:   providers,
		tools:       tools,
		permissions: permissions,
		store:       store,
		cfg:         cfg,
		workDir:     workDir,
	}
}

// Store exposes the conversation store for callers that list or resume
// sessions.
func (a *Agent) Store() *Store { return a.store }

// Run executes one request. An empty conversationID starts a new
// conversation; otherwise the run continues the stored history.
func (a *Agent) Run(ctx context.Context, conversationID, input string, opts RunOptions) (*RunResult, error) {
	log := logging.With("agent")

	conv, err := a.resolveConversation(ctx, conversationID, input, opts)
	if err != nil {
		return nil, err
	}

	if err := a.store.AppendMessage(ctx, conv.ID, &Message{Role: "user", Content: input}); err != nil {
		return nil, err
	}

	event.Publish(event.Event{Type: event.SessionStarted, Data: event.SessionData{
		SessionID: conv.ID,
		Agent:     opts.Agent,
	}})

	prov, modelID, err := a.providers.Resolve(opts.Model)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("conversation", conv.ID).Str("model", modelID).Msg("run started")

	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = a.cfg.MaxIterations
	}
	if maxIterations <= 0 {
		maxIterations = config.DefaultMaxIterations
	}

	systemPrompt := SystemPrompt(a.cfg, a.workDir, opts.SystemPrompt)
	enabled := a.enabledTools(opts)
	toolInfos := a.tools.ToolInfos(enabled)

	result := &RunResult{ConversationID: conv.ID}
	for step := 0; step < maxIterations; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Steps = step + 1

		history, err := a.store.Messages(ctx, conv.ID)
		if err != nil {
			return nil, err
		}

		req := &provider.CompletionRequest{
			Messages: append([]*schema.Message{schema.SystemMessage(systemPrompt)}, toSchemaMessages(history)...),
			Tools:    toolInfos,
		}
		if opts.Temperature != nil {
			req.Temperature = *opts.Temperature
		}

		resp, err := a.complete(ctx, prov, req)
		if err != nil {
			a.publishEnded(conv.ID, opts.Agent, result.Steps, err)
			return nil, fmt.Errorf("completion failed: %w", err)
		}

		assistant := &Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		if err := a.store.AppendMessage(ctx, conv.ID, assistant); err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			result.Output = resp.Content
			a.publishEnded(conv.ID, opts.Agent, result.Steps, nil)
			return result, nil
		}

		// Tool calls in one turn run concurrently; results are appended in
		// call order so the history stays aligned with the request.
		outputs := make([]string, len(resp.ToolCalls))
		var wg sync.WaitGroup
		for i, call := range resp.ToolCalls {
			wg.Add(1)
			go func(i int, call schema.ToolCall) {
				defer wg.Done()
				outputs[i] = a.dispatchToolCall(ctx, conv.ID, assistant.ID, opts.Agent, enabled, call)
			}(i, call)
		}
		wg.Wait()

		for i, call := range resp.ToolCalls {
			toolMsg := &Message{
				Role:       "tool",
				Content:    outputs[i],
				ToolCallID: call.ID,
			}
			if err := a.store.AppendMessage(ctx, conv.ID, toolMsg); err != nil {
				return nil, err
			}
			result.ToolCalls++
		}
	}

	err = fmt.Errorf("run exceeded %d iterations", maxIterations)
	a.publishEnded(conv.ID, opts.Agent, result.Steps, err)
	return result, err
}

func (a *Agent) resolveConversation(ctx context.Context, conversationID, input string, opts RunOptions) (*Conversation, error) {
	if conversationID == "" {
		return a.store.Create(ctx, a.workDir, input, opts.Agent, opts.ParentID)
	}
	return a.store.Get(ctx, conversationID)
}

// enabledTools merges the config tool table with per-run overrides. A nil
// result means every registered tool.
func (a *Agent) enabledTools(opts RunOptions) map[string]bool {
	if len(a.cfg.Tools) == 0 && len(opts.Tools) == 0 {
		return nil
	}
	enabled := make(map[string]bool)
	for _, id := range a.tools.IDs() {
		enabled[id] = true
	}
	for id, on := range a.cfg.Tools {
		enabled[id] = on
	}
	for id, on := range opts.Tools {
		enabled[id] = on
	}
	return enabled
}

// complete calls the provider with retries. Transient provider errors back
// off exponentially; context cancellation stops the retry loop.
func (a *Agent) complete(ctx context.Context, prov provider.Provider, req *provider.CompletionRequest) (*schema.Message, error) {
	var resp *schema.Message
	operation := func() error {
		r, err := prov.Generate(ctx, req)
		if err != nil {
			log := logging.With("agent")
			log.Warn().Err(err).Msg("completion attempt failed")
			return err
		}
		resp = r
		return nil
	}
	if err := backoff.Retry(operation, newRetryBackoff(ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	b.RandomizationFactor = 0.5
	return backoff.WithContext(backoff.WithMaxRetries(b, 3), ctx)
}

// dispatchToolCall gates a tool call through the permission manager, runs
// it, and renders the result as the tool message content. Failures are
// reported to the model rather than aborting the run.
func (a *Agent) dispatchToolCall(ctx context.Context, conversationID, messageID, agentName string, enabled map[string]bool, call schema.ToolCall) string {
	log := logging.With("agent")
	name := call.Function.Name
	args := json.RawMessage(call.Function.Arguments)

	t, ok := a.tools.Get(name)
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", name)
	}
	if enabled != nil {
		if on, found := enabled[name]; found && !on {
			return fmt.Sprintf("Error: tool %q is not available in this session", name)
		}
	}

	if err := a.checkPermission(ctx, conversationID, name, call.ID, args); err != nil {
		if permission.IsRejected(err) {
			log.Info().Str("tool", name).Msg("tool call rejected")
			return fmt.Sprintf("Permission denied: %s", err.Error())
		}
		return fmt.Sprintf("Error: %s", err.Error())
	}

	toolCtx := &tool.Context{
		SessionID: conversationID,
		MessageID: messageID,
		CallID:    call.ID,
		Agent:     agentName,
		WorkDir:   a.workDir,
		AbortCh:   ctx.Done(),
	}
	result, err := t.Execute(ctx, args, toolCtx)

	ok = err == nil && result != nil && result.Error == nil
	title := ""
	if result != nil {
		title = result.Title
	}
	event.Publish(event.Event{Type: event.ToolExecuted, Data: event.ToolExecutedData{
		SessionID: conversationID,
		CallID:    call.ID,
		Tool:      name,
		OK:        ok,
		Title:     title,
	}})

	if err != nil {
		log.Warn().Str("tool", name).Err(err).Msg("tool execution failed")
		return fmt.Sprintf("Error: %s", err.Error())
	}
	if result == nil {
		return "Error: tool returned no result"
	}
	if result.Error != nil {
		return fmt.Sprintf("Error: %s", result.Error.Error())
	}

	if file, ok := result.Metadata["file"].(string); ok && file != "" {
		event.Publish(event.Event{Type: event.FileEdited, Data: event.FileEditedData{File: file}})
	}
	return result.Output
}

// checkPermission maps a tool call onto the permission table. Shell commands
// are parsed so bash patterns can match individual commands inside pipes and
// lists.
func (a *Agent) checkPermission(ctx context.Context, conversationID, toolName, callID string, args json.RawMessage) error {
	req := permission.Request{
		SessionID: conversationID,
		CallID:    callID,
		Action:    actionForTool(toolName),
		Title:     permissionTitle(toolName, args),
	}
	if req.Action == permission.ActionExecute {
		var params struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(args, &params); err == nil && params.Command != "" {
			if commands, err := permission.ParseBashCommand(params.Command); err == nil {
				req.Patterns = permission.BuildPatterns(commands)
			}
			return a.permissions.CheckBash(ctx, req, params.Command)
		}
	}
	return a.permissions.Check(ctx, req)
}

func actionForTool(id string) permission.Action {
	if strings.HasPrefix(id, "mcp_") {
		return permission.ActionMCP
	}
	return permission.Action(id)
}

func permissionTitle(toolName string, args json.RawMessage) string {
	var params struct {
		Path    string `json:"path"`
		Command string `json:"command"`
		URL     string `json:"url"`
	}
	_ = json.Unmarshal(args, &params)
	switch {
	case params.Command != "":
		return fmt.Sprintf("%s: %s", toolName, params.Command)
	case params.Path != "":
		return fmt.Sprintf("%s: %s", toolName, params.Path)
	case params.URL != "":
		return fmt.Sprintf("%s: %s", toolName, params.URL)
	}
	return toolName
}

func (a *Agent) publishEnded(conversationID, agentName string, steps int, err error) {
	data := event.SessionData{
		SessionID: conversationID,
		Agent:     agentName,
		Steps:     steps,
	}
	if err != nil {
		data.Error = err.Error()
	}
	event.Publish(event.Event{Type: event.SessionEnded, Data: data})
}
