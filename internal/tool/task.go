package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// TaskExecutor runs a subagent task. The agent package provides the
// implementation; keeping it behind an interface avoids an import cycle.
type TaskExecutor interface {
	ExecuteSubtask(ctx context.Context, sessionID, agentName, prompt string, opts TaskOptions) (*TaskResult, error)
}

// TaskOptions contains options for task execution.
type TaskOptions struct {
	Model       string
	Description string
}

// TaskResult represents the result of a subtask.
type TaskResult struct {
	Output    string         `json:"output"`
	SessionID string         `json:"sessionID"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskTool spawns subagents for delegated work.
type TaskTool struct {
	workDir  string
	executor TaskExecutor
	agents   map[string]string // name -> description
}

// TaskInput represents the input for the task tool.
type TaskInput struct {
	Description  string `json:"description"`
	Prompt       string `json:"prompt"`
	SubagentType string `json:"subagent_type"`
	Model        string `json:"model,omitempty"`
}

// NewTaskTool creates a new task tool. agents maps subagent names to their
// descriptions for the tool's model-facing description.
func NewTaskTool(workDir string, executor TaskExecutor, agents map[string]string) *TaskTool {
	return &TaskTool{
		workDir:  workDir,
		executor: executor,
		agents:   agents,
	}
}

func (t *TaskTool) ID() string { return "task" }

func (t *TaskTool) Description() string {
	var sb strings.Builder
	sb.WriteString(`Launches a subagent to handle a multi-step task autonomously.

Each subagent runs its own tool loop and returns a final report.

Available subagent types:
`)
	names := make([]string, 0, len(t.agents))
	for name := range t.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s: %s\n", name, t.agents[name])
	}
	sb.WriteString(`
Usage notes:
- Launch multiple subagents concurrently when possible
- Each invocation is stateless; include everything the subagent needs in the prompt`)
	return sb.String()
}

func (t *TaskTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"description": {
				"type": "string",
				"description": "A short (3-5 word) description of the task"
			},
			"prompt": {
				"type": "string",
				"description": "The detailed task for the subagent to perform"
			},
			"subagent_type": {
				"type": "string",
				"description": "The type of subagent to launch"
			},
			"model": {
				"type": "string",
				"description": "Optional model override for the subagent"
			}
		},
		"required": ["description", "prompt", "subagent_type"]
	}`)
}

func (t *TaskTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params TaskInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.Description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if params.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if _, ok := t.agents[params.SubagentType]; !ok {
		return nil, fmt.Errorf("unknown subagent type: %s. Available types: %s",
			params.SubagentType, strings.Join(t.agentNames(), ", "))
	}
	if t.executor == nil {
		return nil, fmt.Errorf("subagent execution is not configured")
	}

	toolCtx.SetMetadata(params.Description, map[string]any{
		"subagent": params.SubagentType,
		"status":   "starting",
	})

	result, err := t.executor.ExecuteSubtask(ctx, toolCtx.SessionID, params.SubagentType, params.Prompt, TaskOptions{
		Model:       params.Model,
		Description: params.Description,
	})
	if err != nil {
		return &Result{
			Title:  fmt.Sprintf("Subtask failed: %s", params.Description),
			Output: fmt.Sprintf("Error: %s", err.Error()),
			Metadata: map[string]any{
				"subagent": params.SubagentType,
				"status":   "failed",
				"error":    err.Error(),
			},
		}, nil
	}

	if result.Error != "" {
		metadata := map[string]any{
			"subagent": params.SubagentType,
			"status":   "failed",
			"error":    result.Error,
		}
		if result.SessionID != "" {
			metadata["sessionID"] = result.SessionID
		}
		return &Result{
			Title:    fmt.Sprintf("Subtask failed: %s", params.Description),
			Output:   fmt.Sprintf("Error: %s", result.Error),
			Metadata: metadata,
		}, nil
	}

	metadata := map[string]any{
		"subagent": params.SubagentType,
		"status":   "completed",
	}
	if result.SessionID != "" {
		metadata["sessionID"] = result.SessionID
	}
	for k, v := range result.Metadata {
		metadata[k] = v
	}

	return &Result{
		Title:    fmt.Sprintf("Completed: %s", params.Description),
		Output:   result.Output,
		Metadata: metadata,
	}, nil
}

func (t *TaskTool) agentNames() []string {
	names := make([]string, 0, len(t.agents))
	for name := range t.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
