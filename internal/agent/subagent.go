package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clippy-ai/clippy/internal/config"
	"github.com/clippy-ai/clippy/internal/event"
	"github.com/clippy-ai/clippy/internal/logging"
	"github.com/clippy-ai/clippy/internal/tool"
)

// DefaultMaxConcurrentSubtasks bounds parallel subagent runs.
const DefaultMaxConcurrentSubtasks = 3

// SubagentDefinition describes one subagent type: its persona, the tools it
// may use, and an optional model override.
type SubagentDefinition struct {
	Name          string          `yaml:"name" json:"name"`
	Description   string          `yaml:"description" json:"description"`
	Model         string          `yaml:"model,omitempty" json:"model,omitempty"`
	Prompt        string          `yaml:"prompt" json:"prompt"`
	Temperature   *float64        `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	Tools         map[string]bool `yaml:"tools,omitempty" json:"tools,omitempty"`
	MaxIterations int             `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
}

func allowTools(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func builtinSubagents() []SubagentDefinition {
	readOnly := []string{"read_file", "read_files", "grep", "search_files", "list_directory", "get_file_info"}
	editing := append([]string{"write_file", "edit_file", "create_directory"}, readOnly...)
	return []SubagentDefinition{
		{
			Name:          "general",
			Description:   "General-purpose assistant for multi-step tasks",
			Prompt:        "You are a helpful AI assistant focused on completing the given task efficiently.",
			MaxIterations: 25,
		},
		{
			Name:          "code_review",
			Description:   "Reviews code for quality, security issues, and bugs",
			Prompt:        "You are a code review specialist. Focus on code quality, best practices, security issues, and potential bugs. Provide actionable feedback. Be thorough but constructive in your reviews.",
			Tools:         allowTools(readOnly...),
			MaxIterations: 15,
		},
		{
			Name:          "testing",
			Description:   "Writes tests and verifies coverage",
			Prompt:        "You are a testing specialist. Write comprehensive tests, identify edge cases, and ensure good test coverage. Follow testing best practices. Create tests that are maintainable and provide good coverage.",
			Tools:         allowTools(append([]string{"execute_command"}, editing...)...),
			MaxIterations: 30,
		},
		{
			Name:          "refactor",
			Description:   "Restructures code while preserving behavior",
			Prompt:        "You are a refactoring specialist. Improve code structure, readability, and maintainability while preserving functionality. Explain your changes and justify the refactoring decisions.",
			Tools:         allowTools(editing...),
			MaxIterations: 30,
		},
		{
			Name:          "documentation",
			Description:   "Writes documentation with practical examples",
			Prompt:        "You are a documentation specialist. Write clear, comprehensive documentation with examples. Focus on helping users understand the code and how to use it.",
			Tools:         allowTools(editing...),
			MaxIterations: 20,
		},
	}
}

// LoadSubagents merges builtin definitions with config-defined agents and
// YAML files under <workDir>/.clippy/agents/. Later sources override earlier
// ones by name.
func LoadSubagents(cfg *config.Config, workDir string) map[string]SubagentDefinition {
	defs := make(map[string]SubagentDefinition)
	for _, def := range builtinSubagents() {
		defs[def.Name] = def
	}

	if cfg != nil {
		for name, ac := range cfg.Agent {
			defs[name] = SubagentDefinition{
				Name:        name,
				Description: ac.Description,
				Model:       ac.Model,
				Prompt:      ac.Prompt,
				Temperature: ac.Temperature,
				Tools:       ac.Tools,
			}
		}
	}

	agentsDir := filepath.Join(workDir, ".clippy", "agents")
	entries, err := os.ReadDir(agentsDir)
	if err != nil {
		return defs
	}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(agentsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logging.Warn().Str("file", path).Err(err).Msg("skipping agent definition")
			continue
		}
		var def SubagentDefinition
		if err := yaml.Unmarshal(data, &def); err != nil {
			logging.Warn().Str("file", path).Err(err).Msg("invalid agent definition")
			continue
		}
		if def.Name == "" {
			def.Name = strings.TrimSuffix(entry.Name(), ext)
		}
		defs[def.Name] = def
	}
	return defs
}

// SubagentManager runs delegated tasks as nested agent runs. It implements
// tool.TaskExecutor for the task tool.
type SubagentManager struct {
	agent *Agent
	defs  map[string]SubagentDefinition
	sem   chan struct{}
}

// NewSubagentManager creates a manager over the given definitions.
// maxConcurrent <= 0 uses the default.
func NewSubagentManager(agent *Agent, defs map[string]SubagentDefinition, maxConcurrent int) *SubagentManager {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSubtasks
	}
	return &SubagentManager{
		agent: agent,
		defs:  defs,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

// Descriptions returns name -> description for the task tool's listing.
func (m *SubagentManager) Descriptions() map[string]string {
	out := make(map[string]string, len(m.defs))
	for name, def := range m.defs {
		out[name] = def.Description
	}
	return out
}

// Names returns the sorted subagent type names.
func (m *SubagentManager) Names() []string {
	names := make([]string, 0, len(m.defs))
	for name := range m.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExecuteSubtask runs a prompt under the named subagent in a fresh child
// conversation. Concurrent subtasks beyond the limit wait their turn.
func (m *SubagentManager) ExecuteSubtask(ctx context.Context, sessionID, agentName, prompt string, opts tool.TaskOptions) (*tool.TaskResult, error) {
	def, ok := m.defs[agentName]
	if !ok {
		return nil, fmt.Errorf("unknown subagent type %q (available: %s)", agentName, strings.Join(m.Names(), ", "))
	}

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-m.sem }()

	event.Publish(event.Event{Type: event.SubagentStarted, Data: event.SubagentData{
		SessionID: sessionID,
		Name:      opts.Description,
		Type:      agentName,
	}})

	model := opts.Model
	if model == "" {
		model = def.Model
	}

	result, err := m.agent.Run(ctx, "", prompt, RunOptions{
		Agent:         agentName,
		Model:         model,
		SystemPrompt:  def.Prompt,
		Temperature:   def.Temperature,
		Tools:         m.subagentTools(def),
		MaxIterations: def.MaxIterations,
		ParentID:      sessionID,
	})

	data := event.SubagentData{SessionID: sessionID, Name: opts.Description, Type: agentName}
	if err != nil {
		data.Error = err.Error()
		event.Publish(event.Event{Type: event.SubagentCompleted, Data: data})
		return &tool.TaskResult{Error: err.Error()}, nil
	}
	event.Publish(event.Event{Type: event.SubagentCompleted, Data: data})

	return &tool.TaskResult{
		Output:    result.Output,
		SessionID: result.ConversationID,
		Metadata: map[string]any{
			"steps":     result.Steps,
			"toolCalls": result.ToolCalls,
		},
	}, nil
}

// subagentTools restricts the nested run's tools. Subagents never get the
// task tool, so delegation cannot recurse.
func (m *SubagentManager) subagentTools(def SubagentDefinition) map[string]bool {
	tools := make(map[string]bool)
	allowAll := len(def.Tools) == 0
	for _, id := range m.agent.tools.IDs() {
		tools[id] = allowAll
	}
	for id, on := range def.Tools {
		tools[id] = on
	}
	tools["task"] = false
	return tools
}
