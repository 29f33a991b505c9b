package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clippy-ai/clippy/internal/config"
	"github.com/clippy-ai/clippy/internal/tool"
)

func TestLoadSubagentsBuiltins(t *testing.T) {
	defs := LoadSubagents(&config.Config{}, t.TempDir())

	for _, name := range []string{"general", "code_review", "testing", "refactor", "documentation"} {
		def, ok := defs[name]
		require.True(t, ok, "missing builtin %s", name)
		assert.NotEmpty(t, def.Prompt)
	}
	assert.Nil(t, defs["general"].Tools, "general gets every tool")
	assert.False(t, defs["code_review"].Tools["write_file"], "code_review is read-only")
}

func TestLoadSubagentsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Agent: map[string]config.AgentConfig{
			"security": {
				Description: "Security auditor",
				Prompt:      "You audit code for vulnerabilities.",
				Tools:       map[string]bool{"read_file": true, "grep": true},
			},
		},
	}
	defs := LoadSubagents(cfg, t.TempDir())

	def, ok := defs["security"]
	require.True(t, ok)
	assert.Equal(t, "Security auditor", def.Description)
	assert.True(t, def.Tools["grep"])
}

func TestLoadSubagentsFromYAML(t *testing.T) {
	workDir := t.TempDir()
	agentsDir := filepath.Join(workDir, ".clippy", "agents")
	require.NoError(t, os.MkdirAll(agentsDir, 0o755))

	yaml := `description: Migration helper
prompt: You migrate legacy code.
model: anthropic/claude-sonnet-4-20250514
tools:
  read_file: true
  edit_file: true
`
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, "migrate.yaml"), []byte(yaml), 0o644))
	// Name defaults to the file name when the definition omits it.
	defs := LoadSubagents(&config.Config{}, workDir)

	def, ok := defs["migrate"]
	require.True(t, ok)
	assert.Equal(t, "Migration helper", def.Description)
	assert.Equal(t, "anthropic/claude-sonnet-4-20250514", def.Model)
	assert.True(t, def.Tools["edit_file"])
}

func TestLoadSubagentsYAMLOverridesBuiltin(t *testing.T) {
	workDir := t.TempDir()
	agentsDir := filepath.Join(workDir, ".clippy", "agents")
	require.NoError(t, os.MkdirAll(agentsDir, 0o755))

	yaml := `name: general
description: Custom general agent
prompt: Custom prompt.
`
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, "custom.yml"), []byte(yaml), 0o644))
	defs := LoadSubagents(&config.Config{}, workDir)

	assert.Equal(t, "Custom prompt.", defs["general"].Prompt)
}

func TestExecuteSubtaskUnknownType(t *testing.T) {
	h := newTestAgent(t, allowAllPolicy())
	mgr := NewSubagentManager(h.agent, LoadSubagents(&config.Config{}, t.TempDir()), 0)

	_, err := mgr.ExecuteSubtask(context.Background(), "parent", "nonexistent", "do things", tool.TaskOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown subagent type")
	assert.Contains(t, err.Error(), "general")
}

func TestExecuteSubtaskRunsNestedConversation(t *testing.T) {
	h := newTestAgent(t, allowAllPolicy())
	h.provider.responses = []*schema.Message{assistantMessage("subtask complete")}
	mgr := NewSubagentManager(h.agent, LoadSubagents(&config.Config{}, t.TempDir()), 0)

	result, err := mgr.ExecuteSubtask(context.Background(), "parent-session", "general", "summarize the repo", tool.TaskOptions{Description: "Summarize"})
	require.NoError(t, err)
	assert.Equal(t, "subtask complete", result.Output)
	require.NotEmpty(t, result.SessionID)
	assert.NotEqual(t, "parent-session", result.SessionID)

	conv, err := h.agent.Store().Get(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "parent-session", conv.ParentID)
	assert.Equal(t, "general", conv.Agent)
}

func TestExecuteSubtaskUsesDefinitionPrompt(t *testing.T) {
	h := newTestAgent(t, allowAllPolicy())
	h.provider.responses = []*schema.Message{assistantMessage("reviewed")}
	mgr := NewSubagentManager(h.agent, LoadSubagents(&config.Config{}, t.TempDir()), 0)

	_, err := mgr.ExecuteSubtask(context.Background(), "parent", "code_review", "review main.go", tool.TaskOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, h.provider.requests)
	system := h.provider.requests[0].Messages[0]
	assert.Contains(t, system.Content, "code review specialist")
}

func TestExecuteSubtaskReportsRunFailure(t *testing.T) {
	h := newTestAgent(t, allowAllPolicy())
	// One iteration, but the model keeps asking for tools: the nested run
	// fails and the failure comes back in the result instead of an error.
	h.provider.responses = []*schema.Message{
		toolCallMessage("call_1", "echo", `{"text":"x"}`),
	}
	defs := LoadSubagents(&config.Config{}, t.TempDir())
	defs["shallow"] = SubagentDefinition{
		Name:          "shallow",
		Prompt:        "Finish fast.",
		MaxIterations: 1,
	}
	mgr := NewSubagentManager(h.agent, defs, 0)

	result, err := mgr.ExecuteSubtask(context.Background(), "parent", "shallow", "doomed", tool.TaskOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Error, "exceeded 1 iterations")
}

func TestSubagentToolsNeverIncludeTask(t *testing.T) {
	h := newTestAgent(t, allowAllPolicy())
	mgr := NewSubagentManager(h.agent, LoadSubagents(&config.Config{}, t.TempDir()), 0)

	tools := mgr.subagentTools(mgr.defs["general"])
	assert.False(t, tools["task"])
	assert.True(t, tools["echo"])

	tools = mgr.subagentTools(mgr.defs["code_review"])
	assert.False(t, tools["task"])
	assert.False(t, tools["echo"], "restricted definitions disable unlisted tools")
	assert.True(t, tools["read_file"])
}

func TestSubagentManagerNames(t *testing.T) {
	h := newTestAgent(t, allowAllPolicy())
	mgr := NewSubagentManager(h.agent, LoadSubagents(&config.Config{}, t.TempDir()), 0)

	names := mgr.Names()
	assert.Contains(t, names, "general")
	assert.True(t, sortedStrings(names))

	descs := mgr.Descriptions()
	assert.NotEmpty(t, descs["general"])
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
