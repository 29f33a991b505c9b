package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type fakeExecutor struct {
	lastAgent  string
	lastPrompt string
	lastOpts   TaskOptions
	result     *TaskResult
	err        error
}

func (f *fakeExecutor) ExecuteSubtask(ctx context.Context, sessionID, agentName, prompt string, opts TaskOptions) (*TaskResult, error) {
	f.lastAgent = agentName
	f.lastPrompt = prompt
	f.lastOpts = opts
	return f.result, f.err
}

func taskAgents() map[string]string {
	return map[string]string{
		"general":     "General-purpose assistant",
		"code_review": "Reviews code",
	}
}

func TestTaskToolExecute(t *testing.T) {
	exec := &fakeExecutor{result: &TaskResult{Output: "report", SessionID: "child-1"}}
	tt := NewTaskTool(t.TempDir(), exec, taskAgents())

	input := `{"description":"Summarize repo","prompt":"Summarize everything","subagent_type":"general","model":"anthropic/claude-3-5-haiku-20241022"}`
	result, err := tt.Execute(context.Background(), []byte(input), &Context{SessionID: "parent"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Output != "report" {
		t.Errorf("output = %q", result.Output)
	}
	if result.Metadata["sessionID"] != "child-1" {
		t.Errorf("metadata = %v", result.Metadata)
	}
	if exec.lastAgent != "general" || exec.lastPrompt != "Summarize everything" {
		t.Errorf("executor got agent=%q prompt=%q", exec.lastAgent, exec.lastPrompt)
	}
	if exec.lastOpts.Model != "anthropic/claude-3-5-haiku-20241022" {
		t.Errorf("model override not forwarded: %q", exec.lastOpts.Model)
	}
}

func TestTaskToolExecutorFailure(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("provider down")}
	tt := NewTaskTool(t.TempDir(), exec, taskAgents())

	input := `{"description":"Doomed","prompt":"try","subagent_type":"general"}`
	result, err := tt.Execute(context.Background(), []byte(input), &Context{})
	if err != nil {
		t.Fatalf("executor errors should surface in the result: %v", err)
	}
	if !strings.Contains(result.Output, "provider down") {
		t.Errorf("output = %q", result.Output)
	}
	if result.Metadata["status"] != "failed" {
		t.Errorf("metadata = %v", result.Metadata)
	}
}

func TestTaskToolSubtaskRunFailure(t *testing.T) {
	exec := &fakeExecutor{result: &TaskResult{Error: "run exceeded 25 iterations", SessionID: "child-2"}}
	tt := NewTaskTool(t.TempDir(), exec, taskAgents())

	input := `{"description":"Stalled","prompt":"loop forever","subagent_type":"general"}`
	result, err := tt.Execute(context.Background(), []byte(input), &Context{})
	if err != nil {
		t.Fatalf("run failures should surface in the result: %v", err)
	}
	if strings.HasPrefix(result.Title, "Completed") {
		t.Errorf("failed subtask reported as completed: %q", result.Title)
	}
	if !strings.Contains(result.Output, "run exceeded 25 iterations") {
		t.Errorf("output = %q", result.Output)
	}
	if result.Metadata["status"] != "failed" || result.Metadata["error"] != "run exceeded 25 iterations" {
		t.Errorf("metadata = %v", result.Metadata)
	}
	if result.Metadata["sessionID"] != "child-2" {
		t.Errorf("metadata = %v", result.Metadata)
	}
}

func TestTaskToolValidation(t *testing.T) {
	tt := NewTaskTool(t.TempDir(), &fakeExecutor{}, taskAgents())
	toolCtx := &Context{}

	cases := []string{
		`{"prompt":"p","subagent_type":"general"}`,
		`{"description":"d","subagent_type":"general"}`,
		`{"description":"d","prompt":"p","subagent_type":"nope"}`,
	}
	for _, input := range cases {
		if _, err := tt.Execute(context.Background(), []byte(input), toolCtx); err == nil {
			t.Errorf("expected error for input %s", input)
		}
	}
}

func TestTaskToolNoExecutor(t *testing.T) {
	tt := NewTaskTool(t.TempDir(), nil, taskAgents())
	input := `{"description":"d","prompt":"p","subagent_type":"general"}`
	_, err := tt.Execute(context.Background(), []byte(input), &Context{})
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Errorf("err = %v", err)
	}
}

func TestTaskToolDescriptionListsAgents(t *testing.T) {
	tt := NewTaskTool(t.TempDir(), nil, taskAgents())
	desc := tt.Description()
	if !strings.Contains(desc, "- code_review: Reviews code") {
		t.Errorf("description missing agent listing:\n%s", desc)
	}
}
