package tool

import (
	"context"
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

func TestExecuteCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell test")
	}

	tl := NewExecuteCommandTool(t.TempDir())
	result := runTool(t, tl, `{"command": "echo hello world"}`)

	if !strings.Contains(result.Output, "hello world") {
		t.Errorf("missing output: %s", result.Output)
	}
	if result.Metadata["exit"].(int) != 0 {
		t.Errorf("unexpected exit code: %v", result.Metadata)
	}
}

func TestExecuteCommandNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell test")
	}

	tl := NewExecuteCommandTool(t.TempDir())
	result := runTool(t, tl, `{"command": "exit 3"}`)

	if result.Metadata["exit"].(int) != 3 {
		t.Errorf("got exit %v, want 3", result.Metadata["exit"])
	}
}

func TestExecuteCommandRunsInWorkDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell test")
	}

	dir := t.TempDir()
	tl := NewExecuteCommandTool(dir)
	result := runTool(t, tl, `{"command": "pwd"}`)

	if !strings.Contains(result.Output, dir) {
		t.Errorf("command not run in workdir: %s", result.Output)
	}
}

func TestExecuteCommandRequiresCommand(t *testing.T) {
	tl := NewExecuteCommandTool(t.TempDir())
	_, err := tl.Execute(context.Background(), json.RawMessage(`{}`), &Context{})
	if err == nil {
		t.Error("expected error for missing command")
	}
}

func TestExecuteCommandTitleFromDescription(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shell test")
	}

	tl := NewExecuteCommandTool(t.TempDir())
	result := runTool(t, tl, `{"command": "true", "description": "Check nothing"}`)
	if result.Title != "Check nothing" {
		t.Errorf("got title %q", result.Title)
	}
}
