package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runTool(t *testing.T, tl Tool, input string) *Result {
	t.Helper()
	result, err := tl.Execute(context.Background(), json.RawMessage(input), &Context{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return result
}

func TestEditFileReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greet.py")
	if err := os.WriteFile(path, []byte("def greet():\n    print('hello')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tl := NewEditFileTool(dir)
	result := runTool(t, tl, `{
		"path": "greet.py",
		"operation": "replace",
		"pattern": "print",
		"content": "    print('goodbye')"
	}`)

	if !strings.Contains(result.Output, "Successfully performed replace") {
		t.Errorf("unexpected output: %s", result.Output)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "def greet():\n    print('goodbye')\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", string(data), want)
	}

	if result.Metadata["additions"].(int) != 1 || result.Metadata["deletions"].(int) != 1 {
		t.Errorf("unexpected diff counts: %v", result.Metadata)
	}
}

func TestEditFileDeleteAllMatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "code.py")
	content := "import os\nprint('debug 1')\nx = 1\nprint('debug 2')\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tl := NewEditFileTool(dir)
	runTool(t, tl, `{"path": "code.py", "operation": "delete", "pattern": "print\\('debug"}`)

	data, _ := os.ReadFile(path)
	if string(data) != "import os\nx = 1\n" {
		t.Errorf("got %q", string(data))
	}
}

func TestEditFilePatternNotFoundGivesHint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	if err := os.WriteFile(path, []byte("def handle_request():\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tl := NewEditFileTool(dir)
	result := runTool(t, tl, `{
		"path": "app.py",
		"operation": "replace",
		"pattern": "def handle_requests\\(\\):",
		"content": "def handle():"
	}`)

	if !strings.Contains(result.Output, "not found") {
		t.Errorf("expected not-found message, got: %s", result.Output)
	}
	if _, ok := result.Metadata["closestLine"]; !ok {
		t.Error("expected closestLine hint in metadata")
	}

	// file untouched on failure
	data, _ := os.ReadFile(path)
	if string(data) != "def handle_request():\n    pass\n" {
		t.Errorf("file modified on failed edit: %q", string(data))
	}
}

func TestEditFileUnknownOperation(t *testing.T) {
	tl := NewEditFileTool(t.TempDir())
	_, err := tl.Execute(context.Background(), json.RawMessage(`{"path": "x.txt", "operation": "upsert"}`), &Context{})
	if err == nil || !strings.Contains(err.Error(), "unknown operation") {
		t.Errorf("expected unknown operation error, got %v", err)
	}
}

func TestEditFileInsertAfterInheritsIndent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loop.py")
	if err := os.WriteFile(path, []byte("def run():\n    start()\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tl := NewEditFileTool(dir)
	runTool(t, tl, `{
		"path": "loop.py",
		"operation": "insert_after",
		"pattern": "start\\(\\)",
		"content": "finish()"
	}`)

	data, _ := os.ReadFile(path)
	if string(data) != "def run():\n    start()\n    finish()\n" {
		t.Errorf("got %q", string(data))
	}
}

func TestClosestLine(t *testing.T) {
	content := "alpha line\nbeta line\ngamma line\n"
	line, distance, found := closestLine(content, "beta lime")
	if !found {
		t.Fatal("expected a closest line")
	}
	if line != "beta line" {
		t.Errorf("got %q", line)
	}
	if distance != 1 {
		t.Errorf("got distance %d", distance)
	}
}

func TestClosestLineEmpty(t *testing.T) {
	if _, _, found := closestLine("", "pattern"); found {
		t.Error("expected no result for empty content")
	}
	if _, _, found := closestLine("some content", ""); found {
		t.Error("expected no result for empty pattern")
	}
}
