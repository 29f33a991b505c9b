package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const writeFileDescription = `Writes content to a file, creating it if needed.

Usage:
- Overwrites the file if it already exists
- Parent directories are created automatically
- Returns a diff against the previous content when the file existed`

// WriteFileTool implements file writing.
type WriteFileTool struct {
	workDir string
}

// WriteFileInput represents the input for the write_file tool.
type WriteFileInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// NewWriteFileTool creates a new write_file tool.
func NewWriteFileTool(workDir string) *WriteFileTool {
	return &WriteFileTool{workDir: workDir}
}

func (t *WriteFileTool) ID() string          { return "write_file" }
func (t *WriteFileTool) Description() string { return writeFileDescription }

func (t *WriteFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The path of the file to write"
			},
			"content": {
				"type": "string",
				"description": "The content to write to the file"
			}
		},
		"required": ["path", "content"]
	}`)
}

func (t *WriteFileTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params WriteFileInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	resolved := resolvePath(params.Path, t.workDir)

	var before string
	existed := false
	if data, err := os.ReadFile(resolved); err == nil {
		before = string(data)
		existed = true
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(params.Content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	diff, additions, deletions := buildDiffMetadata(resolved, before, params.Content, t.workDir)

	verb := "Created"
	if existed {
		verb = "Updated"
	}

	return &Result{
		Title:  fmt.Sprintf("%s %s", verb, filepath.Base(params.Path)),
		Output: fmt.Sprintf("Successfully wrote to %s", params.Path),
		Metadata: map[string]any{
			"file":      params.Path,
			"existed":   existed,
			"diff":      diff,
			"additions": additions,
			"deletions": deletions,
		},
	}, nil
}
