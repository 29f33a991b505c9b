package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const readFilesDescription = `Reads multiple files in a single call.

Usage:
- Provide a list of file paths
- Each file's contents are returned with line numbers, separated by headers
- Files that cannot be read are reported inline without failing the call`

// ReadFilesTool reads several files at once.
type ReadFilesTool struct {
	workDir string
}

// ReadFilesInput represents the input for the read_files tool.
type ReadFilesInput struct {
	Paths []string `json:"paths"`
}

// NewReadFilesTool creates a new read_files tool.
func NewReadFilesTool(workDir string) *ReadFilesTool {
	return &ReadFilesTool{workDir: workDir}
}

func (t *ReadFilesTool) ID() string          { return "read_files" }
func (t *ReadFilesTool) Description() string { return readFilesDescription }

func (t *ReadFilesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"paths": {
				"type": "array",
				"items": {"type": "string"},
				"description": "The paths of the files to read"
			}
		},
		"required": ["paths"]
	}`)
}

func (t *ReadFilesTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params ReadFilesInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if len(params.Paths) == 0 {
		return nil, fmt.Errorf("paths must not be empty")
	}

	var sb strings.Builder
	succeeded := 0
	for i, path := range params.Paths {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("==> %s <==\n", path))

		output, _, _, err := readNumbered(path, t.workDir, 0, 0)
		if err != nil {
			sb.WriteString(fmt.Sprintf("Error: %v", err))
			continue
		}
		sb.WriteString(output)
		succeeded++
	}

	return &Result{
		Title:  fmt.Sprintf("Read %d of %d files", succeeded, len(params.Paths)),
		Output: sb.String(),
		Metadata: map[string]any{
			"requested": len(params.Paths),
			"read":      succeeded,
		},
	}, nil
}
