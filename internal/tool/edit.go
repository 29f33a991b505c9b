package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/clippy-ai/clippy/internal/textedit"
)

const editFileDescription = `Edits a file using line-oriented operations anchored by regular expressions.

Operations:
- replace: rewrite the single line matching pattern (supports \1 group references in content)
- delete: remove every line matching pattern
- append: add content at the end of the file
- insert_before / insert_after: insert content around the single line matching pattern
- block_replace / block_delete: rewrite or remove the lines between start_pattern and end_pattern

Usage:
- Patterns match anywhere within a line
- replace and insert operations require the pattern to match exactly one line
- inherit_indent copies the anchor line's indentation onto inserted content (default true)
- flags accepts regex flag names: IGNORECASE, MULTILINE, DOTALL, VERBOSE
- Line endings of the file are detected and preserved`

// EditFileTool implements regex-anchored file editing.
type EditFileTool struct {
	workDir string
}

// EditFileInput represents the input for the edit_file tool.
type EditFileInput struct {
	Path          string   `json:"path"`
	Operation     string   `json:"operation"`
	Pattern       string   `json:"pattern,omitempty"`
	Content       string   `json:"content,omitempty"`
	StartPattern  string   `json:"start_pattern,omitempty"`
	EndPattern    string   `json:"end_pattern,omitempty"`
	InheritIndent *bool    `json:"inherit_indent,omitempty"`
	Flags         []string `json:"flags,omitempty"`
}

// NewEditFileTool creates a new edit_file tool.
func NewEditFileTool(workDir string) *EditFileTool {
	return &EditFileTool{workDir: workDir}
}

func (t *EditFileTool) ID() string          { return "edit_file" }
func (t *EditFileTool) Description() string { return editFileDescription }

func (t *EditFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The path of the file to edit"
			},
			"operation": {
				"type": "string",
				"enum": ["replace", "delete", "append", "insert_before", "insert_after", "block_replace", "block_delete"],
				"description": "The edit operation to perform"
			},
			"pattern": {
				"type": "string",
				"description": "Regex matched anywhere within a line; anchors replace, delete and insert operations"
			},
			"content": {
				"type": "string",
				"description": "The replacement or inserted text"
			},
			"start_pattern": {
				"type": "string",
				"description": "Regex matching the first line of a block"
			},
			"end_pattern": {
				"type": "string",
				"description": "Regex matching the last line of a block"
			},
			"inherit_indent": {
				"type": "boolean",
				"description": "Copy the anchor line's indentation onto inserted content (default true)"
			},
			"flags": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Regex flags: IGNORECASE, MULTILINE, DOTALL, VERBOSE"
			}
		},
		"required": ["path", "operation"]
	}`)
}

func (t *EditFileTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params EditFileInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	operation, ok := textedit.ParseOperation(params.Operation)
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", params.Operation)
	}

	op := textedit.NewOp(operation)
	op.Pattern = params.Pattern
	op.Content = params.Content
	op.StartPattern = params.StartPattern
	op.EndPattern = params.EndPattern
	op.Flags = params.Flags
	if params.InheritIndent != nil {
		op.InheritIndent = *params.InheritIndent
	}

	resolved := resolvePath(params.Path, t.workDir)

	var before string
	if data, err := os.ReadFile(resolved); err == nil {
		before = string(data)
	}

	result := textedit.EditFile(resolved, op)
	if !result.OK {
		metadata := map[string]any{
			"file":      params.Path,
			"operation": params.Operation,
		}
		output := result.Message
		if hint, distance, found := closestLine(before, params.Pattern); found && strings.Contains(result.Message, "not found") {
			metadata["closestLine"] = hint
			metadata["closestDistance"] = distance
			output += fmt.Sprintf("\n\nClosest line in file: %s", hint)
		}
		return &Result{
			Title:    fmt.Sprintf("Edit failed: %s", filepath.Base(params.Path)),
			Output:   output,
			Metadata: metadata,
		}, nil
	}

	diff, additions, deletions := buildDiffMetadata(resolved, before, *result.NewContent, t.workDir)

	return &Result{
		Title:  fmt.Sprintf("Edited %s", filepath.Base(params.Path)),
		Output: result.Message,
		Metadata: map[string]any{
			"file":      params.Path,
			"operation": params.Operation,
			"diff":      diff,
			"additions": additions,
			"deletions": deletions,
		},
	}, nil
}

// closestLine finds the line most similar to pattern, used to hint at near
// misses when a pattern does not match.
func closestLine(content, pattern string) (line string, distance int, found bool) {
	if pattern == "" || content == "" {
		return "", 0, false
	}

	best := -1
	for _, l := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(strings.TrimSuffix(l, "\r"))
		if trimmed == "" {
			continue
		}
		d := levenshtein.ComputeDistance(pattern, trimmed)
		if best < 0 || d < best {
			best = d
			line = trimmed
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return line, best, true
}
