package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const searchFilesDescription = `Finds files whose paths match a glob pattern.

Usage:
- Supports doublestar globs (e.g., "**/*.go", "src/**/test_*.py")
- A bare substring is treated as "**/*substring*"
- Hidden directories like .git and node_modules are skipped
- Results are sorted by path`

const maxSearchResults = 200

// SearchFilesTool implements glob-based file search.
type SearchFilesTool struct {
	workDir string
}

// SearchFilesInput represents the input for the search_files tool.
type SearchFilesInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
}

// NewSearchFilesTool creates a new search_files tool.
func NewSearchFilesTool(workDir string) *SearchFilesTool {
	return &SearchFilesTool{workDir: workDir}
}

func (t *SearchFilesTool) ID() string          { return "search_files" }
func (t *SearchFilesTool) Description() string { return searchFilesDescription }

func (t *SearchFilesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {
				"type": "string",
				"description": "The glob pattern or name fragment to match file paths against"
			},
			"path": {
				"type": "string",
				"description": "The directory to search in. Defaults to the working directory."
			}
		},
		"required": ["pattern"]
	}`)
}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".idea":        true,
}

func (t *SearchFilesTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params SearchFilesInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if params.Pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}

	root := t.workDir
	if params.Path != "" {
		root = resolvePath(params.Path, t.workDir)
	}

	pattern := params.Pattern
	if !strings.ContainsAny(pattern, "*?[{") {
		pattern = "**/*" + pattern + "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", params.Pattern)
	}

	var matches []string
	truncated := false
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		for _, part := range strings.Split(path, "/") {
			if skipDirs[part] {
				return nil
			}
		}
		matches = append(matches, path)
		if len(matches) >= maxSearchResults {
			truncated = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	sort.Strings(matches)

	output := strings.Join(matches, "\n")
	if output == "" {
		output = "No files found"
	}
	if truncated {
		output += fmt.Sprintf("\n\n(Showing first %d matches)", maxSearchResults)
	}

	return &Result{
		Title:  fmt.Sprintf("Found %d files", len(matches)),
		Output: output,
		Metadata: map[string]any{
			"pattern":   params.Pattern,
			"count":     len(matches),
			"truncated": truncated,
		},
	}, nil
}
