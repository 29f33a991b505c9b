package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DeleteFileTool removes a file.
type DeleteFileTool struct {
	workDir string
}

// DeleteFileInput represents the input for the delete_file tool.
type DeleteFileInput struct {
	Path string `json:"path"`
}

// NewDeleteFileTool creates a new delete_file tool.
func NewDeleteFileTool(workDir string) *DeleteFileTool {
	return &DeleteFileTool{workDir: workDir}
}

func (t *DeleteFileTool) ID() string { return "delete_file" }

func (t *DeleteFileTool) Description() string {
	return "Deletes a file. Fails if the path is a directory or does not exist."
}

func (t *DeleteFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The path of the file to delete"
			}
		},
		"required": ["path"]
	}`)
}

func (t *DeleteFileTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params DeleteFileInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	resolved := resolvePath(params.Path, t.workDir)

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", params.Path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", params.Path)
	}
	if err := os.Remove(resolved); err != nil {
		return nil, fmt.Errorf("failed to delete file: %w", err)
	}

	return &Result{
		Title:    fmt.Sprintf("Deleted %s", filepath.Base(params.Path)),
		Output:   fmt.Sprintf("Successfully deleted %s", params.Path),
		Metadata: map[string]any{"file": params.Path},
	}, nil
}

// CreateDirectoryTool creates a directory tree.
type CreateDirectoryTool struct {
	workDir string
}

// CreateDirectoryInput represents the input for the create_directory tool.
type CreateDirectoryInput struct {
	Path string `json:"path"`
}

// NewCreateDirectoryTool creates a new create_directory tool.
func NewCreateDirectoryTool(workDir string) *CreateDirectoryTool {
	return &CreateDirectoryTool{workDir: workDir}
}

func (t *CreateDirectoryTool) ID() string { return "create_directory" }

func (t *CreateDirectoryTool) Description() string {
	return "Creates a directory, including any missing parent directories."
}

func (t *CreateDirectoryTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The path of the directory to create"
			}
		},
		"required": ["path"]
	}`)
}

func (t *CreateDirectoryTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params CreateDirectoryInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	resolved := resolvePath(params.Path, t.workDir)
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Result{
		Title:    fmt.Sprintf("Created %s", filepath.Base(params.Path)),
		Output:   fmt.Sprintf("Successfully created directory %s", params.Path),
		Metadata: map[string]any{"directory": params.Path},
	}, nil
}

// GetFileInfoTool reports file metadata.
type GetFileInfoTool struct {
	workDir string
}

// GetFileInfoInput represents the input for the get_file_info tool.
type GetFileInfoInput struct {
	Path string `json:"path"`
}

// NewGetFileInfoTool creates a new get_file_info tool.
func NewGetFileInfoTool(workDir string) *GetFileInfoTool {
	return &GetFileInfoTool{workDir: workDir}
}

func (t *GetFileInfoTool) ID() string { return "get_file_info" }

func (t *GetFileInfoTool) Description() string {
	return "Returns metadata about a file or directory: size, type, permissions, and modification time."
}

func (t *GetFileInfoTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The path to inspect"
			}
		},
		"required": ["path"]
	}`)
}

func (t *GetFileInfoTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params GetFileInfoInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	resolved := resolvePath(params.Path, t.workDir)
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("path not found: %s", params.Path)
	}

	kind := "file"
	if info.IsDir() {
		kind = "directory"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Path: %s\n", params.Path)
	fmt.Fprintf(&sb, "Type: %s\n", kind)
	fmt.Fprintf(&sb, "Size: %d bytes\n", info.Size())
	fmt.Fprintf(&sb, "Permissions: %s\n", info.Mode().Perm())
	fmt.Fprintf(&sb, "Modified: %s", info.ModTime().Format("2006-01-02 15:04:05"))

	return &Result{
		Title:  fmt.Sprintf("Info for %s", filepath.Base(params.Path)),
		Output: sb.String(),
		Metadata: map[string]any{
			"path":     params.Path,
			"type":     kind,
			"size":     info.Size(),
			"modified": info.ModTime().Unix(),
		},
	}, nil
}

// ListDirectoryTool lists directory entries.
type ListDirectoryTool struct {
	workDir string
}

// ListDirectoryInput represents the input for the list_directory tool.
type ListDirectoryInput struct {
	Path string `json:"path,omitempty"`
}

// NewListDirectoryTool creates a new list_directory tool.
func NewListDirectoryTool(workDir string) *ListDirectoryTool {
	return &ListDirectoryTool{workDir: workDir}
}

func (t *ListDirectoryTool) ID() string { return "list_directory" }

func (t *ListDirectoryTool) Description() string {
	return "Lists the entries of a directory. Directories are marked with a trailing slash."
}

func (t *ListDirectoryTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The directory to list. Defaults to the working directory."
			}
		}
	}`)
}

func (t *ListDirectoryTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params ListDirectoryInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	path := params.Path
	if path == "" {
		path = "."
	}
	resolved := resolvePath(path, t.workDir)

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	output := strings.Join(names, "\n")
	if output == "" {
		output = "(empty directory)"
	}

	return &Result{
		Title:  fmt.Sprintf("Listed %s", path),
		Output: output,
		Metadata: map[string]any{
			"directory": path,
			"entries":   len(names),
		},
	}, nil
}
