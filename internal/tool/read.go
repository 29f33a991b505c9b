package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const readFileDescription = `Reads a file from the local filesystem.

Usage:
- Relative paths are resolved against the working directory
- By default, reads up to 2000 lines from the beginning
- You can optionally specify offset and limit for pagination
- Returns file contents with line numbers`

const defaultReadLimit = 2000

// ReadFileTool implements file reading.
type ReadFileTool struct {
	workDir string
}

// ReadFileInput represents the input for the read_file tool.
type ReadFileInput struct {
	Path   string `json:"path"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// NewReadFileTool creates a new read_file tool.
func NewReadFileTool(workDir string) *ReadFileTool {
	return &ReadFileTool{workDir: workDir}
}

func (t *ReadFileTool) ID() string          { return "read_file" }
func (t *ReadFileTool) Description() string { return readFileDescription }

func (t *ReadFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The path of the file to read"
			},
			"offset": {
				"type": "integer",
				"description": "Line number to start reading from"
			},
			"limit": {
				"type": "integer",
				"description": "Number of lines to read (default: 2000)"
			}
		},
		"required": ["path"]
	}`)
}

func (t *ReadFileTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params ReadFileInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	output, totalLines, readLines, err := readNumbered(params.Path, t.workDir, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	return &Result{
		Title:  fmt.Sprintf("Read %s", filepath.Base(params.Path)),
		Output: output,
		Metadata: map[string]any{
			"file":       params.Path,
			"lines":      readLines,
			"totalLines": totalLines,
		},
	}, nil
}

// readNumbered reads one file and formats it with line numbers. It returns
// the formatted output, the total line count, and the number of lines read.
func readNumbered(path, workDir string, offset, limit int) (string, int, int, error) {
	if limit <= 0 {
		limit = defaultReadLimit
	}

	resolved := resolvePath(path, workDir)

	if shouldBlockEnvFile(resolved) {
		return "", 0, 0, fmt.Errorf("reading %s is blocked, do not make further attempts to read it", path)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", 0, 0, fmt.Errorf("file not found: %s", path)
	}
	if info.IsDir() {
		return "", 0, 0, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if isBinaryFile(resolved) {
		return "", 0, 0, fmt.Errorf("file appears to be binary: %s", path)
	}

	file, err := os.Open(resolved)
	if err != nil {
		return "", 0, 0, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if offset > 0 && lineNum < offset {
			continue
		}
		if len(lines) >= limit {
			break
		}

		line := scanner.Text()
		if len(line) > 2000 {
			line = line[:2000] + "..."
		}
		lines = append(lines, fmt.Sprintf("%5d| %s", lineNum, line))
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(lines, "\n"))

	lastReadLine := offset + len(lines)
	if lineNum > lastReadLine {
		sb.WriteString(fmt.Sprintf("\n\n(File has more lines. Use 'offset' to read beyond line %d)", lastReadLine))
	} else {
		sb.WriteString(fmt.Sprintf("\n\n(End of file - total %d lines)", lineNum))
	}

	return sb.String(), lineNum, len(lines), nil
}

func isBinaryFile(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	buf := make([]byte, 8000)
	n, _ := file.Read(buf)
	if n == 0 {
		return false
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}

	nonPrintable := 0
	for i := 0; i < n; i++ {
		if buf[i] < 32 && buf[i] != '\n' && buf[i] != '\r' && buf[i] != '\t' {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(n) > 0.3
}
