package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clippy-ai/clippy/internal/tool"
)

// ServerTool adapts one MCP server tool to the agent's tool interface.
type ServerTool struct {
	client     *client.Client
	serverName string
	tool       mcp.Tool
}

func (t *ServerTool) ID() string {
	return toolID(t.serverName, t.tool.Name)
}

func (t *ServerTool) Description() string {
	if t.tool.Description == "" {
		return fmt.Sprintf("Tool %q provided by the %s MCP server.", t.tool.Name, t.serverName)
	}
	return t.tool.Description
}

func (t *ServerTool) Parameters() json.RawMessage {
	data, err := json.Marshal(t.tool.InputSchema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return data
}

func (t *ServerTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *tool.Context) (*tool.Result, error) {
	var args map[string]any
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", t.tool.Name, err)
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = t.tool.Name
	req.Params.Arguments = args

	result, err := t.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling %s on %s: %w", t.tool.Name, t.serverName, err)
	}

	output := textFromResult(result)
	res := &tool.Result{
		Title:  fmt.Sprintf("%s (%s)", t.tool.Name, t.serverName),
		Output: output,
		Metadata: map[string]any{
			"server": t.serverName,
			"tool":   t.tool.Name,
		},
	}
	if result.IsError {
		if output == "" {
			output = "tool call failed"
		}
		res.Error = errors.New(output)
	}
	return res, nil
}

// textFromResult flattens the text content blocks of a call result.
func textFromResult(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
