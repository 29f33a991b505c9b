package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clippy-ai/clippy/internal/config"
)

func TestNewManagerEmpty(t *testing.T) {
	m := NewManager()
	assert.Empty(t, m.Tools())
	assert.Empty(t, m.ServerNames())
	m.Close()
}

func TestConnectRequiresCommand(t *testing.T) {
	m := NewManager()
	err := m.Connect(context.Background(), "broken", config.MCPConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command")
}

func TestFromConfigSkipsDisabled(t *testing.T) {
	cfg := &config.Config{
		MCP: map[string]config.MCPConfig{
			"off": {Command: "does-not-exist", Disabled: true},
		},
	}
	m := FromConfig(context.Background(), cfg)
	assert.Empty(t, m.ServerNames())
}

func TestToolID(t *testing.T) {
	assert.Equal(t, "mcp_github_search_issues", toolID("github", "search_issues"))
	assert.Equal(t, "mcp_my_server_list_files", toolID("my-server", "list.files"))
}

func TestFormatEnv(t *testing.T) {
	assert.Nil(t, formatEnv(nil))
	env := formatEnv(map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, []string{"A=1", "B=2"}, env)
}

func TestTextFromResult(t *testing.T) {
	assert.Empty(t, textFromResult(nil))

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "first"},
			mcp.TextContent{Type: "text", Text: "second"},
		},
	}
	assert.Equal(t, "first\nsecond", textFromResult(result))
}

func TestServerToolShape(t *testing.T) {
	st := &ServerTool{
		serverName: "calc",
		tool: mcp.Tool{
			Name:        "sum",
			Description: "Adds numbers",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"numbers": map[string]any{"type": "array"},
				},
			},
		},
	}

	assert.Equal(t, "mcp_calc_sum", st.ID())
	assert.Equal(t, "Adds numbers", st.Description())

	var schema map[string]any
	require.NoError(t, json.Unmarshal(st.Parameters(), &schema))
	assert.Equal(t, "object", schema["type"])
}

func TestServerToolDescriptionFallback(t *testing.T) {
	st := &ServerTool{serverName: "calc", tool: mcp.Tool{Name: "sum"}}
	assert.Contains(t, st.Description(), "calc")
	assert.Contains(t, st.Description(), "sum")
}
