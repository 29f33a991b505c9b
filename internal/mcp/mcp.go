// Package mcp connects to Model Context Protocol servers over stdio and
// exposes their tools to the agent.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clippy-ai/clippy/internal/config"
	"github.com/clippy-ai/clippy/internal/logging"
)

const connectTimeout = 10 * time.Second

// Manager holds the connected MCP servers.
type Manager struct {
	mu      sync.RWMutex
	servers map[string]*server
}

type server struct {
	name   string
	client *client.Client
	tools  []mcp.Tool
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{servers: make(map[string]*server)}
}

// FromConfig connects every enabled server in the config. Servers that fail
// to start are logged and skipped so one broken entry cannot take the whole
// session down.
func FromConfig(ctx context.Context, cfg *config.Config) *Manager {
	m := NewManager()
	log := logging.With("mcp")
	for name, sc := range cfg.MCP {
		if sc.Disabled {
			continue
		}
		if err := m.Connect(ctx, name, sc); err != nil {
			log.Warn().Str("server", name).Err(err).Msg("mcp server unavailable")
		}
	}
	return m
}

// Connect launches the server process, initializes the session, and lists
// its tools.
func (m *Manager) Connect(ctx context.Context, name string, cfg config.MCPConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.servers[name]; ok {
		return fmt.Errorf("mcp server %q already connected", name)
	}
	if cfg.Command == "" {
		return fmt.Errorf("mcp server %q has no command", name)
	}

	c, err := client.NewStdioMCPClient(cfg.Command, formatEnv(cfg.Env), cfg.Args...)
	if err != nil {
		return fmt.Errorf("starting mcp server %q: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "clippy", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return fmt.Errorf("initializing mcp server %q: %w", name, err)
	}

	toolsResult, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = c.Close()
		return fmt.Errorf("listing tools on %q: %w", name, err)
	}

	m.servers[name] = &server{name: name, client: c, tools: toolsResult.Tools}
	log := logging.With("mcp")
	log.Info().Str("server", name).Int("tools", len(toolsResult.Tools)).Msg("mcp server connected")
	return nil
}

// Tools returns wrappers for every discovered tool, sorted by ID.
func (m *Manager) Tools() []*ServerTool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*ServerTool
	for _, srv := range m.servers {
		for _, t := range srv.tools {
			out = append(out, &ServerTool{
				client:     srv.client,
				serverName: srv.name,
				tool:       t,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ServerNames returns the connected server names, sorted.
func (m *Manager) ServerNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.servers))
	for name := range m.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close shuts down every server process.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, srv := range m.servers {
		if err := srv.client.Close(); err != nil {
			logging.With("mcp").Warn().Str("server", name).Err(err).Msg("closing mcp server")
		}
	}
	m.servers = make(map[string]*server)
}

func formatEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(env))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// toolID builds the registry ID for a server tool. The mcp_ prefix routes
// the call to the MCP permission action.
func toolID(serverName, toolName string) string {
	sanitize := func(s string) string {
		var sb strings.Builder
		for _, r := range s {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
				sb.WriteRune(r)
			default:
				sb.WriteByte('_')
			}
		}
		return sb.String()
	}
	return fmt.Sprintf("mcp_%s_%s", sanitize(serverName), sanitize(toolName))
}
