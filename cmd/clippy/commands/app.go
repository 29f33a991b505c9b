package commands

import (
	"context"
	"fmt"

	"github.com/clippy-ai/clippy/internal/agent"
	"github.com/clippy-ai/clippy/internal/config"
	"github.com/clippy-ai/clippy/internal/mcp"
	"github.com/clippy-ai/clippy/internal/permission"
	"github.com/clippy-ai/clippy/internal/provider"
	"github.com/clippy-ai/clippy/internal/storage"
	"github.com/clippy-ai/clippy/internal/tool"
	"github.com/clippy-ai/clippy/internal/vcs"
)

// app holds everything a command needs wired together.
type app struct {
	workDir     string
	config      *config.Config
	providers   *provider.Registry
	tools       *tool.Registry
	permissions *permission.Manager
	agent       *agent.Agent
	subagents   *agent.SubagentManager
	mcp         *mcp.Manager
	watcher     *vcs.Watcher
}

// newApp loads the config and builds the full stack for one working
// directory. autoApprove turns every permission decision into allow.
func newApp(ctx context.Context, dir string, autoApprove bool) (*app, error) {
	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	providers, err := provider.FromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("no usable model providers: %w", err)
	}

	tools := tool.DefaultRegistry(dir)

	policy := buildPolicy(cfg, autoApprove)
	permissions := permission.NewManager(policy)

	mcpManager := mcp.FromConfig(ctx, cfg)
	for _, mcpTool := range mcpManager.Tools() {
		tools.Register(mcpTool)
	}

	store := agent.NewStore(storage.New(paths.StoragePath()))
	ag := agent.New(providers, tools, permissions, store, cfg, dir)

	subagents := agent.NewSubagentManager(ag, agent.LoadSubagents(cfg, dir), 0)
	tools.RegisterTaskTool(subagents, subagents.Descriptions())

	watcher, err := vcs.NewWatcher(dir)
	if err == nil && watcher != nil {
		watcher.Start()
	}

	return &app{
		workDir:     dir,
		config:      cfg,
		providers:   providers,
		tools:       tools,
		permissions: permissions,
		agent:       ag,
		subagents:   subagents,
		mcp:         mcpManager,
		watcher:     watcher,
	}, nil
}

func (a *app) close() {
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	if a.mcp != nil {
		a.mcp.Close()
	}
}

// buildPolicy layers the config's permission table over the defaults.
func buildPolicy(cfg *config.Config, autoApprove bool) permission.Policy {
	if autoApprove {
		return permission.Policy{Default: permission.Allow}
	}

	policy := permission.DefaultPolicy()
	if cfg.Permission == nil {
		return policy
	}
	if cfg.Permission.Default != "" {
		policy.Default = permission.Decision(cfg.Permission.Default)
	}
	for action, decision := range cfg.Permission.Actions {
		policy.Actions[permission.Action(action)] = permission.Decision(decision)
	}
	for pattern, decision := range cfg.Permission.Bash {
		policy.Bash[pattern] = permission.Decision(decision)
	}
	return policy
}
