package tool

import (
	"sort"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/clippy-ai/clippy/internal/logging"
)

// Registry manages tool registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	workDir string
}

// NewRegistry creates a new tool registry.
func NewRegistry(workDir string) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		workDir: workDir,
	}
}

// WorkDir returns the registry's working directory.
func (r *Registry) WorkDir() string { return r.workDir }

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	logging.Debug().Str("tool", tool.ID()).Msg("registering tool")
	r.tools[tool.ID()] = tool
}

// Unregister removes a tool from the registry.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, id)
}

// Get retrieves a tool by ID.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[id]
	return tool, ok
}

// List returns all registered tools sorted by ID.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].ID() < tools[j].ID() })
	return tools
}

// IDs returns all tool IDs sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ToolInfos returns Eino tool infos for all tools, optionally filtered by an
// enable map (nil means all enabled).
func (r *Registry) ToolInfos(enabled map[string]bool) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, t := range r.List() {
		if enabled != nil {
			if on, ok := enabled[t.ID()]; ok && !on {
				continue
			}
		}
		infos = append(infos, Info(t))
	}
	return infos
}

// DefaultRegistry creates a registry with all built-in tools. The task tool
// needs an executor and is registered separately via RegisterTaskTool.
func DefaultRegistry(workDir string) *Registry {
	r := NewRegistry(workDir)

	r.Register(NewReadFileTool(workDir))
	r.Register(NewReadFilesTool(workDir))
	r.Register(NewWriteFileTool(workDir))
	r.Register(NewEditFileTool(workDir))
	r.Register(NewDeleteFileTool(workDir))
	r.Register(NewCreateDirectoryTool(workDir))
	r.Register(NewGetFileInfoTool(workDir))
	r.Register(NewListDirectoryTool(workDir))
	r.Register(NewExecuteCommandTool(workDir))
	r.Register(NewSearchFilesTool(workDir))
	r.Register(NewGrepTool(workDir))
	r.Register(NewWebFetchTool(workDir))
	r.Register(NewGitAnalyzerTool(workDir))
	r.Register(NewPRManagerTool(workDir))

	logging.Debug().Int("tools", len(r.tools)).Msg("default registry created")
	return r
}

// RegisterTaskTool registers the task tool backed by executor.
func (r *Registry) RegisterTaskTool(executor TaskExecutor, agents map[string]string) {
	r.Register(NewTaskTool(r.workDir, executor, agents))
}
