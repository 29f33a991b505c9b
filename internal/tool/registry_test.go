package tool

import (
	"strings"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(t.TempDir())

	for _, id := range []string{
		"read_file", "read_files", "write_file", "edit_file", "delete_file",
		"create_directory", "get_file_info", "list_directory",
		"execute_command", "search_files", "grep", "web_fetch",
		"git_analyzer", "pr_manager",
	} {
		if _, ok := r.Get(id); !ok {
			t.Errorf("missing tool %s", id)
		}
	}

	if _, ok := r.Get("task"); ok {
		t.Error("task tool should not be registered by default")
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := DefaultRegistry(t.TempDir())
	r.Unregister("grep")
	if _, ok := r.Get("grep"); ok {
		t.Error("grep still registered")
	}
}

func TestRegistryToolInfos(t *testing.T) {
	r := DefaultRegistry(t.TempDir())

	infos := r.ToolInfos(nil)
	if len(infos) != len(r.IDs()) {
		t.Errorf("got %d infos for %d tools", len(infos), len(r.IDs()))
	}

	filtered := r.ToolInfos(map[string]bool{"grep": false})
	if len(filtered) != len(infos)-1 {
		t.Errorf("filter not applied: %d vs %d", len(filtered), len(infos))
	}
	for _, info := range filtered {
		if info.Name == "grep" {
			t.Error("grep should be filtered out")
		}
	}
}

func TestToolInfoSchema(t *testing.T) {
	r := DefaultRegistry(t.TempDir())
	tl, _ := r.Get("edit_file")

	info := Info(tl)
	if info.Name != "edit_file" {
		t.Errorf("got %s", info.Name)
	}
	if info.Desc == "" || !strings.Contains(info.Desc, "block_replace") {
		t.Errorf("description missing operations: %s", info.Desc)
	}
}

func TestRegisterTaskTool(t *testing.T) {
	r := NewRegistry(t.TempDir())
	r.RegisterTaskTool(nil, map[string]string{"general": "General-purpose subagent"})

	tl, ok := r.Get("task")
	if !ok {
		t.Fatal("task tool not registered")
	}
	if !strings.Contains(tl.Description(), "general: General-purpose subagent") {
		t.Errorf("subagent listing missing: %s", tl.Description())
	}
}
