package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clippy-ai/clippy/internal/config"
)

func TestSystemPromptBase(t *testing.T) {
	workDir := t.TempDir()
	prompt := SystemPrompt(&config.Config{}, workDir, "")

	assert.Contains(t, prompt, "Clippy")
	assert.Contains(t, prompt, workDir)
}

func TestSystemPromptOverride(t *testing.T) {
	prompt := SystemPrompt(&config.Config{}, t.TempDir(), "You are a reviewer.")

	assert.Contains(t, prompt, "You are a reviewer.")
	assert.NotContains(t, prompt, "Microsoft Office")
}

func TestSystemPromptInstructionsAndUsername(t *testing.T) {
	cfg := &config.Config{
		Username:     "sam",
		Instructions: []string{"Prefer tabs", "Never touch vendored code"},
	}
	prompt := SystemPrompt(cfg, t.TempDir(), "")

	assert.Contains(t, prompt, "assisting sam")
	assert.Contains(t, prompt, "- Prefer tabs")
	assert.Contains(t, prompt, "- Never touch vendored code")
}

func TestSystemPromptProjectDocs(t *testing.T) {
	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "AGENTS.md"), []byte("Always run make lint."), 0o644))

	prompt := SystemPrompt(&config.Config{}, workDir, "")
	assert.Contains(t, prompt, "PROJECT DOCUMENTATION:")
	assert.Contains(t, prompt, "Always run make lint.")
}

func TestSystemPromptDocFilePreference(t *testing.T) {
	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "AGENTS.md"), []byte("from AGENTS"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "CLIPPY.md"), []byte("from CLIPPY"), 0o644))

	prompt := SystemPrompt(&config.Config{}, workDir, "")
	assert.Contains(t, prompt, "from AGENTS")
	assert.NotContains(t, prompt, "from CLIPPY")
}
