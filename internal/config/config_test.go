package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	for _, v := range []string{
		"CLIPPY_CONFIG", "CLIPPY_CONFIG_CONTENT", "CLIPPY_MODEL",
		"CLIPPY_SMALL_MODEL", "CLIPPY_PERMISSION",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(v, "") // register restore
		os.Unsetenv(v)
	}
	return tmpDir
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadProjectConfig(t *testing.T) {
	home := isolateEnv(t)
	project := filepath.Join(home, "project")

	writeConfig(t, filepath.Join(project, ".clippy", "clippy.json"), `{
		"model": "anthropic/claude-sonnet-4-20250514",
		"max_iterations": 40,
		"username": "testuser",
		"provider": {
			"anthropic": {
				"options": {"apiKey": "sk-ant-test123"}
			}
		},
		"agent": {
			"reviewer": {
				"description": "Reviews code",
				"temperature": 0.2,
				"tools": {"edit_file": false}
			}
		}
	}`)

	cfg, err := Load(project)
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-sonnet-4-20250514", cfg.Model)
	assert.Equal(t, 40, cfg.MaxIterations)
	assert.Equal(t, "testuser", cfg.Username)

	// nested options are normalized onto the direct fields
	assert.Equal(t, "sk-ant-test123", cfg.Provider["anthropic"].APIKey)

	reviewer := cfg.Agent["reviewer"]
	assert.Equal(t, "Reviews code", reviewer.Description)
	require.NotNil(t, reviewer.Temperature)
	assert.Equal(t, 0.2, *reviewer.Temperature)
	assert.False(t, reviewer.Tools["edit_file"])
}

func TestLoadJSONCComments(t *testing.T) {
	home := isolateEnv(t)
	project := filepath.Join(home, "project")

	writeConfig(t, filepath.Join(project, "clippy.jsonc"), `{
		// the model to use
		"model": "openai/gpt-4o",
	}`)

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", cfg.Model)
}

func TestProjectOverridesGlobal(t *testing.T) {
	home := isolateEnv(t)
	project := filepath.Join(home, "project")

	writeConfig(t, filepath.Join(home, ".clippy", "clippy.json"),
		`{"model": "global-model", "username": "global"}`)
	writeConfig(t, filepath.Join(project, ".clippy", "clippy.json"),
		`{"model": "project-model"}`)

	cfg, err := Load(project)
	require.NoError(t, err)

	assert.Equal(t, "project-model", cfg.Model)
	assert.Equal(t, "global", cfg.Username)
}

func TestEnvInterpolation(t *testing.T) {
	home := isolateEnv(t)
	project := filepath.Join(home, "project")
	t.Setenv("CLIPPY_TEST_KEY", "from-env")

	writeConfig(t, filepath.Join(project, "clippy.json"), `{
		"provider": {"openai": {"api_key": "{env:CLIPPY_TEST_KEY}"}}
	}`)

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Provider["openai"].APIKey)
}

func TestFileInterpolation(t *testing.T) {
	home := isolateEnv(t)
	project := filepath.Join(home, "project")

	require.NoError(t, os.MkdirAll(project, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, "key.txt"), []byte("sk-from-file\n"), 0o600))
	writeConfig(t, filepath.Join(project, "clippy.json"), `{
		"provider": {"openai": {"api_key": "{file:key.txt}"}}
	}`)

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", cfg.Provider["openai"].APIKey)
}

func TestEnvOverrides(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-env-key")
	t.Setenv("CLIPPY_MODEL", "anthropic/claude-opus-4")

	cfg, err := Load(home)
	require.NoError(t, err)

	assert.Equal(t, "sk-env-key", cfg.Provider["anthropic"].APIKey)
	assert.Equal(t, "anthropic/claude-opus-4", cfg.Model)
}

func TestInlineConfigContent(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("CLIPPY_CONFIG_CONTENT", `{"model": "inline-model"}`)

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, "inline-model", cfg.Model)
}

func TestDefaults(t *testing.T) {
	home := isolateEnv(t)

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	assert.Empty(t, cfg.Model)
}

func TestDotEnvLoaded(t *testing.T) {
	home := isolateEnv(t)
	project := filepath.Join(home, "project")

	require.NoError(t, os.MkdirAll(project, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".env"),
		[]byte("OPENAI_API_KEY=sk-dotenv\n"), 0o600))

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", cfg.Provider["openai"].APIKey)
}
