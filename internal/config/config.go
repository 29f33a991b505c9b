package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
)

// DefaultMaxIterations bounds the agent loop when no override is configured.
const DefaultMaxIterations = 25

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.clippy/)
// 2. Global config (~/.config/clippy/ - XDG compatible)
// 3. Project config (.clippy/)
// 4. CLIPPY_CONFIG file
// 5. CLIPPY_CONFIG_CONTENT inline JSON
// 6. Environment variables
func Load(directory string) (*Config, error) {
	// A project .env participates in env interpolation and overrides.
	if directory != "" {
		godotenv.Load(filepath.Join(directory, ".env"))
	}

	config := &Config{
		MaxIterations: DefaultMaxIterations,
		Provider:      make(map[string]ProviderConfig),
		Agent:         make(map[string]AgentConfig),
	}

	loaded := make(map[string]bool)

	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Home-dot global config (~/.clippy/)
	home := os.Getenv("HOME")
	if home != "" {
		dotDir := filepath.Join(home, ".clippy")
		loadOnce(filepath.Join(dotDir, "clippy.json"), dotDir)
		loadOnce(filepath.Join(dotDir, "clippy.jsonc"), dotDir)
	}

	// 2. XDG-compatible global config (~/.config/clippy/)
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "clippy.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "clippy.jsonc"), globalPath)

	// 3. Project config
	if directory != "" {
		projectDir := filepath.Join(directory, ".clippy")
		loadOnce(filepath.Join(directory, "clippy.json"), directory)
		loadOnce(filepath.Join(directory, "clippy.jsonc"), directory)
		loadOnce(filepath.Join(projectDir, "clippy.json"), projectDir)
		loadOnce(filepath.Join(projectDir, "clippy.jsonc"), projectDir)
	}

	// 4. CLIPPY_CONFIG file override
	if configPath := os.Getenv("CLIPPY_CONFIG"); configPath != "" {
		loadOnce(configPath, filepath.Dir(configPath))
	}

	// 5. CLIPPY_CONFIG_CONTENT inline JSON
	if configContent := os.Getenv("CLIPPY_CONFIG_CONTENT"); configContent != "" {
		var inline Config
		if err := json.Unmarshal([]byte(configContent), &inline); err == nil {
			mergeConfig(config, &inline)
		}
	}

	// 6. Environment variables (highest priority)
	applyEnvOverrides(config)

	normalizeProviderConfig(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
func loadConfigFile(path string, config *Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data, baseDir)

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

var (
	envPattern  = regexp.MustCompile(`\{env:([^}]+)\}`)
	filePattern = regexp.MustCompile(`\{file:([^}]+)\}`)
)

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(filePath, "~/") {
			filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // keep the placeholder when the file is missing
		}

		escaped := strings.ReplaceAll(strings.TrimSpace(string(content)), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")
		return escaped
	})

	return []byte(str)
}

// normalizeProviderConfig merges nested Options into the direct fields.
func normalizeProviderConfig(config *Config) {
	for name, provider := range config.Provider {
		if provider.Options != nil {
			if provider.Options.APIKey != "" {
				provider.APIKey = provider.Options.APIKey
			}
			if provider.Options.BaseURL != "" {
				provider.BaseURL = provider.Options.BaseURL
			}
		}
		config.Provider[name] = provider
	}
}

// mergeConfig merges source into target. Scalars overwrite when set, maps
// merge key by key, instructions append.
func mergeConfig(target, source *Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.Model != "" {
		target.Model = source.Model
	}
	if source.SmallModel != "" {
		target.SmallModel = source.SmallModel
	}
	if source.MaxIterations > 0 {
		target.MaxIterations = source.MaxIterations
	}
	if source.Username != "" {
		target.Username = source.Username
	}
	if len(source.Instructions) > 0 {
		target.Instructions = append(target.Instructions, source.Instructions...)
	}

	if source.Tools != nil {
		if target.Tools == nil {
			target.Tools = make(map[string]bool)
		}
		for k, v := range source.Tools {
			target.Tools[k] = v
		}
	}

	if source.Provider != nil {
		if target.Provider == nil {
			target.Provider = make(map[string]ProviderConfig)
		}
		for k, v := range source.Provider {
			target.Provider[k] = v
		}
	}

	if source.Agent != nil {
		if target.Agent == nil {
			target.Agent = make(map[string]AgentConfig)
		}
		for k, v := range source.Agent {
			target.Agent[k] = v
		}
	}

	if source.MCP != nil {
		if target.MCP == nil {
			target.MCP = make(map[string]MCPConfig)
		}
		for k, v := range source.MCP {
			target.MCP[k] = v
		}
	}

	if source.Permission != nil {
		target.Permission = source.Permission
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *Config) {
	providerEnvMap := map[string]string{
		"anthropic": "ANTHROPIC_API_KEY",
		"openai":    "OPENAI_API_KEY",
	}

	for provider, envVar := range providerEnvMap {
		if apiKey := os.Getenv(envVar); apiKey != "" {
			if config.Provider == nil {
				config.Provider = make(map[string]ProviderConfig)
			}
			p := config.Provider[provider]
			if p.APIKey == "" {
				p.APIKey = apiKey
				config.Provider[provider] = p
			}
		}
	}

	if model := os.Getenv("CLIPPY_MODEL"); model != "" {
		config.Model = model
	}
	if smallModel := os.Getenv("CLIPPY_SMALL_MODEL"); smallModel != "" {
		config.SmallModel = smallModel
	}
	if permJSON := os.Getenv("CLIPPY_PERMISSION"); permJSON != "" {
		var perm PermissionConfig
		if err := json.Unmarshal([]byte(permJSON), &perm); err == nil {
			config.Permission = &perm
		}
	}
}

// Save writes the configuration to a file.
func Save(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
