package config

// Config is the merged clippy configuration.
type Config struct {
	Schema        string                    `json:"$schema,omitempty"`
	Model         string                    `json:"model,omitempty"`
	SmallModel    string                    `json:"small_model,omitempty"`
	MaxIterations int                       `json:"max_iterations,omitempty"`
	Username      string                    `json:"username,omitempty"`
	Instructions  []string                  `json:"instructions,omitempty"`
	Tools         map[string]bool           `json:"tools,omitempty"`
	Provider      map[string]ProviderConfig `json:"provider,omitempty"`
	Agent         map[string]AgentConfig    `json:"agent,omitempty"`
	MCP           map[string]MCPConfig      `json:"mcp,omitempty"`
	Permission    *PermissionConfig         `json:"permission,omitempty"`
}

// ProviderConfig configures one model provider.
type ProviderConfig struct {
	APIKey   string           `json:"api_key,omitempty"`
	BaseURL  string           `json:"base_url,omitempty"`
	Model    string           `json:"model,omitempty"`
	Disabled bool             `json:"disabled,omitempty"`
	Options  *ProviderOptions `json:"options,omitempty"`
}

// ProviderOptions holds nested provider fields for compatibility with
// camelCase config files. They take precedence over the direct fields.
type ProviderOptions struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseURL,omitempty"`
}

// AgentConfig configures a named subagent.
type AgentConfig struct {
	Description string            `json:"description,omitempty"`
	Model       string            `json:"model,omitempty"`
	Prompt      string            `json:"prompt,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
	TopP        *float64          `json:"top_p,omitempty"`
	Tools       map[string]bool   `json:"tools,omitempty"`
	Permission  map[string]string `json:"permission,omitempty"`
}

// MCPConfig configures one MCP server launched over stdio.
type MCPConfig struct {
	Command  string            `json:"command"`
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`
}

// PermissionConfig maps tool actions and bash patterns to decisions
// ("allow", "deny", "ask").
type PermissionConfig struct {
	Default string            `json:"default,omitempty"`
	Actions map[string]string `json:"actions,omitempty"`
	Bash    map[string]string `json:"bash,omitempty"`
}
