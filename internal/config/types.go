package config

// Config is the root configuration for chatd.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	Model   ModelConfig   `yaml:"model,omitempty"`
	Tools   ToolsConfig   `yaml:"tools,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// GatewayConfig controls the HTTP API server.
type GatewayConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// ModelConfig configures the model gateway client.
type ModelConfig struct {
	BaseURL     string  `yaml:"baseUrl,omitempty"`
	APIKey      string  `yaml:"apiKey,omitempty"` // supports ${ENV_VAR} references
	Model       string  `yaml:"model,omitempty"`
	TitleModel  string  `yaml:"titleModel,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
}

// ToolsConfig configures the tool gateway client.
type ToolsConfig struct {
	Endpoint       string `yaml:"endpoint,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// SessionConfig defines session storage behavior.
type SessionConfig struct {
	Store        string `yaml:"store,omitempty"` // "sqlite" | "memory"
	Path         string `yaml:"path,omitempty"`  // sqlite database file; defaults under the data dir
	HistoryLimit int    `yaml:"historyLimit,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
