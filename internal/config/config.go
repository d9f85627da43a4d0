package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: 3001,
			Bind: "lan",
		},
		Model: ModelConfig{
			Model:       "gpt-4o",
			Temperature: 0.7,
		},
		Tools: ToolsConfig{
			Endpoint:       "http://localhost:8080/mcp",
			TimeoutSeconds: 60,
		},
		Session: SessionConfig{
			Store:        "sqlite",
			HistoryLimit: 100,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
