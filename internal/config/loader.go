package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so API keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Model.APIKey = expandEnvVars(cfg.Model.APIKey)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			expandSensitiveFields(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 3001
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "lan"
	}
	if cfg.Model.Model == "" {
		cfg.Model.Model = "gpt-4o"
	}
	if cfg.Model.Temperature == 0 {
		cfg.Model.Temperature = 0.7
	}
	if cfg.Tools.Endpoint == "" {
		cfg.Tools.Endpoint = "http://localhost:8080/mcp"
	}
	if cfg.Tools.TimeoutSeconds == 0 {
		cfg.Tools.TimeoutSeconds = 60
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = "sqlite"
	}
	if cfg.Session.HistoryLimit == 0 {
		cfg.Session.HistoryLimit = 100
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads CHATD_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHATD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("CHATD_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	if v := os.Getenv("CHATD_MODEL"); v != "" {
		cfg.Model.Model = v
	}
	if v := os.Getenv("CHATD_MODEL_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Model.APIKey == "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("CHATD_TOOLS_ENDPOINT"); v != "" {
		cfg.Tools.Endpoint = v
	}
	if v := os.Getenv("CHATD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
