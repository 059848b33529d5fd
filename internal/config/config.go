package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Extractor providers.
const (
	ExtractorNone       = "none"
	ExtractorStatic     = "static"
	ExtractorOpenAI     = "openai"
	ExtractorOpenRouter = "openrouter"
)

// Config holds application configuration.
type Config struct {
	// UserID is the acting identity that owns captures, projects and artifacts.
	UserID string `json:"user_id,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names ("capture", "project", "transcript")
	// whose tools are excluded from registration.
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// LogDiagnostics logs the full reduction diagnostics payload at debug level.
	LogDiagnostics bool `json:"log_diagnostics,omitempty"`

	Extractor ExtractorConfig `json:"extractor,omitempty"`

	HTTP HTTPConfig `json:"http,omitempty"`
}

// ExtractorConfig selects the insight extractor used by reduction.
type ExtractorConfig struct {
	// Provider is one of none, static, openai, openrouter.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `json:"api_key_env,omitempty"`

	// ScriptPath is the YAML file read by the static extractor.
	ScriptPath string `json:"script_path,omitempty"`
}

// HTTPConfig configures the JSON API server.
type HTTPConfig struct {
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		UserID:   "local",
		LogLevel: "info",
		Extractor: ExtractorConfig{
			Provider: ExtractorNone,
		},
		HTTP: HTTPConfig{
			Bind: "127.0.0.1",
			Port: 7465,
		},
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.sift) and repo (.sift) directories.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .sift/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".sift", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.UserID = firstNonEmpty(overlay.UserID, base.UserID)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}
	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.LogDiagnostics = base.LogDiagnostics || overlay.LogDiagnostics

	result.Extractor = ExtractorConfig{
		Provider:   firstNonEmpty(overlay.Extractor.Provider, base.Extractor.Provider),
		Model:      firstNonEmpty(overlay.Extractor.Model, base.Extractor.Model),
		BaseURL:    firstNonEmpty(overlay.Extractor.BaseURL, base.Extractor.BaseURL),
		APIKeyEnv:  firstNonEmpty(overlay.Extractor.APIKeyEnv, base.Extractor.APIKeyEnv),
		ScriptPath: firstNonEmpty(overlay.Extractor.ScriptPath, base.Extractor.ScriptPath),
	}

	result.HTTP.Bind = firstNonEmpty(overlay.HTTP.Bind, base.HTTP.Bind)
	result.HTTP.Port = overlay.HTTP.Port
	if result.HTTP.Port == 0 {
		result.HTTP.Port = base.HTTP.Port
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
