/*
Package core provides configuration management and logging initialization
for the Cortex bridge.

This file handles:
- Loading configuration from the environment and an optional dotenv file
- Validating the settings required to reach the Cortex service
- Structured logging setup with configurable levels

Configuration is read once at startup and treated as immutable for the
lifetime of the process.
*/
package core

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"time"

	"cortexbridge/cortex"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configurable values for the bridge.
type Config struct {
	// Cortex service configuration
	AccountURL        string // Base URL of the Snowflake account (required)
	AccessToken       string // Programmatic access token (required)
	SearchService     string // Cortex Search service name (required)
	SemanticModelFile string // Stage path of the semantic model for text-to-SQL (optional)
	CortexModel       string // LLM used by the Cortex agent (default: "claude-3-5-sonnet")
	ProfilePath       string // Optional yaml file overriding the request template
	AgentTimeout      time.Duration
	SQLTimeoutSeconds int  // Server-side timeout hint for SQL statements (default: 60)
	LanguageGate      bool // Reject Japanese search queries with a translation request (default: true)

	// Server configuration
	Port string // HTTP server port number (default: "8080")

	// Chat host LLM configuration
	LLMProvider    string // "ollama" or "gemini" (default: "ollama")
	OllamaEndpoint string
	OllamaModel    string
	GeminiAPIKey   string
	GeminiModel    string
	MaxIterations  int           // Maximum ReAct iterations per chat request (default: 10)
	RequestTimeout time.Duration // Timeout for a whole chat request (default: 300s)

	// Logging and debugging configuration
	LogLevel          string
	LogTruncateLength int
	DebugMode         bool
}

var requiredKeys = []string{"SNOWFLAKE_ACCOUNT_URL", "SNOWFLAKE_PAT", "CORTEX_SEARCH_SERVICE"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CORTEX_MODEL", cortex.DefaultProfile().Model)
	v.SetDefault("SEMANTIC_MODEL_FILE", "")
	v.SetDefault("CORTEX_PROFILE", "")
	v.SetDefault("AGENT_TIMEOUT_SECONDS", int(cortex.DefaultAgentTimeout/time.Second))
	v.SetDefault("SQL_TIMEOUT_SECONDS", cortex.DefaultStatementTimeout)
	v.SetDefault("LANGUAGE_GATE", true)

	v.SetDefault("PORT", "8080")

	v.SetDefault("LLM_PROVIDER", "ollama")
	v.SetDefault("OLLAMA_ENDPOINT", "http://localhost:11434")
	v.SetDefault("OLLAMA_MODEL", "qwen3")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("MAX_ITERATIONS", 10)
	v.SetDefault("REQUEST_TIMEOUT", 300)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_TRUNCATE_LENGTH", 500)
	v.SetDefault("DEBUG_MODE", false)

	// Required keys carry empty defaults so AutomaticEnv resolves them.
	for _, key := range requiredKeys {
		v.SetDefault(key, "")
	}
}

// LoadConfig reads configuration from the process environment, layered over
// an optional dotenv file. When envFile is empty, ".env" in the working
// directory is used if it exists. Environment variables always win over the
// file. A *cortex.ConfigurationError is returned when required settings are absent.
func LoadConfig(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	explicit := envFile != ""
	if !explicit {
		envFile = ".env"
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if explicit || !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	config := &Config{
		AccountURL:        strings.TrimRight(v.GetString("SNOWFLAKE_ACCOUNT_URL"), "/"),
		AccessToken:       v.GetString("SNOWFLAKE_PAT"),
		SearchService:     v.GetString("CORTEX_SEARCH_SERVICE"),
		SemanticModelFile: v.GetString("SEMANTIC_MODEL_FILE"),
		CortexModel:       v.GetString("CORTEX_MODEL"),
		ProfilePath:       v.GetString("CORTEX_PROFILE"),
		AgentTimeout:      positiveSeconds(v.GetInt("AGENT_TIMEOUT_SECONDS"), cortex.DefaultAgentTimeout),
		SQLTimeoutSeconds: v.GetInt("SQL_TIMEOUT_SECONDS"),
		LanguageGate:      v.GetBool("LANGUAGE_GATE"),

		Port: v.GetString("PORT"),

		LLMProvider:    strings.ToLower(v.GetString("LLM_PROVIDER")),
		OllamaEndpoint: v.GetString("OLLAMA_ENDPOINT"),
		OllamaModel:    v.GetString("OLLAMA_MODEL"),
		GeminiAPIKey:   v.GetString("GEMINI_API_KEY"),
		GeminiModel:    v.GetString("GEMINI_MODEL"),
		MaxIterations:  v.GetInt("MAX_ITERATIONS"),
		RequestTimeout: positiveSeconds(v.GetInt("REQUEST_TIMEOUT"), 300*time.Second),

		LogLevel:          v.GetString("LOG_LEVEL"),
		LogTruncateLength: v.GetInt("LOG_TRUNCATE_LENGTH"),
		DebugMode:         v.GetBool("DEBUG_MODE"),
	}

	if config.SQLTimeoutSeconds <= 0 {
		config.SQLTimeoutSeconds = cortex.DefaultStatementTimeout
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = 10
	}
	if config.LogTruncateLength <= 0 {
		config.LogTruncateLength = 500
	}
	if config.LLMProvider != "ollama" && config.LLMProvider != "gemini" {
		config.LLMProvider = "ollama"
	}
	// Fall back to ollama when Gemini is selected without a key
	if config.LLMProvider == "gemini" && config.GeminiAPIKey == "" {
		config.LLMProvider = "ollama"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports the required settings that are missing.
func (c *Config) Validate() error {
	var missing []string
	if c.AccountURL == "" {
		missing = append(missing, "SNOWFLAKE_ACCOUNT_URL")
	}
	if c.AccessToken == "" {
		missing = append(missing, "SNOWFLAKE_PAT")
	}
	if c.SearchService == "" {
		missing = append(missing, "CORTEX_SEARCH_SERVICE")
	}
	if len(missing) > 0 {
		return &cortex.ConfigurationError{Missing: missing}
	}
	return nil
}

// CortexSettings builds the client settings, loading the request profile if one is configured.
func (c *Config) CortexSettings() (cortex.Settings, error) {
	profile := cortex.DefaultProfile()
	if c.ProfilePath != "" {
		loaded, err := cortex.LoadProfile(c.ProfilePath)
		if err != nil {
			return cortex.Settings{}, err
		}
		profile = loaded
	}
	if c.CortexModel != "" && c.CortexModel != cortex.DefaultProfile().Model {
		profile = profile.WithModel(c.CortexModel)
	}

	return cortex.Settings{
		BaseURL: c.AccountURL,
		Token:   c.AccessToken,
		Resources: cortex.Resources{
			SearchService:     c.SearchService,
			SemanticModelFile: c.SemanticModelFile,
		},
		Profile:          profile,
		AgentTimeout:     c.AgentTimeout,
		StatementTimeout: c.SQLTimeoutSeconds,
	}, nil
}

func positiveSeconds(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// InitializeLogger configures and returns a structured logger based on the provided configuration.
// The logger writes JSON with RFC3339 timestamps to out and logs the loaded
// configuration with the access token redacted.
func InitializeLogger(config *Config, out io.Writer) *logrus.Logger {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	// Set log level based on configuration with case-insensitive matching
	switch strings.ToLower(config.LogLevel) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	if config.DebugMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.SetOutput(out)

	logger.WithFields(logrus.Fields{
		"accountURL":        config.AccountURL,
		"accessToken":       redact(config.AccessToken),
		"searchService":     config.SearchService,
		"semanticModelFile": config.SemanticModelFile,
		"cortexModel":       config.CortexModel,
		"profile":           config.ProfilePath,
		"agentTimeout":      config.AgentTimeout,
		"sqlTimeoutSeconds": config.SQLTimeoutSeconds,
		"languageGate":      config.LanguageGate,
		"llmProvider":       config.LLMProvider,
		"ollamaEndpoint":    config.OllamaEndpoint,
		"ollamaModel":       config.OllamaModel,
		"geminiModel":       config.GeminiModel,
		"maxIterations":     config.MaxIterations,
		"requestTimeout":    config.RequestTimeout,
		"logTruncateLength": config.LogTruncateLength,
		"debugMode":         config.DebugMode,
	}).Info("Configuration loaded")

	return logger
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[redacted]"
}
