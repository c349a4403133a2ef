package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Oracle
	OpenAIAPIKey   string
	Model          string
	STTModel       string
	OpenAIBaseURL  string
	PromptSpecPath string
	OracleTimeout  time.Duration
	// Oracle budget per client address
	RateLimitMax    int
	RateLimitWindow time.Duration
	// HTTP flood control per client address
	HTTPRequestsPerMinute int
	HTTPBurst             int
	// Sessions
	SessionTTL  time.Duration
	MaxSessions int
	// Catalog, first configured source wins: DB_URL, CATALOG_API_URL, CATALOG_FILE
	DatabaseURL         string
	CatalogFile         string
	CatalogWatch        bool
	CatalogAPIURL       string
	CatalogClientID     string
	CatalogClientSecret string
	CatalogTokenURL     string
	CatalogScopes       []string
	// Logging
	LogLevel  string
	LogFormat string
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:                  getEnvDefault("PORT", "8080"),
		AllowedOrigin:         getEnvDefault("ALLOWED_ORIGIN", "*"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		Model:                 getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		STTModel:              getEnvDefault("OPENAI_STT_MODEL", "whisper-1"),
		OpenAIBaseURL:         os.Getenv("OPENAI_BASE_URL"),
		PromptSpecPath:        os.Getenv("PROMPT_SPEC_PATH"),
		OracleTimeout:         getEnvDurationDefault("ORACLE_TIMEOUT", 20*time.Second),
		RateLimitMax:          getEnvIntDefault("RATE_LIMIT_MAX", 15),
		RateLimitWindow:       getEnvDurationDefault("RATE_LIMIT_WINDOW", 60*time.Second),
		HTTPRequestsPerMinute: getEnvIntDefault("HTTP_REQUESTS_PER_MINUTE", 60),
		HTTPBurst:             getEnvIntDefault("HTTP_BURST", 10),
		SessionTTL:            getEnvDurationDefault("SESSION_TTL", 30*time.Minute),
		MaxSessions:           getEnvIntDefault("MAX_SESSIONS", 1000),
		DatabaseURL:           os.Getenv("DB_URL"),
		CatalogFile:           os.Getenv("CATALOG_FILE"),
		CatalogWatch:          getEnvBoolDefault("CATALOG_WATCH", true),
		CatalogAPIURL:         os.Getenv("CATALOG_API_URL"),
		CatalogClientID:       os.Getenv("CATALOG_CLIENT_ID"),
		CatalogClientSecret:   os.Getenv("CATALOG_CLIENT_SECRET"),
		CatalogTokenURL:       os.Getenv("CATALOG_TOKEN_URL"),
		CatalogScopes:         getEnvListDefault("CATALOG_SCOPES", nil),
		LogLevel:              getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvDefault("LOG_FORMAT", "json"),
	}
}

// CatalogSource names the backend the settings select.
func (c Config) CatalogSource() string {
	switch {
	case c.DatabaseURL != "":
		return "postgres"
	case c.CatalogAPIURL != "":
		return "remote"
	case c.CatalogFile != "":
		return "file"
	default:
		return "memory"
	}
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

// getEnvIntDefault keeps def when the value does not parse; Validate
// catches the out-of-range ones.
func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvDurationDefault accepts Go durations ("90s") or plain seconds.
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
