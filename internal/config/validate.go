package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
)

// Validate checks the settings and reports every problem at once.
func (c Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("PORT", c.Port, validPort),
		criterio.Run("LOG_LEVEL", c.LogLevel, validLogLevel),
		criterio.Run("LOG_FORMAT", c.LogFormat, validLogFormat),
		criterio.Run("OPENAI_BASE_URL", c.OpenAIBaseURL, optionalURL),
		criterio.Run("CATALOG_API_URL", c.CatalogAPIURL, optionalURL),
		c.validateLimits(),
		c.validateCatalogAuth(),
	)
}

// Warnings returns settings that work but are probably not intended.
func (c Config) Warnings() []string {
	var out []string
	if c.OpenAIAPIKey == "" {
		out = append(out, "OPENAI_API_KEY is not set; oracle calls will fail until provided")
	}
	if c.AllowedOrigin == "*" {
		out = append(out, "ALLOWED_ORIGIN is *; any site can call the API")
	}
	return out
}

func (c Config) validateLimits() error {
	var errs criterio.FieldErrorsBuilder
	positive := []struct {
		field string
		value int64
	}{
		{"RATE_LIMIT_MAX", int64(c.RateLimitMax)},
		{"RATE_LIMIT_WINDOW", int64(c.RateLimitWindow)},
		{"ORACLE_TIMEOUT", int64(c.OracleTimeout)},
		{"HTTP_REQUESTS_PER_MINUTE", int64(c.HTTPRequestsPerMinute)},
		{"HTTP_BURST", int64(c.HTTPBurst)},
		{"SESSION_TTL", int64(c.SessionTTL)},
		{"MAX_SESSIONS", int64(c.MaxSessions)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = errs.Append(p.field, fmt.Errorf("must be positive"))
		}
	}
	return errs.ToError()
}

func (c Config) validateCatalogAuth() error {
	if c.CatalogClientID == "" {
		return nil
	}
	var errs criterio.FieldErrorsBuilder
	if c.CatalogClientSecret == "" {
		errs = errs.Append("CATALOG_CLIENT_SECRET", fmt.Errorf("required when CATALOG_CLIENT_ID is set"))
	}
	if err := optionalURL(c.CatalogTokenURL); err != nil || c.CatalogTokenURL == "" {
		errs = errs.Append("CATALOG_TOKEN_URL", fmt.Errorf("a valid URL is required when CATALOG_CLIENT_ID is set"))
	}
	return errs.ToError()
}

func validPort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func validLogLevel(level string) error {
	if _, err := zerolog.ParseLevel(strings.ToLower(level)); err != nil {
		return fmt.Errorf("unknown level %q", level)
	}
	return nil
}

func validLogFormat(format string) error {
	switch strings.ToLower(format) {
	case "json", "console":
		return nil
	}
	return fmt.Errorf("must be json or console, got %q", format)
}

func optionalURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid URL %q", raw)
	}
	return nil
}
