// Package config loads process configuration from a YAML file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read into the config.
// KANBA_DATABASE_URL sets database-url.
const EnvPrefix = "KANBA_"

// legacyEnv maps the variable names used by earlier deployments to keys.
// PORT is also honored and becomes addr ":<PORT>".
var legacyEnv = map[string]string{
	"DATABASE_URL":   "database-url",
	"NODE_ENV":       "environment",
	"FRONTEND_URL":   "frontend-url",
	"OPENAI_API_KEY": "openai-api-key",
}

// Config is the full process configuration.
type Config struct {
	Addr          string        `koanf:"addr"`
	DatabaseURL   string        `koanf:"database-url"`
	Environment   string        `koanf:"environment"`
	FrontendURL   string        `koanf:"frontend-url"`
	LogFormat     string        `koanf:"log-format"`
	MetricsAddr   string        `koanf:"metrics-addr"`
	SweepInterval time.Duration `koanf:"sweep-interval"`

	OpenAIAPIKey  string `koanf:"openai-api-key"`
	OpenAIBaseURL string `koanf:"openai-base-url"`
	OpenAIModel   string `koanf:"openai-model"`

	OIDCIssuer       string `koanf:"oidc-issuer"`
	OIDCClientID     string `koanf:"oidc-client-id"`
	OIDCClientSecret string `koanf:"oidc-client-secret"`
	OIDCRedirectURL  string `koanf:"oidc-redirect-url"`
	OIDCName         string `koanf:"oidc-name"`
}

// RegisterFlags adds every config key as a flag on fs. Flag defaults are the
// config defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("addr", ":3001", "API listen address")
	fs.String("database-url", "", "PostgreSQL connection string")
	fs.String("environment", "development", "deployment environment (production enables cross-site cookies)")
	fs.String("frontend-url", "http://localhost:5173", "origin allowed by CORS and SSO redirects")
	fs.String("log-format", "json", "log format: json or text")
	fs.String("metrics-addr", ":9100", "metrics and probe listen address (empty disables)")
	fs.Duration("sweep-interval", time.Hour, "expired session sweep interval (0 disables)")
	fs.String("openai-api-key", "", "default API key for the AI chat proxy")
	fs.String("openai-base-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
	fs.String("openai-model", "gpt-4o-mini", "chat completion model")
	fs.String("oidc-issuer", "", "OIDC issuer URL (empty disables SSO)")
	fs.String("oidc-client-id", "", "OIDC client id")
	fs.String("oidc-client-secret", "", "OIDC client secret")
	fs.String("oidc-redirect-url", "", "OIDC redirect URL ending in /api/auth/sso/callback")
	fs.String("oidc-name", "SSO", "label shown on the SSO login button")
}

// Load reads the config. Later sources override earlier ones: the file
// named by --config, legacy environment variables, KANBA_ variables, then
// flags set on the command line.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	legacy := env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		if name == "PORT" {
			return "addr", ":" + value
		}
		key, ok := legacyEnv[name]
		if !ok {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("load legacy environment: %w", err)
	}

	prefixed := env.Provider(EnvPrefix, ".", func(name string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_", "-")
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Production reports whether cookies must be issued for cross-site use.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// SSOEnabled reports whether an OIDC provider is configured.
func (c *Config) SSOEnabled() bool {
	return c.OIDCIssuer != ""
}

// Validate checks the settings needed to serve traffic.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database-url is required"))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("log-format must be json or text, got %q", c.LogFormat))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, errors.New("sweep-interval must not be negative"))
	}
	if c.SSOEnabled() && (c.OIDCClientID == "" || c.OIDCRedirectURL == "") {
		errs = append(errs, errors.New("oidc-client-id and oidc-redirect-url are required when oidc-issuer is set"))
	}
	return errors.Join(errs...)
}
