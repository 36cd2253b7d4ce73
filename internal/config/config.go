// Package config provides functionality for managing configuration options
// for the application using command-line flags, a config file and environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads and writes Go duration strings ("30s")
// in JSON and YAML config files.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// AIOptions configures the remote completion service behind /api/ai/query.
type AIOptions struct {
	// BaseURL is the OpenAI-compatible API root, e.g. https://api.openai.com/v1.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// APIKey enables the remote call; when empty only the local fallback answers.
	APIKey string `json:"api_key" yaml:"api_key"`
	// Model is the chat model name sent with each request.
	Model string `json:"model" yaml:"model"`
	// SystemPrompt is sent as the system message; empty selects the built-in prompt.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
	// Timeout bounds every outbound call.
	Timeout Duration `json:"timeout" yaml:"timeout"`
	// RatePerMinute is the per-user request budget for the AI endpoint.
	RatePerMinute int `json:"rate_per_minute" yaml:"rate_per_minute"`
	// Burst is the per-user burst allowance for the AI endpoint.
	Burst int `json:"burst" yaml:"burst"`
}

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port" yaml:"port"`

	// DatabaseDSN selects the PostgreSQL store when set; JSON files are used otherwise.
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-" yaml:"-"`

	// DataDir holds users.json and notes/<username>.json.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MediaDir holds uploaded attachments. Defaults to DataDir/media.
	MediaDir string `json:"media_dir" yaml:"media_dir"`

	// JWTSecret signs bearer tokens. Required.
	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL Duration `json:"token_ttl" yaml:"token_ttl"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// MaxUploadBytes caps request bodies.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`

	// DebugEndpoints mounts /api/debug/file/{username}.
	DebugEndpoints bool `json:"debug_endpoints" yaml:"debug_endpoints"`

	// AllowedOrigins lists CORS origins.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// MediaSweepInterval is how often orphaned uploads are removed; zero disables.
	MediaSweepInterval Duration `json:"media_sweep_interval" yaml:"media_sweep_interval"`

	// MediaRetention is the minimum age of an orphaned upload before removal.
	MediaRetention Duration `json:"media_retention" yaml:"media_retention"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `json:"tls_key" yaml:"tls_key"`

	AI AIOptions `json:"ai" yaml:"ai"`
}

const minSecretLen = 16

// Parse parses the command-line flags, the config file and environment variables
// into Options and validates the result.
func Parse() (*Options, error) {
	return parse(flag.CommandLine, os.Args[1:], os.Getenv)
}

// parse applies, in increasing priority: flag defaults, the config file,
// explicitly set flags, environment variables.
func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Options, error) {
	o := &Options{}
	var origins string

	fs.StringVar(&o.Port, "a", "localhost:3001", "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", "", "postgres DSN; JSON files are used when empty")
	fs.StringVar(&o.Config, "config", "", "path to config file (.json, .yaml)")
	fs.StringVar(&o.Config, "c", "", "path to config file (shorthand)")
	fs.StringVar(&o.DataDir, "data", "data", "directory for user and note files")
	fs.StringVar(&o.MediaDir, "media", "", "directory for uploaded media (default <data>/media)")
	fs.StringVar(&o.LogLevel, "log-level", "info", "log level")
	fs.DurationVar(&o.TokenTTL.Duration, "token-ttl", 30*24*time.Hour, "bearer token lifetime")
	fs.Int64Var(&o.MaxUploadBytes, "max-upload", 50<<20, "request body cap in bytes")
	fs.BoolVar(&o.DebugEndpoints, "debug-endpoints", false, "mount /api/debug/file/{username}")
	fs.StringVar(&origins, "origins", "http://localhost:3000", "comma-separated CORS origins")
	fs.DurationVar(&o.MediaSweepInterval.Duration, "media-sweep", time.Hour, "orphaned media sweep interval (0 disables)")
	fs.DurationVar(&o.MediaRetention.Duration, "media-retention", 24*time.Hour, "minimum age of orphaned media before removal")
	fs.StringVar(&o.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&o.TLSKey, "tls-key", "", "TLS key file")
	fs.StringVar(&o.AI.BaseURL, "ai-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
	fs.StringVar(&o.AI.Model, "ai-model", "gpt-4o-mini", "completion model")
	fs.DurationVar(&o.AI.Timeout.Duration, "ai-timeout", 30*time.Second, "outbound AI call timeout")
	fs.IntVar(&o.AI.RatePerMinute, "ai-rate", 20, "AI queries per user per minute")
	fs.IntVar(&o.AI.Burst, "ai-burst", 5, "AI query burst per user")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.AllowedOrigins = splitList(origins)

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		if err := loadFile(o.Config, o); err != nil {
			return nil, err
		}
		// Flags given on the command line win over the file.
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "origins" {
				o.AllowedOrigins = splitList(origins)
			}
		})
	}

	envOverrides := []struct {
		key string
		dst *string
	}{
		{"SERVER_ADDRESS", &o.Port},
		{"DATABASE_DSN", &o.DatabaseDSN},
		{"DATA_DIR", &o.DataDir},
		{"MEDIA_DIR", &o.MediaDir},
		{"JWT_SECRET", &o.JWTSecret},
		{"LOG_LEVEL", &o.LogLevel},
		{"AI_API_KEY", &o.AI.APIKey},
		{"AI_BASE_URL", &o.AI.BaseURL},
		{"AI_MODEL", &o.AI.Model},
	}
	for _, e := range envOverrides {
		if v := getenv(e.key); v != "" {
			*e.dst = v
		}
	}

	if o.MediaDir == "" {
		o.MediaDir = filepath.Join(o.DataDir, "media")
	}
	o.AI.BaseURL = strings.TrimRight(o.AI.BaseURL, "/")

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// loadFile decodes a YAML or JSON config file into o, keeping values the
// file does not mention.
func loadFile(path string, o *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, o)
	default:
		err = json.Unmarshal(data, o)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

// Validate reports the first configuration value that would make the server
// unsafe or unusable.
func (o *Options) Validate() error {
	switch {
	case o.JWTSecret == "":
		return errors.New("jwt secret is required (JWT_SECRET or jwt_secret)")
	case len(o.JWTSecret) < minSecretLen:
		return fmt.Errorf("jwt secret must be at least %d bytes", minSecretLen)
	case o.Port == "":
		return errors.New("listen address is required")
	case o.DatabaseDSN == "" && o.DataDir == "":
		return errors.New("data directory is required when no database is configured")
	case o.TokenTTL.Duration <= 0:
		return errors.New("token ttl must be positive")
	case o.MaxUploadBytes <= 0:
		return errors.New("max upload size must be positive")
	case o.AI.Timeout.Duration <= 0:
		return errors.New("ai timeout must be positive")
	case o.AI.RatePerMinute <= 0 || o.AI.Burst <= 0:
		return errors.New("ai rate limit must be positive")
	case o.MediaSweepInterval.Duration > 0 && o.MediaRetention.Duration <= 0:
		return errors.New("media retention must be positive when sweeping is enabled")
	case (o.TLSCert == "") != (o.TLSKey == ""):
		return errors.New("tls cert and key must be set together")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
