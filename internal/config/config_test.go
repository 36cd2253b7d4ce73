package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("test", flag.ContinueOnError)
}

func TestParse_Defaults(t *testing.T) {
	o, err := parse(newFlagSet(), nil, envFrom(map[string]string{"JWT_SECRET": testSecret}))
	require.NoError(t, err)

	assert.Equal(t, "localhost:3001", o.Port)
	assert.Equal(t, "data", o.DataDir)
	assert.Equal(t, filepath.Join("data", "media"), o.MediaDir)
	assert.Equal(t, 30*24*time.Hour, o.TokenTTL.Duration)
	assert.Equal(t, 30*time.Second, o.AI.Timeout.Duration)
	assert.Equal(t, []string{"http://localhost:3000"}, o.AllowedOrigins)
	assert.False(t, o.DebugEndpoints)
	assert.Empty(t, o.AI.SystemPrompt)
}

func TestParse_MissingSecretFailsFast(t *testing.T) {
	_, err := parse(newFlagSet(), nil, envFrom(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret is required")
}

func TestParse_ShortSecret(t *testing.T) {
	_, err := parse(newFlagSet(), nil, envFrom(map[string]string{"JWT_SECRET": "short"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least")
}

func TestParse_FlagsAndEnv(t *testing.T) {
	args := []string{"-a", ":9000", "-data", "/tmp/nk", "-origins", "http://a, http://b", "-ai-timeout", "5s"}
	env := map[string]string{
		"JWT_SECRET":     testSecret,
		"SERVER_ADDRESS": ":9100",
		"AI_API_KEY":     "sk-test",
		"AI_BASE_URL":    "http://llm.local/v1/",
	}

	o, err := parse(newFlagSet(), args, envFrom(env))
	require.NoError(t, err)

	assert.Equal(t, ":9100", o.Port, "env wins over flag")
	assert.Equal(t, "/tmp/nk", o.DataDir)
	assert.Equal(t, filepath.Join("/tmp/nk", "media"), o.MediaDir)
	assert.Equal(t, []string{"http://a", "http://b"}, o.AllowedOrigins)
	assert.Equal(t, 5*time.Second, o.AI.Timeout.Duration)
	assert.Equal(t, "sk-test", o.AI.APIKey)
	assert.Equal(t, "http://llm.local/v1", o.AI.BaseURL)
}

func TestParse_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
port: ":7000"
data_dir: /srv/notes
jwt_secret: ` + testSecret + `
token_ttl: 1h
debug_endpoints: true
allowed_origins: ["http://app.local"]
ai:
  model: local-model
  timeout: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	o, err := parse(newFlagSet(), []string{"-c", path, "-data", "/override"}, envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, ":7000", o.Port)
	assert.Equal(t, "/override", o.DataDir, "explicit flag wins over file")
	assert.Equal(t, time.Hour, o.TokenTTL.Duration)
	assert.True(t, o.DebugEndpoints)
	assert.Equal(t, []string{"http://app.local"}, o.AllowedOrigins)
	assert.Equal(t, "local-model", o.AI.Model)
	assert.Equal(t, 10*time.Second, o.AI.Timeout.Duration)
}

func TestParse_JSONFileFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"jwt_secret":"` + testSecret + `","media_dir":"/srv/media","ai":{"rate_per_minute":3,"burst":1}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	o, err := parse(newFlagSet(), nil, envFrom(map[string]string{"CONFIG": path}))
	require.NoError(t, err)

	assert.Equal(t, "/srv/media", o.MediaDir)
	assert.Equal(t, 3, o.AI.RatePerMinute)
	assert.Equal(t, 1, o.AI.Burst)
}

func TestParse_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := parse(newFlagSet(), []string{"-c", path}, envFrom(map[string]string{"JWT_SECRET": testSecret}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error while parsing config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Options {
		return &Options{
			Port:           ":1",
			DataDir:        "d",
			JWTSecret:      testSecret,
			TokenTTL:       Duration{time.Hour},
			MaxUploadBytes: 1,
			AI:             AIOptions{Timeout: Duration{time.Second}, RatePerMinute: 1, Burst: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(o *Options)
	}{
		{"zero ttl", func(o *Options) { o.TokenTTL = Duration{} }},
		{"zero upload", func(o *Options) { o.MaxUploadBytes = 0 }},
		{"zero ai timeout", func(o *Options) { o.AI.Timeout = Duration{} }},
		{"zero rate", func(o *Options) { o.AI.RatePerMinute = 0 }},
		{"sweep without retention", func(o *Options) { o.MediaSweepInterval = Duration{time.Minute} }},
		{"cert without key", func(o *Options) { o.TLSCert = "c.pem" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid()
			tt.mutate(o)
			assert.Error(t, o.Validate())
		})
	}
}
