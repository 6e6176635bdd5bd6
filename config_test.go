package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func parse(t *testing.T, args []string, env map[string]string) (config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return parseConfig(fs, args, envMap(env))
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parse(t, []string{"-location", "52.3676;4.9041"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 52.3676, cfg.Latitude)
	assert.Equal(t, 4.9041, cfg.Longitude)
	assert.Equal(t, 10, cfg.RadiusKm)
	assert.Equal(t, "", cfg.Token)
	assert.Equal(t, 100, cfg.Limit)
	assert.Equal(t, "https://api.openaq.org", cfg.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "home", cfg.DeviceID)
	assert.Equal(t, time.Hour, cfg.Interval)
	assert.Equal(t, 10*time.Second, cfg.Heartbeat)
	assert.Equal(t, "prod", cfg.AppEnv)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ".env", cfg.EnvFile)
}

func TestParseConfig_FromEnvironment(t *testing.T) {
	cfg, err := parse(t, nil, map[string]string{
		"OPENAQ_LOCATION": "48.58;7.75",
		"OPENAQ_RADIUS":   "25",
		"OPENAQ_API_KEY":  " key ",
		"DEVICE_ID":       "strasbourg",
		"POLL_INTERVAL":   "30m",
		"LOG_LEVEL":       "debug",
		"APP_ENV":         "dev",
	})
	require.NoError(t, err)

	assert.Equal(t, 48.58, cfg.Latitude)
	assert.Equal(t, 7.75, cfg.Longitude)
	assert.Equal(t, 25, cfg.RadiusKm)
	assert.Equal(t, "key", cfg.Token)
	assert.Equal(t, "strasbourg", cfg.DeviceID)
	assert.Equal(t, 30*time.Minute, cfg.Interval)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "dev", cfg.AppEnv)
}

func TestParseConfig_FlagsOverrideEnvironment(t *testing.T) {
	cfg, err := parse(t,
		[]string{"-radius", "3", "-token", "flag"},
		map[string]string{"OPENAQ_LOCATION": "1;2", "OPENAQ_RADIUS": "25", "OPENAQ_API_KEY": "env"},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.RadiusKm)
	assert.Equal(t, "flag", cfg.Token)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "missing location", args: nil},
		{name: "bad location", args: []string{"-location", "somewhere"}},
		{name: "bad radius env", env: map[string]string{"OPENAQ_LOCATION": "1;2", "OPENAQ_RADIUS": "ten"}},
		{name: "bad interval env", env: map[string]string{"OPENAQ_LOCATION": "1;2", "POLL_INTERVAL": "hourly"}},
		{name: "bad log level", args: []string{"-location", "1;2", "-log-level", "loud"}},
		{name: "bad app env", args: []string{"-location", "1;2", "-app-env", "staging"}},
		{name: "zero heartbeat", args: []string{"-location", "1;2", "-heartbeat", "0s"}},
		{name: "interval below heartbeat", args: []string{"-location", "1;2", "-interval", "1s"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.args, tt.env)
			assert.Error(t, err)
		})
	}
}

func TestEnvFileFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{name: "default", want: ".env"},
		{name: "environment", env: map[string]string{"ENV_FILE": "/etc/openaq.env"}, want: "/etc/openaq.env"},
		{name: "flag", args: []string{"-location", "1;2", "-env-file", "local.env"}, want: "local.env"},
		{name: "flag with equals", args: []string{"--env-file=local.env"}, want: "local.env"},
		{name: "flag wins", args: []string{"-env-file=a.env"}, env: map[string]string{"ENV_FILE": "b.env"}, want: "a.env"},
		{name: "after terminator", args: []string{"--", "-env-file", "x.env"}, want: ".env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, envFileFromArgs(tt.args, envMap(tt.env)))
		})
	}
}

func TestParseConfig_EnvFileFlag(t *testing.T) {
	cfg, err := parse(t, []string{"-location", "1;2", "-env-file", "local.env"}, map[string]string{"ENV_FILE": "other.env"})
	require.NoError(t, err)

	assert.Equal(t, "local.env", cfg.EnvFile)
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
}

func TestCredentialFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	get := credentialFromEnvFile(path, envMap(map[string]string{"OPENAQ_API_KEY": "from-env"}))

	assert.Equal(t, "from-env", get())

	require.NoError(t, os.WriteFile(path, []byte("OPENAQ_API_KEY=from-file\n"), 0o600))
	assert.Equal(t, "from-file", get())
}
