package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Missing_Uses_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))

	req.NoError(err)
	req.Equal("release", cfg.Mode)
	req.Equal(8080, cfg.Port)
	req.Equal("drop", cfg.Backpressure)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal(60*time.Second, cfg.PongWait)
	req.Equal(32, cfg.SendBuffer)
	req.Equal(":8080", cfg.Addr())
}

func TestLoadFile_Reads_Yaml(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, `
mode: debug
host: 127.0.0.1
port: 9000
log_level: debug
backpressure: kick
ping_period: 10s
pong_wait: 15s
allowed_origins:
  - https://app.example.com
`)

	cfg, err := LoadFile(path)

	req.NoError(err)
	req.Equal("debug", cfg.Mode)
	req.Equal("127.0.0.1:9000", cfg.Addr())
	req.Equal("kick", cfg.Backpressure)
	req.Equal(10*time.Second, cfg.PingPeriod)
	req.Equal([]string{"https://app.example.com"}, cfg.AllowedOrigins)
}

func TestLoadFile_Env_Overrides_File(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, "port: 9000\n")
	t.Setenv("PULSE_PORT", "9100")
	t.Setenv("PULSE_BACKPRESSURE", "kick")

	cfg, err := LoadFile(path)

	req.NoError(err)
	req.Equal(9100, cfg.Port)
	req.Equal("kick", cfg.Backpressure)
}

func TestLoadFile_Rejects_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"port", "port: 70000\n", ErrInvalidPort},
		{"policy", "backpressure: block\n", ErrInvalidPolicy},
		{"log level", "log_level: loud\n", ErrInvalidLogLevel},
		{"ping", "ping_period: 90s\npong_wait: 60s\n", ErrPingPeriod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tc.body))
			require.ErrorIs(t, err, tc.want)
		})
	}
}
