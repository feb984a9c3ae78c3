package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/agentplan/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	v := viper.New()
	require.NoError(t, Init(v, ""))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 3, cfg.Plan.Breadth)
	assert.Equal(t, 5, cfg.Plan.Depth)
	assert.Equal(t, 6, cfg.Plan.DepartmentsCount)
	assert.True(t, cfg.Plan.IncludeQA)
	assert.Equal(t, 25, cfg.Plan.AtomicTargetMins)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentplan.yaml")
	content := `plan:
  breadth: 4
  include_qa: false
server:
  addr: "127.0.0.1:9090"
  read_timeout: 3s
cache:
  ttl: 0s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	v := viper.New()
	require.NoError(t, Init(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Plan.Breadth)
	assert.False(t, cfg.Plan.IncludeQA)
	assert.Equal(t, 5, cfg.Plan.Depth, "unset keys keep defaults")
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Duration(0), cfg.Cache.TTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("AGENTPLAN_SERVER_ADDR", ":7000")
	t.Setenv("AGENTPLAN_PLAN_DEPTH", "6")

	v := viper.New()
	require.NoError(t, Init(v, ""))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 6, cfg.Plan.Depth)
}

func TestInit_ExplicitFileMissing(t *testing.T) {
	v := viper.New()
	err := Init(v, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty addr", mutate: func(c *Config) { c.Server.Addr = " " }, wantErr: true},
		{name: "zero body limit", mutate: func(c *Config) { c.Server.MaxBodyBytes = 0 }, wantErr: true},
		{name: "unknown level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "sample rate above one", mutate: func(c *Config) { c.Telemetry.SampleRate = 1.5 }, wantErr: true},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.TTL = -time.Second }, wantErr: true},
		{name: "plan out of range is clamped later", mutate: func(c *Config) { c.Plan.Breadth = 99 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeConfigInvalid))
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "agentplan"), ConfigDir())
	assert.Equal(t, filepath.Join(dir, "agentplan", "config.yaml"), ConfigFile())
}
