package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "./log_files", cfg.LogDir)
	assert.Equal(t, "*.csv", cfg.LogPattern)
	assert.Equal(t, []string{"ip=10.0.0.1", "ip=10.0.0.2"}, cfg.Servers)
	assert.Equal(t, []string{"/dev/sda", "/dev/sdb"}, cfg.Partitions)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Empty(t, cfg.Archive.DSN)
	require.Len(t, cfg.Services, 6)
	assert.Equal(t, "MariaDB 1", cfg.Services[0].Label)
	assert.Equal(t, "check_db|ip=10.0.0.1", cfg.Services[0].Key)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_dir: /var/log/heal
poll_interval: 15s
servers: [ip=10.1.0.1]
archive:
  dsn: "heal:secret@tcp(db:3306)/HEAL_history?parseTime=true"
log:
  level: debug
`), 0644))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/var/log/heal", cfg.LogDir)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, []string{"ip=10.1.0.1"}, cfg.Servers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Contains(t, cfg.Archive.DSN, "HEAL_history")
}

func TestValidate(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("poll_interval", "0s")

	_, err := Load(v)
	assert.ErrorContains(t, err, "poll_interval")

	v.Set("poll_interval", "1m")
	v.Set("servers", []string{})
	_, err = Load(v)
	assert.ErrorContains(t, err, "server")
}
