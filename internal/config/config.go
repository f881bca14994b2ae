package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/heal-ops/heal/internal/series"
)

// Config is the runtime configuration of heal.
type Config struct {
	LogDir       string        `mapstructure:"log_dir"`
	LogPattern   string        `mapstructure:"log_pattern"`
	Servers      []string      `mapstructure:"servers"`
	Partitions   []string      `mapstructure:"partitions"`
	PollInterval time.Duration `mapstructure:"poll_interval"`

	Services []series.ServiceLabel `mapstructure:"services"`

	Archive struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"archive"`

	HTTP struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"http"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_dir", "./log_files")
	v.SetDefault("log_pattern", "*.csv")
	v.SetDefault("servers", []string{"ip=10.0.0.1", "ip=10.0.0.2"})
	v.SetDefault("partitions", []string{"/dev/sda", "/dev/sdb"})
	v.SetDefault("poll_interval", time.Minute)
	v.SetDefault("services", []map[string]string{
		{"label": "MariaDB 1", "key": "check_db|ip=10.0.0.1"},
		{"label": "MariaDB 2", "key": "check_db|ip=10.0.0.2"},
		{"label": "HTTP", "key": "check_http"},
		{"label": "rabbitMQ", "key": "check_rabbit"},
		{"label": "Streamlit", "key": "check_streamlit"},
		{"label": "Uvicorn", "key": "check_uvicorn"},
	})
	v.SetDefault("archive.dsn", "")
	v.SetDefault("http.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load decodes v into a Config and checks it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.LogDir) == "":
		return fmt.Errorf("config: log_dir must be set")
	case c.LogPattern == "":
		return fmt.Errorf("config: log_pattern must be set")
	case len(c.Servers) == 0:
		return fmt.Errorf("config: at least one server is required")
	case c.PollInterval <= 0:
		return fmt.Errorf("config: poll_interval must be positive, got %s", c.PollInterval)
	}
	return nil
}
