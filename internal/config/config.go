package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgnsrekt/parkgate-realtime/internal/notify"
)

type Config struct {
	Push      PushConfig      `mapstructure:"push"`
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
	API       APIConfig       `mapstructure:"api"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Notify    notify.Config   `mapstructure:"notify"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type PushConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	PongWait         time.Duration `mapstructure:"pong_wait"`
	MaxMessageSize   int64         `mapstructure:"max_message_size"`
}

type ReconnectConfig struct {
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type APIConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Token         string `mapstructure:"token"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelay    int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

type WatchConfig struct {
	Gates        []string      `mapstructure:"gates"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("push.url", "ws://localhost:3000/api/v1/ws")
	v.SetDefault("push.handshake_timeout", 10*time.Second)
	v.SetDefault("push.pong_wait", 60*time.Second)
	v.SetDefault("push.max_message_size", 512*1024)
	v.SetDefault("reconnect.base_delay", time.Second)
	v.SetDefault("reconnect.max_delay", 30*time.Second)
	v.SetDefault("reconnect.max_attempts", 5)
	v.SetDefault("reconnect.dial_timeout", 15*time.Second)
	v.SetDefault("api.base_url", "http://localhost:3000/api/v1")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("api.retry_count", 3)
	v.SetDefault("api.retry_delay_sec", 1)
	v.SetDefault("api.rate_per_second", 5)
	v.SetDefault("watch.gates", []string{})
	v.SetDefault("watch.poll_interval", time.Second)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.topic", "")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "parking")
	v.SetDefault("notify.token", "")
	v.SetDefault("notify.grace", 10*time.Second)
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("PARKGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Timeout returns the API request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// RetryBackoff returns the delay before the first API retry.
func (c APIConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}
