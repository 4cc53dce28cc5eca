package voxa

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/voxa-ai/voxa/pkg/configutil"
	"github.com/voxa-ai/voxa/pkg/session"
)

type Config struct {
	Server      ServerConfig   `mapstructure:"server"`
	Devices     DevicesConfig  `mapstructure:"devices"`
	Session     session.Config `mapstructure:"session"`
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
}

// ServerConfig points the client at the assistant backend. Settings carries
// transport tuning knobs (handshake_timeout_ms, recv_buffer) as a free-form
// map so deployments can omit them entirely.
type ServerConfig struct {
	URL      string         `mapstructure:"url"`
	Settings map[string]any `mapstructure:"settings"`
}

type DevicesConfig struct {
	InputRate     int `mapstructure:"input_rate"`
	OutputRate    int `mapstructure:"output_rate"`
	OutputBlock   int `mapstructure:"output_block"`
	CaptureBuffer int `mapstructure:"capture_buffer"`
}

// LoadConfig reads an optional config file and overlays VOXA_ environment
// variables. An empty path loads defaults plus environment only.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOXA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.url", "ws://localhost:8000/ws/chat")
	v.SetDefault("devices.input_rate", 48000)
	v.SetDefault("devices.output_rate", 48000)
	v.SetDefault("devices.output_block", 1024)
	v.SetDefault("devices.capture_buffer", 16)
	v.SetDefault("session.capture.wire_rate", 16000)
	v.SetDefault("session.capture.block_size", 4096)
	v.SetDefault("session.capture.tap_window", 2048)
	v.SetDefault("session.playback.tap_window", 2048)
	v.SetDefault("session.playback.queue_size", 1024)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.Server.URL = os.ExpandEnv(cfg.Server.URL)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := configutil.RequireString(c.Server.URL, "server.url"); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Server.URL, "ws://") && !strings.HasPrefix(c.Server.URL, "wss://") {
		return fmt.Errorf("server.url must use the ws or wss scheme")
	}
	if c.Devices.InputRate <= 0 || c.Devices.OutputRate <= 0 {
		return fmt.Errorf("device sample rates must be positive")
	}
	if c.Session.Capture.WireRate <= 0 {
		return fmt.Errorf("session.capture.wire_rate must be positive")
	}
	return nil
}
