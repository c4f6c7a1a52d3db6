package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// ClientConfig is the home-server/identity configuration for a client
// process (spec.md §6).
//
// ServerHTTPPort is not named in spec.md's client env var list; it is
// this implementation's answer to §4.7's "upload via C5 on the
// client's home-server HTTP port", which needs a port the client
// config otherwise never carries (SERVER_PORT is the WebSocket port).
type ClientConfig struct {
	ServerAddress     string `toml:"server_address"`
	ServerPort        int    `toml:"server_port"`
	ServerHTTPPort    int    `toml:"server_http_port"`
	HTTPPort          int    `toml:"http_port"`
	ClientName        string `toml:"client_name"`
	MessageExpirySecs int    `toml:"message_expiry_time"`
	PublicHost        string `toml:"public_host"`
	KeyPassphrase     string `toml:"key_passphrase"`

	ConfigDir   string `toml:"config_dir"`
	ChatDataDir string `toml:"chat_data_dir"`
}

// KeepForever and DropImmediately are the two sentinel values
// MessageExpirySecs may hold (spec.md §6).
const (
	KeepForever     = -1
	DropImmediately = 0
)

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		ServerAddress:     "127.0.0.1",
		ServerPort:        8765,
		ServerHTTPPort:    8081,
		HTTPPort:          5000,
		MessageExpirySecs: KeepForever,
		ConfigDir:         "./data/config",
		ChatDataDir:       "./data/chat_data",
	}
}

// LoadClientConfig overlays an optional TOML file beneath the fixed
// defaults, then lets every environment variable spec.md §6 names win.
func LoadClientConfig(tomlPath string) (ClientConfig, error) {
	cfg := defaultClientConfig()

	if tomlPath != "" {
		if _, err := os.Stat(tomlPath); err == nil {
			if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil {
				return ClientConfig{}, fmt.Errorf("config: parse %s: %w", tomlPath, err)
			}
		}
	}

	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		cfg.ServerAddress = v
	}
	if v, err := envInt("SERVER_PORT"); err != nil {
		return ClientConfig{}, err
	} else if v != 0 {
		cfg.ServerPort = v
	}
	if v, err := envInt("HTTP_PORT"); err != nil {
		return ClientConfig{}, err
	} else if v != 0 {
		cfg.HTTPPort = v
	}
	if v, err := envInt("SERVER_HTTP_PORT"); err != nil {
		return ClientConfig{}, err
	} else if v != 0 {
		cfg.ServerHTTPPort = v
	}
	if v := os.Getenv("CLIENT_NAME"); v != "" {
		cfg.ClientName = v
	}
	if v := os.Getenv("PUBLIC_HOST"); v != "" {
		cfg.PublicHost = v
	}
	if v := os.Getenv("KEY_PASSPHRASE"); v != "" {
		cfg.KeyPassphrase = v
	}
	if v := os.Getenv("MESSAGE_EXPIRY_TIME"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ClientConfig{}, fmt.Errorf("config: MESSAGE_EXPIRY_TIME: %w", err)
		}
		cfg.MessageExpirySecs = n
	}

	return cfg, nil
}
