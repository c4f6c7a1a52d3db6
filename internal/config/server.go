package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ServerConfig is the bind/port/peer configuration for a relay server
// process (spec.md §6).
//
// KeyPassphrase is not named in spec.md's server env var list. It
// carries forward the teacher's optional at-rest key encryption
// (internal/store.KeyFileStore) even though spec.md's Non-goals never
// mention it: an empty value preserves the unattended-server default
// of an unencrypted private key PEM.
type ServerConfig struct {
	BindAddress        string   `toml:"bind_address"`
	ClientWSPort       int      `toml:"client_ws_port"`
	ServerWSPort       int      `toml:"server_ws_port"`
	HTTPPort           int      `toml:"http_port"`
	NeighbourAddresses []string `toml:"neighbour_addresses"`
	ExternalAddress    string   `toml:"external_address"`
	LogMessages        bool     `toml:"log_messages"`
	KeyPassphrase      string   `toml:"key_passphrase"`

	ConfigDir     string `toml:"config_dir"`
	NeighboursDir string `toml:"neighbours_dir"`
	ClientsDir    string `toml:"clients_dir"`
	FilesDir      string `toml:"files_dir"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		BindAddress:   "0.0.0.0",
		ClientWSPort:  8765,
		ServerWSPort:  8766,
		HTTPPort:      8081,
		ConfigDir:     "./data/config",
		NeighboursDir: "./data/neighbours",
		ClientsDir:    "./data/clients",
		FilesDir:      "./data/files",
	}
}

// LoadServerConfig overlays an optional TOML file (tomlPath, ignored
// if empty or missing) beneath the fixed defaults, then lets every
// environment variable spec.md §6 names win.
func LoadServerConfig(tomlPath string) (ServerConfig, error) {
	cfg := defaultServerConfig()

	if tomlPath != "" {
		if _, err := os.Stat(tomlPath); err == nil {
			if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil {
				return ServerConfig{}, fmt.Errorf("config: parse %s: %w", tomlPath, err)
			}
		}
	}

	if v := os.Getenv("BIND_ADDRESS"); v != "" {
		cfg.BindAddress = v
	}
	if v, err := envInt("CLIENT_WS_PORT"); err != nil {
		return ServerConfig{}, err
	} else if v != 0 {
		cfg.ClientWSPort = v
	}
	if v, err := envInt("SERVER_WS_PORT"); err != nil {
		return ServerConfig{}, err
	} else if v != 0 {
		cfg.ServerWSPort = v
	}
	if v, err := envInt("HTTP_PORT"); err != nil {
		return ServerConfig{}, err
	} else if v != 0 {
		cfg.HTTPPort = v
	}
	if v := os.Getenv("NEIGHBOUR_ADDRESSES"); v != "" {
		cfg.NeighbourAddresses = splitAddresses(v)
	}
	if v := os.Getenv("EXTERNAL_ADDRESS"); v != "" {
		cfg.ExternalAddress = v
	}
	if v := os.Getenv("LOG_MESSAGES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("config: LOG_MESSAGES: %w", err)
		}
		cfg.LogMessages = b
	}
	if v := os.Getenv("KEY_PASSPHRASE"); v != "" {
		cfg.KeyPassphrase = v
	}

	return cfg, nil
}

func envInt(name string) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return n, nil
}

func splitAddresses(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
