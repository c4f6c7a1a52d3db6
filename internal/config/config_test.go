package config_test

import (
	"testing"

	"olaf/internal/config"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	t.Setenv("BIND_ADDRESS", "")
	t.Setenv("CLIENT_WS_PORT", "")
	t.Setenv("SERVER_WS_PORT", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("NEIGHBOUR_ADDRESSES", "")
	t.Setenv("EXTERNAL_ADDRESS", "")
	t.Setenv("LOG_MESSAGES", "")

	cfg, err := config.LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.ClientWSPort != 8765 || cfg.ServerWSPort != 8766 || cfg.HTTPPort != 8081 {
		t.Fatalf("unexpected default ports: %+v", cfg)
	}
}

func TestLoadServerConfigEnvOverridesDefault(t *testing.T) {
	t.Setenv("BIND_ADDRESS", "10.0.0.1")
	t.Setenv("NEIGHBOUR_ADDRESSES", "10.0.0.2:8766, 10.0.0.3:8766,")
	t.Setenv("LOG_MESSAGES", "true")

	cfg, err := config.LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.BindAddress != "10.0.0.1" {
		t.Fatalf("want bind address override, got %q", cfg.BindAddress)
	}
	if len(cfg.NeighbourAddresses) != 2 {
		t.Fatalf("want 2 neighbour addresses, got %v", cfg.NeighbourAddresses)
	}
	if !cfg.LogMessages {
		t.Fatal("want LogMessages true")
	}
}

func TestLoadClientConfigDefaultExpiry(t *testing.T) {
	t.Setenv("MESSAGE_EXPIRY_TIME", "")
	cfg, err := config.LoadClientConfig("")
	if err != nil {
		t.Fatalf("LoadClientConfig: %v", err)
	}
	if cfg.MessageExpirySecs != config.KeepForever {
		t.Fatalf("want KeepForever default, got %d", cfg.MessageExpirySecs)
	}
}

func TestLoadClientConfigEnvOverride(t *testing.T) {
	t.Setenv("MESSAGE_EXPIRY_TIME", "0")
	cfg, err := config.LoadClientConfig("")
	if err != nil {
		t.Fatalf("LoadClientConfig: %v", err)
	}
	if cfg.MessageExpirySecs != config.DropImmediately {
		t.Fatalf("want DropImmediately, got %d", cfg.MessageExpirySecs)
	}
}
