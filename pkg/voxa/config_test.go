package voxa

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.URL != "ws://localhost:8000/ws/chat" {
		t.Fatalf("server url = %q", cfg.Server.URL)
	}
	if cfg.Session.Capture.WireRate != 16000 {
		t.Fatalf("wire rate = %d", cfg.Session.Capture.WireRate)
	}
	if cfg.Session.Capture.BlockSize != 4096 {
		t.Fatalf("block size = %d", cfg.Session.Capture.BlockSize)
	}
	if cfg.Devices.OutputRate != 48000 {
		t.Fatalf("output rate = %d", cfg.Devices.OutputRate)
	}
}

func TestLoadConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxa.yaml")
	body := []byte("server:\n  url: wss://voice.example.com/ws/chat\n  settings:\n    recv_buffer: 64\nsession:\n  capture:\n    block_size: 2048\nlog_level: debug\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.URL != "wss://voice.example.com/ws/chat" {
		t.Fatalf("server url = %q", cfg.Server.URL)
	}
	if cfg.Session.Capture.BlockSize != 2048 {
		t.Fatalf("block size = %d", cfg.Session.Capture.BlockSize)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
	if _, ok := cfg.Server.Settings["recv_buffer"]; !ok {
		t.Fatal("server settings not decoded")
	}
	// Untouched keys keep their defaults.
	if cfg.Session.Capture.WireRate != 16000 {
		t.Fatalf("wire rate = %d", cfg.Session.Capture.WireRate)
	}
}

func TestLoadConfigRejectsBadScheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxa.yaml")
	if err := os.WriteFile(path, []byte("server:\n  url: http://voice.example.com/chat\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected scheme validation error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected read error for missing file")
	}
}
