package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "3000" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("read timeout = %s", cfg.Server.ReadTimeout)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000/api/accounting" {
		t.Fatalf("backend url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Yoco.PublicKey != "" {
		t.Fatalf("yoco key = %q", cfg.Yoco.PublicKey)
	}
	if cfg.Settings.TTL != 5*time.Minute {
		t.Fatalf("settings ttl = %s", cfg.Settings.TTL)
	}
}

func TestLoadEnvMapOverrides(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"WEB_SERVER_PORT":          "8081",
		"WEB_BACKEND_API_URL":      "https://api.alphalpgas.co.za/api/accounting",
		"WEB_YOCO_PUBLIC_KEY":      "pk_live_abc",
		"WEB_SERVER_READ_TIMEOUT":  "5s",
		"WEB_CORS_ALLOWED_ORIGINS": "https://alphalpgas.co.za, https://www.alphalpgas.co.za",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8081" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "https://api.alphalpgas.co.za/api/accounting" {
		t.Fatalf("backend url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Yoco.PublicKey != "pk_live_abc" {
		t.Fatalf("yoco key = %q", cfg.Yoco.PublicKey)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("read timeout = %s", cfg.Server.ReadTimeout)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://www.alphalpgas.co.za" {
		t.Fatalf("origins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "WEB_SERVER_PORT=4000\nWEB_YOCO_PUBLIC_KEY=pk_test_xyz\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "4000" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Yoco.PublicKey != "pk_test_xyz" {
		t.Fatalf("yoco key = %q", cfg.Yoco.PublicKey)
	}
}

func TestLoadEnvMapBeatsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("WEB_SERVER_PORT=4000\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"WEB_SERVER_PORT": "5000",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "5000" {
		t.Fatalf("port = %q, explicit map must win", cfg.Server.Port)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	cfg, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "3000" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"WEB_BACKEND_API_URL": "   ",
	}))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(vErr.Error(), "Backend.BaseURL") {
		t.Fatalf("error = %v", vErr)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"WEB_SERVER_WRITE_TIMEOUT": "soon",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Fatalf("write timeout = %s", cfg.Server.WriteTimeout)
	}
}
