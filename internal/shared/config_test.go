package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./plmigrate.db" {
			t.Errorf("expected database path ./plmigrate.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Migration.PoolSize != 20 {
			t.Errorf("expected pool size 20, got %d", config.Migration.PoolSize)
		}

		if config.Migration.PlaylistWorkers != 1 {
			t.Errorf("expected 1 playlist worker, got %d", config.Migration.PlaylistWorkers)
		}

		if config.Migration.Description != "Migrated from Spotify" {
			t.Errorf("unexpected description %q", config.Migration.Description)
		}

		if config.Migration.SkipEmpty {
			t.Error("skip_empty should default to false")
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[credentials.youtube]
api_key = "test_api_key"
base_url = "http://localhost:9090"

[migration]
pool_size = 4
request_timeout = 3
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("missing keys should keep defaults, got port %d", config.Server.Port)
		}

		if config.Credentials.YouTube.BaseURL != "http://localhost:9090" {
			t.Errorf("unexpected youtube base url %s", config.Credentials.YouTube.BaseURL)
		}

		if config.Migration.PoolSize != 4 {
			t.Errorf("expected pool size 4, got %d", config.Migration.PoolSize)
		}

		if got := config.Migration.Timeout(); got != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", got)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig Round Trip Tokens", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()

		expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		if err := config.Credentials.Spotify.Update(&oauth2.Token{AccessToken: "abc", RefreshToken: "def", Expiry: expiry}); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		tok := loaded.Credentials.Spotify.Token()
		if tok == nil {
			t.Fatal("expected stored token")
		}
		if tok.AccessToken != "abc" || tok.RefreshToken != "def" {
			t.Errorf("unexpected token %+v", tok)
		}
		if !tok.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, tok.Expiry)
		}

		if loaded.Credentials.YouTube.Token() != nil {
			t.Error("youtube should have no token")
		}
	})
}

func TestServiceConfig(t *testing.T) {
	t.Run("Update rejects empty token", func(t *testing.T) {
		var s ServiceConfig
		if err := s.Update(&oauth2.Token{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
		if err := s.Update(nil); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for nil, got %v", err)
		}
	})

	t.Run("Update keeps refresh token when absent", func(t *testing.T) {
		s := ServiceConfig{RefreshToken: "keep"}
		if err := s.Update(&oauth2.Token{AccessToken: "new"}); err != nil {
			t.Fatal(err)
		}
		if s.RefreshToken != "keep" {
			t.Errorf("refresh token overwritten: %q", s.RefreshToken)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s := ServiceConfig{ClientID: "id", AccessToken: "a", RefreshToken: "r", Expiry: time.Now()}
		s.Clear()
		if s.Token() != nil || s.RefreshToken != "" || !s.Expiry.IsZero() {
			t.Errorf("expected cleared token, got %+v", s)
		}
		if s.ClientID != "id" {
			t.Error("client id should survive Clear")
		}
	})
}
