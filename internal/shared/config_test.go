package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.spotify]
client_id = "abc"
client_secret = "def"

[input]
file = "my_export.csv"
delimiter = ","

[upload]
max_attempts = 3
requests_per_second = 2.5

[matching]
title_fallback = false
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.Credentials.Spotify.ClientID != "abc" {
			t.Errorf("unexpected client_id: %s", config.Credentials.Spotify.ClientID)
		}
		if config.Input.Delimiter != "," {
			t.Errorf("unexpected delimiter: %q", config.Input.Delimiter)
		}
		if config.Upload.MaxAttempts != 3 || config.Upload.RequestsPerSecond != 2.5 {
			t.Errorf("unexpected upload settings: %+v", config.Upload)
		}
		if config.Matching.TitleFallback {
			t.Error("expected title_fallback to be false")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("malformed toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[input\nbroken"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[input]\nfile = \"from_file.csv\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		t.Setenv("PLX_INPUT_FILE", "from_env.csv")
		t.Setenv("SPOTIFY_CLIENT_ID", "env-client")

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.Input.File != "from_env.csv" {
			t.Errorf("expected env override, got %s", config.Input.File)
		}
		if config.Credentials.Spotify.ClientID != "env-client" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Input.Delimiter != ";" {
		t.Errorf("expected default ; delimiter, got %q", config.Input.Delimiter)
	}
	if config.Upload.MaxAttempts != 5 {
		t.Errorf("expected 5 max attempts, got %d", config.Upload.MaxAttempts)
	}
	if config.Input.Columns.Playlist != "playlist" || config.Input.Columns.Title != "title" {
		t.Errorf("unexpected default columns: %+v", config.Input.Columns)
	}
	if !config.Matching.TitleFallback {
		t.Error("expected title fallback on by default")
	}
	if config.Credentials.Spotify.RedirectURI != "http://localhost:8888/callback" {
		t.Errorf("unexpected redirect: %s", config.Credentials.Spotify.RedirectURI)
	}
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile failed: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Errorf("created config does not parse: %v", err)
	}
	if err := CreateConfigFile(path); err == nil {
		t.Error("expected an error when the file already exists")
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"0", false},
		{"false", false},
		{"", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Setenv("PLX_TEST_BOOL", tt.value)
			if got := EnvBool("PLX_TEST_BOOL"); got != tt.want {
				t.Errorf("EnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
