package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file,
// with environment variables (optionally from a .env file) layered on top.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Input       InputConfig       `toml:"input"`
	Upload      UploadConfig      `toml:"upload"`
	Matching    MatchingConfig    `toml:"matching"`
	Cache       CacheConfig       `toml:"cache"`
	Export      ExportConfig      `toml:"export"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// InputConfig describes the delimited export file and its header labels.
type InputConfig struct {
	File      string        `toml:"file"`
	Delimiter string        `toml:"delimiter"`
	Columns   ColumnsConfig `toml:"columns"`
}

// ColumnsConfig maps logical track fields to header labels in the export file.
// Matching is case-insensitive.
type ColumnsConfig struct {
	Playlist string `toml:"playlist"`
	Title    string `toml:"title"`
	Artist   string `toml:"artist"`
	Album    string `toml:"album"`
	Duration string `toml:"duration"`
}

// UploadConfig contains upload controller settings.
type UploadConfig struct {
	MaxAttempts       int     `toml:"max_attempts"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	RateLogFile       string  `toml:"rate_log_file"`
	MissingTracksFile string  `toml:"missing_tracks_file"`
	Public            bool    `toml:"public"`
}

// MatchingConfig controls how tracks are matched against the remote catalog.
type MatchingConfig struct {
	// TitleFallback retries a missed title+artist search with the title alone.
	TitleFallback bool `toml:"title_fallback"`
}

// CacheConfig contains search cache database settings. An empty path disables the cache.
type CacheConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ExportConfig contains snapshot export settings.
type ExportConfig struct {
	Dir string `toml:"dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded
// example config, with environment overrides applied.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotenv loads a .env file from the working directory if one exists.
// Missing files are not an error; the original tool treats .env as optional.
func LoadDotenv() {
	_ = godotenv.Load()
}

// applyEnv overlays recognized environment variables onto the config.
// Environment values win over file values; CLI flags win over both (handled by the caller).
func (c *Config) applyEnv() {
	setString(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	setString(&c.Credentials.Spotify.RedirectURI, "SPOTIFY_REDIRECT_URI")
	setString(&c.Credentials.Spotify.TokenPath, "SPOTIFY_TOKEN_PATH")
	setString(&c.Input.File, "PLX_INPUT_FILE")
	setString(&c.Input.Delimiter, "PLX_INPUT_DELIMITER")
	setString(&c.Upload.RateLogFile, "PLX_RATE_LOG")
	setString(&c.Upload.MissingTracksFile, "PLX_MISSING_TRACKS_FILE")
	setString(&c.Cache.Path, "PLX_CACHE_PATH")
	setString(&c.Export.Dir, "PLX_EXPORT_DIR")

	if v := os.Getenv("PLX_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Upload.MaxAttempts = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// EnvBool reports whether the named environment variable is set to a truthy value.
func EnvBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "TRUE", "YES", "True", "Yes":
		return true
	}
	return false
}
