package main

import (
	"context"
	"os"

	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	shared.LoadDotenv()

	var service services.Service

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
			"redirect_uri":  config.Credentials.Spotify.RedirectURI,
		}); err == nil {
			service = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Service: service,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "plx",
		Usage:    "Upload delimited playlist exports to Spotify",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			logger.Error(err.Error())
			os.Exit(exitErr.ExitCode())
		}
		logger.Fatalf("application error: %v", err)
	}
}
