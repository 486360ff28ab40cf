package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/plx/internal/server"
	"github.com/desertthunder/plx/internal/services"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

// loginTimeout bounds how long the callback listener waits for the browser.
const loginTimeout = 5 * time.Minute

// AuthLogin runs the OAuth authorization code flow against a loopback
// listener and saves the resulting token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	callback, err := server.NewCallbackServer(spotify.OAuthConfig(), state, r.logger)
	if err != nil {
		return err
	}

	r.writePlain("Open this URL in your browser to authorize:\n\n%s\n\n", spotify.GetAuthURL(state))

	waitCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	token, err := callback.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if err := services.SaveToken(r.tokenPath(), token); err != nil {
		return err
	}
	r.logger.Info("token saved", "path", r.tokenPath())

	return r.writePlain("✓ Authentication successful\n")
}

// AuthStatus verifies the saved token against the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	token, err := services.LoadToken(r.tokenPath())
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return r.writePlain("✗ Not authenticated (no saved token)\nRun `plx auth login` to connect Spotify.\n")
		}
		if errors.Is(err, shared.ErrTokenExpired) {
			return r.writePlain("✗ Saved token expired and cannot be refreshed\nRun `plx auth login` to reconnect.\n")
		}
		return err
	}

	spotify.SetToken(ctx, token)
	user, err := spotify.CurrentUser(ctx)
	if err != nil {
		r.logger.Debug("token check failed", "err", err)
		return r.writePlain("✗ Saved token was rejected\nRun `plx auth login` to reconnect.\n")
	}

	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return r.writePlain("✓ Authenticated as %s\n", name)
}

// spotifyService returns the runner's service as a SpotifyService, building
// one from config when main could not (e.g. credentials arrived via flags).
func (r *Runner) spotifyService() (*services.SpotifyService, error) {
	if spotify, ok := r.service.(*services.SpotifyService); ok {
		return spotify, nil
	}

	spotify, err := services.NewSpotifyService(map[string]string{
		"client_id":     r.config.Credentials.Spotify.ClientID,
		"client_secret": r.config.Credentials.Spotify.ClientSecret,
		"redirect_uri":  r.config.Credentials.Spotify.RedirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: set credentials in config.toml or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET", err)
	}
	r.service = spotify
	return spotify, nil
}
