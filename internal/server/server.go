// package server runs the loopback HTTP listener for the OAuth authorization
// code flow. It exists only for the duration of `plx auth login`.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// CallbackServer serves the OAuth redirect URI until one callback arrives.
type CallbackServer struct {
	handler *OAuthHandler
	addr    string
	path    string
	logger  *log.Logger
}

// NewCallbackServer builds a server for the given OAuth config. The listen
// address and path are derived from the config's redirect URL.
func NewCallbackServer(config *oauth2.Config, state string, logger *log.Logger) (*CallbackServer, error) {
	redirect, err := url.Parse(config.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL %q: %w", config.RedirectURL, err)
	}
	host := redirect.Host
	if redirect.Port() == "" {
		host = net.JoinHostPort(redirect.Hostname(), "80")
	}
	path := redirect.Path
	if path == "" {
		path = "/callback"
	}

	return &CallbackServer{
		handler: NewOAuthHandler(config, state),
		addr:    host,
		path:    path,
		logger:  logger,
	}, nil
}

// Wait serves the callback endpoint until a result arrives or ctx is done,
// then shuts the listener down and returns the exchanged token.
func (s *CallbackServer) Wait(ctx context.Context) (*oauth2.Token, error) {
	mux := http.NewServeMux()
	mux.Handle(s.path, s.handler)

	srv := &http.Server{Addr: s.addr, Handler: mux}
	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	if s.logger != nil {
		s.logger.Info("waiting for authorization", "addr", s.addr, "path", s.path)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case result := <-s.handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	case err := <-errChan:
		return nil, fmt.Errorf("callback server failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
