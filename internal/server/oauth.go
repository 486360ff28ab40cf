package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of one authorization attempt.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler accepts a single OAuth2 authorization code callback, validates
// the state token and exchanges the code. Subsequent requests are rejected.
type OAuthHandler struct {
	config     *oauth2.Config
	state      string
	resultChan chan OAuthResult
	once       sync.Once
}

// NewOAuthHandler creates a handler bound to the given config and state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:     config,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := h.exchange(r)
	if err != nil {
		h.send(OAuthResult{err: err})
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// exchange validates the callback query and trades the code for a token.
func (h *OAuthHandler) exchange(r *http.Request) (*oauth2.Token, error) {
	query := r.URL.Query()

	if query.Get("state") != h.state {
		return nil, fmt.Errorf("invalid state parameter")
	}

	code := query.Get("code")
	if code == "" {
		return nil, fmt.Errorf("authorization failed: %s - %s",
			query.Get("error"), query.Get("error_description"))
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, nil
}

// send delivers the result exactly once; later callbacks are dropped.
func (h *OAuthHandler) send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel carrying the single flow outcome.
// The channel receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Spotify Connected</title>
    <style>
        body { font-family: sans-serif; margin: 4rem auto; max-width: 28rem; text-align: center; }
        h1 { color: #1DB954; }
    </style>
</head>
<body>
    <h1>Spotify connected</h1>
    <p>Authorization complete. You can close this tab and return to the terminal.</p>
</body>
</html>
`
