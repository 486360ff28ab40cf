// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/plx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// MaxTracksPerAdd is the payload ceiling Spotify enforces on the
	// add-tracks endpoint.
	MaxTracksPerAdd = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylist represents a Spotify playlist as returned by the create endpoint.
type SpotifyPlaylist struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Public       bool   `json:"public"`
	URI          string `json:"uri"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for playlist and track operations.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
	userID     string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-modify-private",
			"playlist-modify-public",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// OAuthConfig exposes the service's oauth2 configuration for the callback server.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// SetToken installs an already-obtained token (e.g. loaded from disk) and
// builds the refreshing HTTP client around it.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// SetBaseURL overrides the API base URL. Used by tests.
func (s *SpotifyService) SetBaseURL(u string) {
	s.baseURL = u
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an
// "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.SetToken(ctx, &oauth2.Token{AccessToken: accessToken})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
		}
		s.SetToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// 429 responses surface as [*RateLimitError] with the parsed Retry-After
// duration; other non-2xx responses surface as [*StatusError].
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return shared.ErrNotAuthenticated
	}

	apiURL := s.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, ok := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &RateLimitError{
			Endpoint:      endpoint,
			Status:        resp.StatusCode,
			RetryAfter:    retryAfter,
			HasRetryAfter: ok,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(raw)),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CurrentUser retrieves the current authenticated user's profile. The user ID
// is cached; playlist creation needs it for the endpoint path.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*User, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	s.userID = user.ID
	return &User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// CreatePlaylist creates a playlist for the authenticated user. Spotify allows
// duplicate names, so every call creates a new playlist.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*CreatedPlaylist, error) {
	if s.userID == "" {
		if _, err := s.CurrentUser(ctx); err != nil {
			return nil, err
		}
	}

	payload := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(s.userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, payload, &playlist); err != nil {
		return nil, err
	}

	return &CreatedPlaylist{
		ID:   playlist.ID,
		Name: playlist.Name,
		URL:  playlist.ExternalURLs.Spotify,
	}, nil
}

// SearchTrack searches the catalog for a single best match. The query uses
// Spotify's field filters; artist is omitted when empty.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*FoundTrack, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: empty title", shared.ErrInvalidInput)
	}

	query := fmt.Sprintf("track:%s", title)
	if artist != "" {
		query += fmt.Sprintf(" artist:%s", artist)
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=1", url.QueryEscape(query))

	var response searchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, title)
	}

	item := response.Tracks.Items[0]
	found := &FoundTrack{
		URI:   item.URI,
		Title: item.Name,
		Album: item.Album.Name,
	}
	if len(item.Artists) > 0 {
		found.Artist = item.Artists[0].Name
	}
	return found, nil
}

// AddTracks appends track URIs to a playlist in one request. Callers batch to
// [MaxTracksPerAdd] so a retried call never re-adds earlier batches.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > MaxTracksPerAdd {
		return fmt.Errorf("%w: at most %d tracks per add call", shared.ErrInvalidInput, MaxTracksPerAdd)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	payload := map[string]any{"uris": uris}
	return s.doRequest(ctx, http.MethodPost, endpoint, payload, nil)
}
