// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/plx/internal/services"
)

// MockService is a no-op test double for [services.Service]
type MockService struct{}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockService) CurrentUser(ctx context.Context) (*services.User, error) {
	return &services.User{ID: "mock-user"}, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*services.CreatedPlaylist, error) {
	return &services.CreatedPlaylist{ID: "mock-playlist", Name: name}, nil
}

func (m *MockService) SearchTrack(ctx context.Context, title, artist string) (*services.FoundTrack, error) {
	return &services.FoundTrack{URI: "mock:track:1", Title: title, Artist: artist}, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
