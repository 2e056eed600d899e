package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

// TokenSource hands out the stored user access token.
type TokenSource interface {
	// AccessToken returns domain.ErrNotAuthenticated or
	// domain.ErrCredentialExpired when no usable token exists.
	AccessToken(ctx context.Context) (string, error)
	// Invalidate drops the stored token after the API rejected it.
	Invalidate(ctx context.Context)
}

// Client searches Spotify for an artist's top tracks on behalf of the
// signed-in user.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      retryPolicy
	tokens     TokenSource
}

// compile-time interface assertion
var _ ports.TrackProvider = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithRetry sets the attempt budget and base backoff for 429/5xx responses.
func WithRetry(maxRetries int, baseBackoff time.Duration) Option {
	return func(c *Client) {
		c.retry = retryPolicy{attempts: maxRetries, base: baseBackoff}
	}
}

// NewClient constructs a new Spotify client.
func NewClient(httpClient *http.Client, baseURL string, tokens TokenSource, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider in notices and logs.
func (c *Client) Name() string { return sourceName }

// DisplayName is used in user-facing notices.
func (c *Client) DisplayName() string { return "Spotify" }

// Ready reports whether a usable credential is stored.
func (c *Client) Ready(ctx context.Context) bool {
	if c.tokens == nil {
		return false
	}
	_, err := c.tokens.AccessToken(ctx)
	return err == nil
}

// SearchArtist resolves artist to a Spotify artist and returns up to limit of
// their top tracks that carry a preview clip. An unknown artist yields an
// empty result, not an error.
func (c *Client) SearchArtist(ctx context.Context, artist string, limit int) ([]domain.Tape, error) {
	if c.tokens == nil {
		return nil, domain.ErrNotConfigured
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	candidates, err := c.searchArtists(ctx, token, artist)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: failed to find artist %q: %w", artist, err)
	}
	match, ok := pickArtist(artist, candidates)
	if !ok {
		return []domain.Tape{}, nil
	}

	tracks, err := c.getTopTracks(ctx, token, match.ID)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: failed to get top tracks for artist %q: %w", match.Name, err)
	}

	return mapTopTracks(tracks, match.Name, limit), nil
}

// getJSON performs an authorized GET and decodes the body into out. A 401
// invalidates the stored token.
func (c *Client) getJSON(ctx context.Context, token string, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.retry.send(ctx, c.httpClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.tokens.Invalidate(ctx)
		return domain.ErrCredentialExpired
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	return nil
}
