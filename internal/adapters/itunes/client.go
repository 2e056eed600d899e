// Package itunes searches the public iTunes catalogue. It needs no
// credentials and serves as the fallback track provider.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

const (
	defaultSearchURL = "https://itunes.apple.com/search"
	sourceName       = "itunes"
)

type searchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

type itunesResult struct {
	TrackID         int64  `json:"trackId"`
	ArtistName      string `json:"artistName"`
	TrackName       string `json:"trackName"`
	PreviewURL      string `json:"previewUrl"`
	TrackTimeMillis int64  `json:"trackTimeMillis"`
	ReleaseDate     string `json:"releaseDate"`
}

// Client queries the iTunes Search API.
type Client struct {
	httpClient *http.Client
	searchURL  string
}

var _ ports.TrackProvider = (*Client)(nil)

// NewClient constructs a client; an empty searchURL uses the public endpoint.
func NewClient(httpClient *http.Client, searchURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if searchURL == "" {
		searchURL = defaultSearchURL
	}
	return &Client{httpClient: httpClient, searchURL: searchURL}
}

// Name identifies the provider in notices and logs.
func (c *Client) Name() string { return sourceName }

// DisplayName is used in user-facing notices.
func (c *Client) DisplayName() string { return "iTunes" }

// Ready is always true; the catalogue is public.
func (c *Client) Ready(context.Context) bool { return true }

// SearchArtist returns up to limit songs matching artist.
func (c *Client) SearchArtist(ctx context.Context, artist string, limit int) ([]domain.Tape, error) {
	u, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, fmt.Errorf("itunes: invalid search url: %w", err)
	}
	q := u.Query()
	q.Set("term", artist)
	q.Set("media", "music")
	q.Set("entity", "song")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("itunes: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes: unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("itunes: decode response: %w", err)
	}

	tapes := make([]domain.Tape, 0, len(body.Results))
	for _, r := range body.Results {
		if r.TrackID == 0 || strings.TrimSpace(r.PreviewURL) == "" {
			continue
		}
		tapes = append(tapes, toTape(r))
		if limit > 0 && len(tapes) == limit {
			break
		}
	}
	return tapes, nil
}

func toTape(r itunesResult) domain.Tape {
	return domain.Tape{
		ID:         strconv.FormatInt(r.TrackID, 10),
		Artist:     r.ArtistName,
		Title:      r.TrackName,
		PreviewURL: r.PreviewURL,
		Duration:   float64(r.TrackTimeMillis) / 1000,
		Source:     sourceName,
		Date:       releaseDay(r.ReleaseDate),
	}
}

// releaseDay trims an ISO timestamp to its date.
func releaseDay(s string) string {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02")
	}
	return s
}
