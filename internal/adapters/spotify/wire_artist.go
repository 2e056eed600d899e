package spotify

import (
	"context"
	"fmt"
	"log"
	"net/url"
)

// artistCandidates is how many search hits are weighed by pickArtist.
const artistCandidates = 5

// searchArtists returns the top artist hits for name.
func (c *Client) searchArtists(ctx context.Context, token string, name string) ([]spotifyArtist, error) {
	searchURL, err := url.Parse(fmt.Sprintf("%s/search", c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid search url: %w", err)
	}

	query := searchURL.Query()
	query.Set("q", name)
	query.Set("type", "artist")
	query.Set("limit", fmt.Sprint(artistCandidates))
	query.Set("market", "US")
	searchURL.RawQuery = query.Encode()

	log.Printf("DEBUG spotify adapter: artist search URL: %s", searchURL.String()) // #nosec G706 -- URL is internally constructed from trusted baseURL constant

	var body artistSearchResponse
	if err := c.getJSON(ctx, token, searchURL.String(), &body); err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	return body.Artists.Items, nil
}

// getTopTracks fetches an artist's top tracks in the US market.
func (c *Client) getTopTracks(ctx context.Context, token string, artistID string) ([]spotifyTrack, error) {
	topTracksURL := fmt.Sprintf("%s/artists/%s/top-tracks?market=US", c.baseURL, url.PathEscape(artistID))

	var body topTracksResponse
	if err := c.getJSON(ctx, token, topTracksURL, &body); err != nil {
		return nil, fmt.Errorf("top tracks request failed: %w", err)
	}
	return body.Tracks, nil
}
