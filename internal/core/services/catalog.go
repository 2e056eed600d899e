package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

// Result caps per provider.
const (
	PrimaryLimit   = 10
	SecondaryLimit = 5
)

// Attempt is one provider in the fallback order.
type Attempt struct {
	Provider ports.TrackProvider
	Limit    int
}

// SearchResult is a normalized batch of tapes and the provider that produced it.
type SearchResult struct {
	Tapes   []domain.Tape `json:"tapes"`
	Source  string        `json:"source,omitempty"`
	Notices []string      `json:"notices,omitempty"`
}

// Catalog turns an artist name into tapes by walking providers in order and
// stopping at the first that yields anything playable. Provider errors are
// logged and count as an empty answer.
type Catalog struct {
	attempts []Attempt
	colors   func(n int) []string
}

// NewCatalog builds a catalog. colors picks the batch palette.
func NewCatalog(colors func(n int) []string, attempts ...Attempt) *Catalog {
	return &Catalog{attempts: attempts, colors: colors}
}

// Fetch returns domain.ErrNoSongsFound when every provider came up empty.
func (c *Catalog) Fetch(ctx context.Context, artist string) (SearchResult, error) {
	var res SearchResult
	var triedPrimary string

	for _, a := range c.attempts {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("catalog: search canceled: %w", err)
		}
		if !a.Provider.Ready(ctx) {
			continue
		}
		if triedPrimary != "" {
			res.Notices = append(res.Notices, fmt.Sprintf("No songs found on %s with preview URLs, trying %s fallback", triedPrimary, displayName(a.Provider)))
		}

		tapes := c.attempt(ctx, a, artist)
		if len(tapes) > 0 {
			colors := c.colors(len(tapes))
			for i := range tapes {
				tapes[i].Color = colors[i]
				if tapes[i].Source == "" {
					tapes[i].Source = a.Provider.Name()
				}
			}
			res.Tapes = tapes
			res.Source = a.Provider.Name()
			return res, nil
		}
		if triedPrimary == "" {
			triedPrimary = displayName(a.Provider)
		}
	}

	return res, domain.ErrNoSongsFound
}

// displayName prefers a provider's human-facing name for notices.
func displayName(p ports.TrackProvider) string {
	if d, ok := p.(interface{ DisplayName() string }); ok {
		return d.DisplayName()
	}
	return p.Name()
}

func (c *Catalog) attempt(ctx context.Context, a Attempt, artist string) []domain.Tape {
	tapes, err := a.Provider.SearchArtist(ctx, artist, a.Limit)
	if err != nil {
		log.Printf("WARN catalog: %s search for %q failed: %v", a.Provider.Name(), artist, err)
		return nil
	}

	playable := make([]domain.Tape, 0, len(tapes))
	for _, t := range tapes {
		if strings.TrimSpace(t.PreviewURL) == "" {
			continue
		}
		playable = append(playable, t)
		if a.Limit > 0 && len(playable) == a.Limit {
			break
		}
	}
	return playable
}
