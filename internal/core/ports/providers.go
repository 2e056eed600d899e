package ports

import (
	"context"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

// TrackProvider is an external music search service that can produce tapes
// for an artist. Tapes come back without colour or placement.
type TrackProvider interface {
	Name() string
	// Ready reports whether the provider can be queried right now, e.g. it is
	// configured and, if it needs one, holds a live session.
	Ready(ctx context.Context) bool
	SearchArtist(ctx context.Context, artist string, limit int) ([]domain.Tape, error)
}

// CredentialStore persists the primary provider's session across restarts.
type CredentialStore interface {
	// LoadCredential returns domain.ErrNotFound when nothing is stored.
	LoadCredential(ctx context.Context) (domain.Credential, error)
	SaveCredential(ctx context.Context, c domain.Credential) error
	ClearCredential(ctx context.Context) error
}
