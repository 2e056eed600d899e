package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when nothing is persisted under a key.
	ErrNotFound = errors.New("domain: not found")

	ErrNoSongsFound      = errors.New("no songs found")
	ErrDuplicateArtist   = errors.New("artist already on desk")
	ErrCredentialExpired = errors.New("credential expired")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNotConfigured     = errors.New("provider not configured")
	ErrFeatureDisabled   = errors.New("feature disabled")
	ErrSearchBusy        = errors.New("search already in progress")
	ErrTapeNotFound      = errors.New("tape not found")
	ErrPlayerOccupied    = errors.New("player already holds a tape")
	ErrPlayerEmpty       = errors.New("no tape loaded")
	ErrInvalidState      = errors.New("invalid auth state")
	ErrInvalidAnalysis   = errors.New("invalid analysis")
)

// DuplicateArtistError carries the artist a search was rejected for.
type DuplicateArtistError struct {
	Artist string
}

func (e DuplicateArtistError) Error() string {
	return fmt.Sprintf("you already have songs from %q on your desk, try a different artist", e.Artist)
}

func (e DuplicateArtistError) Is(target error) bool {
	return target == ErrDuplicateArtist
}
