package domain

import "strings"

// NormalizeArtist folds an artist name for duplicate comparison.
func NormalizeArtist(artist string) string {
	return strings.ToLower(strings.TrimSpace(artist))
}

// ArtistOnDesk reports whether any tape, loose or loaded, belongs to artist.
func ArtistOnDesk(d Desk, artist string) bool {
	want := NormalizeArtist(artist)
	if want == "" {
		return false
	}
	if d.Loaded != nil && NormalizeArtist(d.Loaded.Artist) == want {
		return true
	}
	for _, t := range d.Loose {
		if NormalizeArtist(t.Artist) == want {
			return true
		}
	}
	return false
}

// GuardArtist returns a DuplicateArtistError when artist is already on the desk.
func GuardArtist(d Desk, artist string) error {
	if ArtistOnDesk(d, artist) {
		return DuplicateArtistError{Artist: strings.TrimSpace(artist)}
	}
	return nil
}
