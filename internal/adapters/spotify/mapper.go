package spotify

import (
	"strings"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

const (
	// previewSeconds is the fixed length of a Spotify preview clip.
	previewSeconds = 30
	topTracksLabel = "Spotify Top 10"
	sourceName     = "spotify"
)

// mapTrackToTape converts a top track into a tape credited to artist, the
// canonical name of the matched artist. Tracks without a preview are dropped.
func mapTrackToTape(st spotifyTrack, artist string) (domain.Tape, bool) {
	if st.PreviewURL == nil || strings.TrimSpace(*st.PreviewURL) == "" {
		return domain.Tape{}, false
	}

	if artist == "" && len(st.Artists) > 0 {
		artist = st.Artists[0].Name
	}

	return domain.Tape{
		ID:         "spotify-" + st.ID,
		Artist:     artist,
		Title:      st.Name,
		PreviewURL: *st.PreviewURL,
		Duration:   previewSeconds,
		Source:     sourceName,
		Date:       topTracksLabel,
	}, true
}

// mapTopTracks keeps playable tracks, in chart order, up to limit.
func mapTopTracks(tracks []spotifyTrack, artist string, limit int) []domain.Tape {
	tapes := make([]domain.Tape, 0, len(tracks))
	for _, st := range tracks {
		t, ok := mapTrackToTape(st, artist)
		if !ok {
			continue
		}
		tapes = append(tapes, t)
		if limit > 0 && len(tapes) == limit {
			break
		}
	}
	return tapes
}
