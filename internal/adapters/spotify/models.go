package spotify

// spotifyArtist is an artist object from search results and track listings.
type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyAlbum struct {
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
}

// spotifyTrack is a track object from the top-tracks endpoint. PreviewURL is
// null for many tracks.
type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PreviewURL *string         `json:"preview_url"`
	DurationMs int             `json:"duration_ms"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
}

type artistSearchResponse struct {
	Artists struct {
		Items []spotifyArtist `json:"items"`
	} `json:"artists"`
}

type topTracksResponse struct {
	Tracks []spotifyTrack `json:"tracks"`
}
