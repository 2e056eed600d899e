package spotify

// minArtistSimilarity is the floor below which a search hit is not trusted
// over Spotify's own ranking.
const minArtistSimilarity = 0.55

// pickArtist chooses the candidate whose name is closest to the request.
// When no candidate clears minArtistSimilarity the top-ranked one wins.
func pickArtist(request string, candidates []spotifyArtist) (spotifyArtist, bool) {
	if len(candidates) == 0 {
		return spotifyArtist{}, false
	}

	want := normalizeSearchInput(request)
	best := candidates[0]
	bestScore := -1.0
	for _, c := range candidates {
		score := similarity(want, normalizeSearchInput(c.Name))
		if score > bestScore {
			best, bestScore = c, score
		}
	}

	if bestScore < minArtistSimilarity {
		return candidates[0], true
	}
	return best, true
}

func similarity(a string, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

func levenshteinDistance(a string, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		copy(prev, curr)
	}

	return prev[len(rb)]
}
