package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// MoodCount is how many mood keywords an annotation carries.
const MoodCount = 3

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Clean checks a generated annotation. The title must be non-empty and at
// least one mood keyword must survive trimming; extra keywords are cut to
// MoodCount. A malformed colour is cleared so the tape keeps its palette
// colour.
func (a Analysis) Clean() (Analysis, error) {
	out := Analysis{
		Title:   strings.TrimSpace(a.Title),
		Summary: strings.TrimSpace(a.Summary),
	}
	if out.Title == "" {
		return Analysis{}, fmt.Errorf("%w: missing title", ErrInvalidAnalysis)
	}

	for _, m := range a.Mood {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" {
			continue
		}
		out.Mood = append(out.Mood, m)
		if len(out.Mood) == MoodCount {
			break
		}
	}
	if len(out.Mood) == 0 {
		return Analysis{}, fmt.Errorf("%w: no mood keywords", ErrInvalidAnalysis)
	}

	if c := strings.TrimSpace(a.ColorHex); hexColor.MatchString(c) {
		out.ColorHex = strings.ToUpper(c)
	}
	return out, nil
}
