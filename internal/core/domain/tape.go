package domain

// Analysis is the cosmetic annotation produced by the generative service.
type Analysis struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Mood     []string `json:"mood"`
	ColorHex string   `json:"colorHex"`
}

// Tape represents one song instance placed on the desk or loaded in the player.
type Tape struct {
	ID         string  `json:"id"`
	Artist     string  `json:"artist"`
	Title      string  `json:"title"`
	PreviewURL string  `json:"previewUrl"`
	Duration   float64 `json:"duration"` // seconds, informational only
	Source     string  `json:"source,omitempty"`

	// Visual properties
	Color    string  `json:"color"`
	Rotation float64 `json:"rotation"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`

	Analysis *Analysis `json:"analysis,omitempty"`
	Date     string    `json:"date,omitempty"`
}

// Placement is the position and tilt assigned to a tape entering the loose pool.
type Placement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// Place returns a copy of the tape moved to p.
func (t Tape) Place(p Placement) Tape {
	t.X = p.X
	t.Y = p.Y
	t.Rotation = p.Rotation
	return t
}

// Placement reports where the tape currently lies.
func (t Tape) Placement() Placement {
	return Placement{X: t.X, Y: t.Y, Rotation: t.Rotation}
}

func (t Tape) clone() Tape {
	if t.Analysis != nil {
		a := *t.Analysis
		a.Mood = append([]string(nil), t.Analysis.Mood...)
		t.Analysis = &a
	}
	return t
}
