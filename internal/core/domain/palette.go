package domain

import "math/rand"

// TapeColors is the fixed cassette shell palette.
var TapeColors = []string{
	"#ef4444", // Red
	"#f97316", // Orange
	"#eab308", // Yellow
	"#22c55e", // Green
	"#06b6d4", // Cyan
	"#3b82f6", // Blue
	"#8b5cf6", // Violet
	"#ec4899", // Pink
	"#14b8a6", // Teal
	"#64748b", // Slate
	"#a1a1aa", // Zinc
}

// BatchColors picks n colours from a shuffled copy of the palette, cycling
// when n exceeds the palette size. No colour repeats while n <= len(TapeColors).
func BatchColors(n int, rng *rand.Rand) []string {
	if n <= 0 {
		return nil
	}
	shuffled := append([]string(nil), TapeColors...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	out := make([]string, n)
	for i := range out {
		out[i] = shuffled[i%len(shuffled)]
	}
	return out
}
