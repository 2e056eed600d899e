package domain

import (
	"errors"
	"testing"
)

func TestGuardArtist(t *testing.T) {
	loaded, _ := NewDesk("s").AddLoose(tape("b", "Blur")).Load(tape("q", "QUEEN"))

	tests := []struct {
		name    string
		desk    Desk
		artist  string
		wantErr bool
	}{
		{name: "loose match ignoring case and space", desk: NewDesk("s").AddLoose(tape("a", "Queen")), artist: " queen ", wantErr: true},
		{name: "loaded match", desk: loaded, artist: "queen", wantErr: true},
		{name: "different artist", desk: loaded, artist: "Oasis", wantErr: false},
		{name: "empty desk", desk: NewDesk("s"), artist: "Queen", wantErr: false},
		{name: "blank artist", desk: loaded, artist: "   ", wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := GuardArtist(tc.desk, tc.artist)
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected err=%v, got %v", tc.wantErr, err)
			}
			if tc.wantErr && !errors.Is(err, ErrDuplicateArtist) {
				t.Fatalf("expected ErrDuplicateArtist, got %v", err)
			}
		})
	}
}

func TestBatchColors(t *testing.T) {
	rng := newTestRand()
	colors := BatchColors(len(TapeColors), rng)
	seen := map[string]bool{}
	for _, c := range colors {
		if seen[c] {
			t.Fatalf("colour %s repeated within a palette-sized batch", c)
		}
		seen[c] = true
	}

	cycled := BatchColors(len(TapeColors)+3, rng)
	for i := len(TapeColors); i < len(cycled); i++ {
		if cycled[i] != cycled[i-len(TapeColors)] {
			t.Fatalf("expected cycle at %d", i)
		}
	}
	if BatchColors(0, rng) != nil {
		t.Fatalf("expected nil for empty batch")
	}
}
