package layout

import (
	"math"
	"testing"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

func TestScatterer_Batch(t *testing.T) {
	s := NewScatterer(11)
	placements := s.Batch(6)

	wantZones := []int{0, 1, 2, 0, 1, 2}
	for i, p := range placements {
		if got := ZoneIndex(i); got != wantZones[i] {
			t.Fatalf("zone index %d: got %d, want %d", i, got, wantZones[i])
		}
		zone := Zones[wantZones[i]]
		if !zone.Rect.Contains(p.X, p.Y) {
			t.Fatalf("placement %d (%v,%v) outside %s %+v", i, p.X, p.Y, zone.Name, zone.Rect)
		}
		if math.Abs(p.Rotation) > MaxBatchTilt {
			t.Fatalf("placement %d rotation %v exceeds %v", i, p.Rotation, MaxBatchTilt)
		}
	}
}

func TestScatterer_BatchManyStaysInBounds(t *testing.T) {
	s := NewScatterer(3)
	for i, p := range s.Batch(300) {
		if !Zones[ZoneIndex(i)].Rect.Contains(p.X, p.Y) {
			t.Fatalf("placement %d out of its zone", i)
		}
		if p.Rotation < -MaxBatchTilt || p.Rotation > MaxBatchTilt {
			t.Fatalf("placement %d inverted: %v", i, p.Rotation)
		}
	}
}

func TestScatterer_Eject(t *testing.T) {
	tests := []struct {
		name   string
		kind   EjectKind
		region Region
	}{
		{name: "manual", kind: EjectManual, region: ManualEject},
		{name: "track end", kind: EjectTrackEnd, region: TrackEndEject},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScatterer(5)
			prev := domain.Placement{X: 1, Y: 2, Rotation: 3}
			for i := 0; i < 100; i++ {
				p := s.Eject(tc.kind, prev)
				if !tc.region.Rect.Contains(p.X, p.Y) {
					t.Fatalf("eject (%v,%v) outside %+v", p.X, p.Y, tc.region.Rect)
				}
				if math.Abs(p.Rotation) > tc.region.MaxTilt {
					t.Fatalf("eject tilt %v exceeds %v", p.Rotation, tc.region.MaxTilt)
				}
				if p == prev {
					t.Fatalf("eject reused previous placement")
				}
				prev = p
			}
		})
	}
}

func TestScatterer_Colors(t *testing.T) {
	s := NewScatterer(9)
	colors := s.Colors(5)
	if len(colors) != 5 {
		t.Fatalf("got %d colours, want 5", len(colors))
	}
	seen := map[string]bool{}
	for _, c := range colors {
		if seen[c] {
			t.Fatalf("duplicate colour %s", c)
		}
		seen[c] = true
	}
}
