// Package layout scatters tapes across the desk so they look dropped by hand
// rather than laid out on a grid. No overlap resolution is performed.
package layout

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

// EjectKind distinguishes a manual eject from the auto-eject at end of track.
type EjectKind int

const (
	EjectManual EjectKind = iota
	EjectTrackEnd
)

// Zone is a named region new search results are dealt into.
type Zone struct {
	Name string
	Rect domain.Rect
}

// Region is a rectangle plus the maximum tilt, in degrees either way.
type Region struct {
	Rect    domain.Rect
	MaxTilt float64
}

// MaxBatchTilt keeps newly arrived tapes angled but never upside down.
const MaxBatchTilt = 30.0

var (
	// Zones are dealt round-robin: result i goes to Zones[i%3].
	Zones = [3]Zone{
		{Name: "top-center", Rect: domain.Rect{Left: 600, Top: 80, Width: 450, Height: 250}},
		{Name: "middle-right", Rect: domain.Rect{Left: 750, Top: 300, Width: 400, Height: 280}},
		{Name: "bottom-center", Rect: domain.Rect{Left: 600, Top: 520, Width: 450, Height: 200}},
	}

	// ManualEject is just outside the player, to its lower right.
	ManualEject = Region{Rect: domain.Rect{Left: 750, Top: 450, Width: 50, Height: 50}, MaxTilt: 15}
	// TrackEndEject is a slightly wider spread for tapes ejected by auto-advance.
	TrackEndEject = Region{Rect: domain.Rect{Left: 700, Top: 400, Width: 100, Height: 100}, MaxTilt: 10}
)

// ZoneIndex returns the zone a batch result at position i is placed in.
func ZoneIndex(i int) int {
	return i % len(Zones)
}

// RegionFor returns the eject region for kind.
func RegionFor(kind EjectKind) Region {
	if kind == EjectTrackEnd {
		return TrackEndEject
	}
	return ManualEject
}

// Scatterer draws placements. It is safe for concurrent use.
type Scatterer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewScatterer seeds a scatterer; a zero seed uses the current time.
func NewScatterer(seed int64) *Scatterer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// #nosec G404 -- visual jitter, not security-sensitive
	return &Scatterer{rng: rand.New(rand.NewSource(seed))}
}

// Eject draws a placement for a tape leaving the player. A draw identical to
// prev is rejected so an ejected tape never lands exactly where it was.
func (s *Scatterer) Eject(kind EjectKind, prev domain.Placement) domain.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()

	region := RegionFor(kind)
	for {
		p := domain.Placement{
			X:        s.between(region.Rect.Left, region.Rect.Left+region.Rect.Width),
			Y:        s.between(region.Rect.Top, region.Rect.Top+region.Rect.Height),
			Rotation: s.between(-region.MaxTilt, region.MaxTilt),
		}
		if p != prev {
			return p
		}
	}
}

// Batch draws n placements for freshly fetched tapes, in input order.
func (s *Scatterer) Batch(n int) []domain.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Placement, n)
	for i := range out {
		zone := Zones[ZoneIndex(i)].Rect
		out[i] = domain.Placement{
			X:        s.between(zone.Left, zone.Left+zone.Width),
			Y:        s.between(zone.Top, zone.Top+zone.Height),
			Rotation: s.between(-MaxBatchTilt, MaxBatchTilt),
		}
	}
	return out
}

// Colors picks batch colours from the shared generator.
func (s *Scatterer) Colors(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.BatchColors(n, s.rng)
}

func (s *Scatterer) between(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}
