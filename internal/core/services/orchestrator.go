package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/layout"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

// ErrEmptyArtist is returned for blank search input.
var ErrEmptyArtist = errors.New("service: artist cannot be empty")

// StaticBackgrounds is the bundled backdrop rotation.
var StaticBackgrounds = []string{
	"./image/img1.png",
	"./image/img2.png",
	"./image/img3.png",
	"./image/img4.png",
	"./image/img5.png",
	"./image/img6.png",
}

// AnnotationQueue accepts tapes for background annotation.
type AnnotationQueue interface {
	SubmitTape(t domain.Tape)
}

// Orchestrator coordinates searches, annotation and backdrops around a
// Player.
type Orchestrator struct {
	player      *Player
	catalog     *Catalog
	scatter     *layout.Scatterer
	annotator   ports.Annotator
	backgrounds ports.BackgroundGenerator
	queue       AnnotationQueue

	busy atomic.Bool

	bgMu  sync.Mutex
	bgIdx int
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithAnnotator enables clip annotation.
func WithAnnotator(a ports.Annotator) OrchestratorOption {
	return func(o *Orchestrator) { o.annotator = a }
}

// WithBackgrounds enables generated backdrops.
func WithBackgrounds(g ports.BackgroundGenerator) OrchestratorOption {
	return func(o *Orchestrator) { o.backgrounds = g }
}

// WithAnnotationQueue submits every new tape for background annotation.
func WithAnnotationQueue(q AnnotationQueue) OrchestratorOption {
	return func(o *Orchestrator) { o.queue = q }
}

// NewOrchestrator wires the desk services together.
func NewOrchestrator(player *Player, catalog *Catalog, scatter *layout.Scatterer, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{player: player, catalog: catalog, scatter: scatter}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Player exposes the playback controller.
func (o *Orchestrator) Player() *Player {
	return o.player
}

// Snapshot returns the current desk.
func (o *Orchestrator) Snapshot() domain.Desk {
	return o.player.Snapshot()
}

// Search fetches tapes for artist and scatters them onto the desk. Artists
// already on the desk are rejected before any provider is contacted, and
// only one search runs at a time.
func (o *Orchestrator) Search(ctx context.Context, artist string) (SearchResult, error) {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return SearchResult{}, ErrEmptyArtist
	}
	if err := domain.GuardArtist(o.player.Snapshot(), artist); err != nil {
		return SearchResult{}, err
	}
	if !o.busy.CompareAndSwap(false, true) {
		return SearchResult{}, domain.ErrSearchBusy
	}
	defer o.busy.Store(false)

	res, err := o.catalog.Fetch(ctx, artist)
	for _, n := range res.Notices {
		o.player.Notify(ctx, n)
	}
	if err != nil {
		return res, err
	}

	// The guard is repeated here: another search may have landed the same
	// artist while the providers were being queried.
	if err := domain.GuardArtist(o.player.Snapshot(), artist); err != nil {
		return SearchResult{}, err
	}

	placements := o.scatter.Batch(len(res.Tapes))
	for i := range res.Tapes {
		res.Tapes[i] = res.Tapes[i].Place(placements[i])
	}
	res.Tapes = o.player.AddTapes(ctx, res.Tapes...)

	if o.queue != nil {
		for _, t := range res.Tapes {
			o.queue.SubmitTape(t)
		}
	}
	return res, nil
}

// Searching reports whether a search is in flight.
func (o *Orchestrator) Searching() bool {
	return o.busy.Load()
}

// Annotate analyses a recorded clip of a tape and stores the result on it.
func (o *Orchestrator) Annotate(ctx context.Context, tapeID string, clip []byte, mimeType string) (domain.Analysis, error) {
	if o.annotator == nil {
		return domain.Analysis{}, domain.ErrFeatureDisabled
	}
	t, ok := o.player.Snapshot().Find(tapeID)
	if !ok {
		return domain.Analysis{}, domain.ErrTapeNotFound
	}

	a, err := o.annotator.Annotate(ctx, ports.AnnotationRequest{
		Clip:     clip,
		MimeType: mimeType,
		Artist:   t.Artist,
		Title:    t.Title,
	})
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("service: annotate %s: %w", tapeID, err)
	}
	if err := o.player.AttachAnalysis(ctx, tapeID, a); err != nil {
		return domain.Analysis{}, err
	}
	return a, nil
}

// NextStaticBackground advances the bundled backdrop rotation from the image
// the desk is showing. After a generated backdrop it continues from the last
// static one.
func (o *Orchestrator) NextStaticBackground(ctx context.Context) string {
	o.bgMu.Lock()
	if i := staticIndex(o.player.Snapshot().Background); i >= 0 {
		o.bgIdx = i
	}
	o.bgIdx = (o.bgIdx + 1) % len(StaticBackgrounds)
	bg := StaticBackgrounds[o.bgIdx]
	o.bgMu.Unlock()

	o.player.SetBackground(ctx, bg)
	return bg
}

func staticIndex(bg string) int {
	for i, s := range StaticBackgrounds {
		if s == bg {
			return i
		}
	}
	return -1
}

// GenerateBackground asks the generator for a fresh backdrop.
func (o *Orchestrator) GenerateBackground(ctx context.Context) (string, error) {
	if o.backgrounds == nil {
		return "", domain.ErrFeatureDisabled
	}
	bg, err := o.backgrounds.GenerateBackground(ctx)
	if err != nil {
		return "", fmt.Errorf("service: generate background: %w", err)
	}
	o.bgMu.Lock()
	if i := staticIndex(o.player.Snapshot().Background); i >= 0 {
		o.bgIdx = i
	}
	o.bgMu.Unlock()
	o.player.SetBackground(ctx, bg)
	return bg, nil
}
