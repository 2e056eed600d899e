package services

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/gesture"
	"github.com/Shahnab/retrotape/internal/core/layout"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

// DefaultAutoplayDelay is the pause between a track ending and the next
// queued tape starting.
const DefaultAutoplayDelay = 800 * time.Millisecond

// AfterFunc schedules fn after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, fn func()) (stop func() bool)

func realAfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

type pendingPlay struct {
	tapeID string
	seq    uint64
	stop   func() bool
}

// Player owns the desk and drives the single audio primitive. Every
// transition goes through the mutex, so callers see a consistent desk.
type Player struct {
	mu        sync.Mutex
	desk      domain.Desk
	audio     ports.AudioPlayer
	scatter   *layout.Scatterer
	publisher ports.DeskPublisher
	delay     time.Duration
	afterFunc AfterFunc
	pending   *pendingPlay
	seq       uint64
}

// PlayerOption customizes a Player.
type PlayerOption func(*Player)

// WithAutoplayDelay overrides DefaultAutoplayDelay.
func WithAutoplayDelay(d time.Duration) PlayerOption {
	return func(p *Player) { p.delay = d }
}

// WithAfterFunc swaps the timer used for autoplay.
func WithAfterFunc(fn AfterFunc) PlayerOption {
	return func(p *Player) { p.afterFunc = fn }
}

// WithPublisher sends a desk snapshot after every change.
func WithPublisher(pub ports.DeskPublisher) PlayerOption {
	return func(p *Player) { p.publisher = pub }
}

// NewPlayer wires a controller around desk.
func NewPlayer(desk domain.Desk, audio ports.AudioPlayer, scatter *layout.Scatterer, opts ...PlayerOption) *Player {
	p := &Player{
		desk:      desk.Clone(),
		audio:     audio,
		scatter:   scatter,
		delay:     DefaultAutoplayDelay,
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(p)
	}
	audio.SetVolume(p.desk.Volume)
	audio.OnEnded(func(tapeID string) {
		p.TrackEnded(context.Background(), tapeID)
	})
	return p
}

// Snapshot returns a copy of the current desk.
func (p *Player) Snapshot() domain.Desk {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.desk.Clone()
}

// Load moves a loose tape into the player. The player must be empty.
func (p *Player) Load(ctx context.Context, tapeID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadLocked(ctx, tapeID)
}

func (p *Player) loadLocked(ctx context.Context, tapeID string) error {
	next, err := p.desk.LoadByID(tapeID)
	if err != nil {
		return err
	}
	p.cancelPendingLocked()
	p.prepareLocked(ctx, *next.Loaded)
	p.commitLocked(ctx, next)
	return nil
}

// prepareLocked points the audio primitive at t. Failures leave the tape
// loaded; a later Play will simply not produce sound.
func (p *Player) prepareLocked(ctx context.Context, t domain.Tape) {
	if err := p.audio.Load(ctx, t.ID, t.PreviewURL); err != nil {
		log.Printf("WARN player: failed to load audio for tape %s: %v", t.ID, err)
	}
}

// Play starts or resumes the loaded tape. It reports domain.ErrPlayerEmpty
// when nothing is loaded; playing an already playing tape is a no-op.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.desk.Loaded == nil {
		return domain.ErrPlayerEmpty
	}
	p.cancelPendingLocked()
	p.playLocked(ctx)
	return nil
}

func (p *Player) playLocked(ctx context.Context) {
	next, ok := p.desk.Play()
	if !ok {
		return
	}
	p.audio.SetVolume(p.desk.Volume)
	if err := p.audio.Play(ctx); err != nil {
		log.Printf("WARN player: playback failed for tape %s: %v", p.desk.Loaded.ID, err)
		return
	}
	p.commitLocked(ctx, next)
}

// Pause is valid only while playing.
func (p *Player) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.desk.Loaded == nil {
		return domain.ErrPlayerEmpty
	}
	next, ok := p.desk.Pause()
	if !ok {
		return nil
	}
	if err := p.audio.Pause(); err != nil {
		log.Printf("WARN player: pause failed: %v", err)
	}
	p.commitLocked(ctx, next)
	return nil
}

// Stop pauses and rewinds. A scheduled autoplay is dropped too.
func (p *Player) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, ok := p.desk.Stop()
	if !ok {
		return domain.ErrPlayerEmpty
	}
	p.cancelPendingLocked()
	p.haltLocked()
	p.commitLocked(ctx, next)
	return nil
}

func (p *Player) haltLocked() {
	if err := p.audio.Pause(); err != nil {
		log.Printf("WARN player: pause failed: %v", err)
	}
	if err := p.audio.Rewind(); err != nil {
		log.Printf("WARN player: rewind failed: %v", err)
	}
}

// Eject sends the loaded tape back to the desk near the player.
func (p *Player) Eject(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.desk.Loaded == nil {
		return domain.ErrPlayerEmpty
	}
	p.cancelPendingLocked()
	p.haltLocked()
	p.audio.Unload()

	at := p.scatter.Eject(layout.EjectManual, p.desk.Loaded.Placement())
	next, _ := p.desk.Eject(at)
	p.commitLocked(ctx, next)
	return nil
}

// TrackEnded handles the end of playback for tapeID. Notifications for a tape
// that is no longer loaded are ignored. When tapes are waiting, the head of
// the queue is loaded and started after the autoplay delay.
func (p *Player) TrackEnded(ctx context.Context, tapeID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.desk.Loaded == nil || p.desk.Loaded.ID != tapeID {
		log.Printf("DEBUG player: ignoring end of %s, not loaded", tapeID)
		return
	}
	p.cancelPendingLocked()
	p.audio.Unload()

	at := p.scatter.Eject(layout.EjectTrackEnd, p.desk.Loaded.Placement())
	next, head := p.desk.EndOfTrack(at)
	if head != nil {
		p.prepareLocked(ctx, *head)
		p.scheduleLocked(head.ID)
	}
	p.commitLocked(ctx, next)
}

func (p *Player) scheduleLocked(tapeID string) {
	p.seq++
	seq := p.seq
	stop := p.afterFunc(p.delay, func() { p.fireAutoplay(seq) })
	p.pending = &pendingPlay{tapeID: tapeID, seq: seq, stop: stop}
}

func (p *Player) fireAutoplay(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pend := p.pending
	if pend == nil || pend.seq != seq {
		return
	}
	p.pending = nil
	if p.desk.Loaded == nil || p.desk.Loaded.ID != pend.tapeID {
		return
	}
	p.playLocked(context.Background())
}

func (p *Player) cancelPendingLocked() {
	if p.pending == nil {
		return
	}
	p.pending.stop()
	p.pending = nil
}

// AutoplayPending reports the tape id waiting to autoplay, if any.
func (p *Player) AutoplayPending() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return "", false
	}
	return p.pending.tapeID, true
}

// SetVolume clamps v into [0,1] and applies it immediately.
func (p *Player) SetVolume(ctx context.Context, v float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.desk.SetVolume(v)
	p.audio.SetVolume(next.Volume)
	p.commitLocked(ctx, next)
	return next.Volume
}

// AddTapes appends tapes to the loose collection. Ids that already exist on
// the desk get a numeric suffix; the stored tapes are returned.
func (p *Player) AddTapes(ctx context.Context, tapes ...domain.Tape) []domain.Tape {
	p.mu.Lock()
	defer p.mu.Unlock()

	taken := make(map[string]struct{}, len(p.desk.Loose)+len(tapes)+1)
	for _, t := range p.desk.Tapes() {
		taken[t.ID] = struct{}{}
	}
	added := make([]domain.Tape, 0, len(tapes))
	for _, t := range tapes {
		t.ID = uniqueID(t.ID, taken)
		taken[t.ID] = struct{}{}
		added = append(added, t)
	}
	p.commitLocked(ctx, p.desk.AddLoose(added...))
	return added
}

func uniqueID(id string, taken map[string]struct{}) string {
	if _, ok := taken[id]; !ok {
		return id
	}
	for n := 2; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// MoveTape repositions a loose tape.
func (p *Player) MoveTape(ctx context.Context, tapeID string, x, y float64) error {
	return p.update(ctx, func(d domain.Desk) (domain.Desk, error) { return d.MoveTape(tapeID, x, y) })
}

// RotateTape sets a loose tape's tilt.
func (p *Player) RotateTape(ctx context.Context, tapeID string, deg float64) error {
	return p.update(ctx, func(d domain.Desk) (domain.Desk, error) { return d.RotateTape(tapeID, deg) })
}

// MovePlayer repositions the player widget.
func (p *Player) MovePlayer(ctx context.Context, x, y float64) error {
	return p.update(ctx, func(d domain.Desk) (domain.Desk, error) { return d.MovePlayer(x, y), nil })
}

// RotatePlayer sets the player widget's tilt.
func (p *Player) RotatePlayer(ctx context.Context, deg float64) error {
	return p.update(ctx, func(d domain.Desk) (domain.Desk, error) { return d.RotatePlayer(deg), nil })
}

// SetBackground records the desk backdrop.
func (p *Player) SetBackground(ctx context.Context, bg string) {
	_ = p.update(ctx, func(d domain.Desk) (domain.Desk, error) { return d.WithBackground(bg), nil })
}

// AttachAnalysis stores an annotation on a tape wherever it currently is.
func (p *Player) AttachAnalysis(ctx context.Context, tapeID string, a domain.Analysis) error {
	return p.update(ctx, func(d domain.Desk) (domain.Desk, error) { return d.AttachAnalysis(tapeID, a) })
}

// DropTape finishes a drag. Released over an empty player the tape is
// loaded; released over an occupied player it stays put; anywhere else it
// moves by offset. It reports whether the tape was loaded.
func (p *Player) DropTape(ctx context.Context, tapeID string, end, offset gesture.Point) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.desk.Find(tapeID)
	if !ok || (p.desk.Loaded != nil && p.desk.Loaded.ID == tapeID) {
		return false, domain.ErrTapeNotFound
	}
	if p.desk.Player.Bounds().Contains(end.X, end.Y) {
		if p.desk.Loaded != nil {
			return false, nil
		}
		if err := p.loadLocked(ctx, tapeID); err != nil {
			return false, err
		}
		return true, nil
	}
	next, err := p.desk.MoveTape(tapeID, t.X+offset.X, t.Y+offset.Y)
	if err != nil {
		return false, err
	}
	p.commitLocked(ctx, next)
	return false, nil
}

func (p *Player) update(ctx context.Context, fn func(domain.Desk) (domain.Desk, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next, err := fn(p.desk)
	if err != nil {
		return err
	}
	p.commitLocked(ctx, next)
	return nil
}

func (p *Player) commitLocked(ctx context.Context, next domain.Desk) {
	if err := next.Validate(); err != nil {
		log.Printf("ERROR player: refusing invalid desk: %v", err)
		return
	}
	p.desk = next
	if p.publisher == nil {
		return
	}
	snap := next.Clone()
	p.publisher.Publish(ctx, domain.DeskEvent{Type: domain.EventDeskUpdated, Desk: &snap})
}

// Notify publishes a user-facing notice.
func (p *Player) Notify(ctx context.Context, msg string) {
	if p.publisher == nil {
		return
	}
	p.publisher.Publish(ctx, domain.DeskEvent{Type: domain.EventNotice, Message: msg})
}
