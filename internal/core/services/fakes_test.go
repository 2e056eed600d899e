package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

type fakeAudio struct {
	mu      sync.Mutex
	calls   []string
	loaded  string
	volume  float64
	loadErr error
	playErr error
	ended   func(string)
}

func (f *fakeAudio) record(op string) {
	f.calls = append(f.calls, op)
}

func (f *fakeAudio) Load(_ context.Context, tapeID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("load:" + tapeID)
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = tapeID
	return nil
}

func (f *fakeAudio) Play(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("play")
	return f.playErr
}

func (f *fakeAudio) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pause")
	return nil
}

func (f *fakeAudio) Rewind() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("rewind")
	return nil
}

func (f *fakeAudio) SetVolume(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
}

func (f *fakeAudio) Unload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("unload")
	f.loaded = ""
}

func (f *fakeAudio) OnEnded(fn func(string)) {
	f.ended = fn
}

func (f *fakeAudio) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAudio) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// fakeTimers collects scheduled callbacks so tests decide when they fire.
type fakeTimers struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (f *fakeTimers) AfterFunc(d time.Duration, fn func()) func() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{fn: fn}
	f.delays = append(f.delays, d)
	f.pending = append(f.pending, t)
	return func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		was := !t.stopped
		t.stopped = true
		return was
	}
}

// FireAll runs every timer, stopped or not, the way a real timer that lost a
// race with Stop would.
func (f *fakeTimers) FireAll() {
	f.mu.Lock()
	timers := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, t := range timers {
		t.fn()
	}
}

// FireLive runs only timers that were not stopped.
func (f *fakeTimers) FireLive() {
	f.mu.Lock()
	timers := f.pending
	f.pending = nil
	f.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.fn()
		}
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.DeskEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev domain.DeskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingPublisher) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.Type == domain.EventNotice {
			out = append(out, ev.Message)
		}
	}
	return out
}

type MockProvider struct {
	mock.Mock
	name string
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Ready(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockProvider) SearchArtist(ctx context.Context, artist string, limit int) ([]domain.Tape, error) {
	args := m.Called(ctx, artist, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tape), args.Error(1)
}

type MockAnnotator struct {
	mock.Mock
}

func (m *MockAnnotator) Annotate(ctx context.Context, req ports.AnnotationRequest) (domain.Analysis, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Analysis), args.Error(1)
}

type stubBackgrounds struct {
	url string
	err error
}

func (s stubBackgrounds) GenerateBackground(context.Context) (string, error) {
	return s.url, s.err
}

type recordingQueue struct {
	tapes []domain.Tape
}

func (q *recordingQueue) SubmitTape(t domain.Tape) {
	q.tapes = append(q.tapes, t)
}

func tape(id, artist string) domain.Tape {
	return domain.Tape{ID: id, Artist: artist, Title: "Song " + id, PreviewURL: "https://p/" + id, Duration: 30}
}
