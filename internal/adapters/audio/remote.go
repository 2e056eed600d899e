// Package audio provides the playback primitives behind the player: a remote
// backend that drives the browser's audio element and a local speaker.
package audio

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/ports"
)

// ErrNoSource is returned by Play before anything was loaded.
var ErrNoSource = errors.New("audio: no source loaded")

// Remote forwards every command to connected clients as an audio.* event
// and learns about playback ending from them.
type Remote struct {
	pub ports.DeskPublisher

	mu     sync.Mutex
	tapeID string
	ended  func(string)
}

var _ ports.AudioPlayer = (*Remote)(nil)

// NewRemote returns a remote backend publishing through pub.
func NewRemote(pub ports.DeskPublisher) *Remote {
	return &Remote{pub: pub}
}

func (r *Remote) Load(ctx context.Context, tapeID string, url string) error {
	r.mu.Lock()
	r.tapeID = tapeID
	r.mu.Unlock()
	r.pub.Publish(ctx, domain.DeskEvent{Type: domain.EventAudioLoad, TapeID: tapeID, URL: url})
	return nil
}

func (r *Remote) Play(ctx context.Context) error {
	id := r.current()
	if id == "" {
		return ErrNoSource
	}
	r.pub.Publish(ctx, domain.DeskEvent{Type: domain.EventAudioPlay, TapeID: id})
	return nil
}

func (r *Remote) Pause() error {
	r.pub.Publish(context.Background(), domain.DeskEvent{Type: domain.EventAudioPause, TapeID: r.current()})
	return nil
}

func (r *Remote) Rewind() error {
	r.pub.Publish(context.Background(), domain.DeskEvent{Type: domain.EventAudioRewind, TapeID: r.current()})
	return nil
}

func (r *Remote) SetVolume(v float64) {
	v = domain.ClampVolume(v)
	r.pub.Publish(context.Background(), domain.DeskEvent{Type: domain.EventAudioVolume, Volume: &v})
}

func (r *Remote) Unload() {
	r.mu.Lock()
	id := r.tapeID
	r.tapeID = ""
	r.mu.Unlock()
	r.pub.Publish(context.Background(), domain.DeskEvent{Type: domain.EventAudioUnload, TapeID: id})
}

func (r *Remote) OnEnded(fn func(tapeID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = fn
}

// Ended is called when a client reports that tapeID finished. Reports for
// anything but the current source are dropped.
func (r *Remote) Ended(tapeID string) {
	r.mu.Lock()
	current, fn := r.tapeID, r.ended
	r.mu.Unlock()

	if tapeID == "" || tapeID != current {
		log.Printf("DEBUG audio: ignoring ended report for %q (current %q)", tapeID, current)
		return
	}
	if fn != nil {
		fn(tapeID)
	}
}

func (r *Remote) current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tapeID
}
