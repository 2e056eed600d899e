package ports

import (
	"context"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

// AudioPlayer is the single shared playback primitive. Loading a new source
// implicitly stops the previous one.
type AudioPlayer interface {
	Load(ctx context.Context, tapeID string, url string) error
	Play(ctx context.Context) error
	Pause() error
	// Rewind seeks back to the start of the current source.
	Rewind() error
	SetVolume(v float64)
	Unload()
	// OnEnded registers the end-of-playback callback; it receives the id of
	// the tape that finished.
	OnEnded(fn func(tapeID string))
}

// DeskPublisher fans desk events out to connected clients.
type DeskPublisher interface {
	Publish(ctx context.Context, ev domain.DeskEvent)
}
