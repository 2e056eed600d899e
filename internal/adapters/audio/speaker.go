//go:build !headless

package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Shahnab/retrotape/internal/core/ports"
)

const endPollInterval = 100 * time.Millisecond

// Speaker plays previews on the host's sound card. Only MP3 previews are
// supported.
type Speaker struct {
	mu      sync.Mutex
	otoCtx  *oto.Context
	rate    int
	player  *oto.Player
	tapeID  string
	volume  float64
	playing bool
	watch   uint64
	ended   func(string)
	fetch   func(ctx context.Context, url string) ([]byte, error)
}

var _ ports.AudioPlayer = (*Speaker)(nil)

// NewSpeaker returns a speaker backend. The device is opened on first load.
func NewSpeaker() (*Speaker, error) {
	return &Speaker{volume: 1, fetch: fetchPreview}, nil
}

func (s *Speaker) ensureContext(rate int) error {
	if s.otoCtx != nil {
		if rate != s.rate {
			log.Printf("WARN audio: clip sample rate %d differs from device rate %d", rate, s.rate)
		}
		return nil
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("audio: open device: %w", err)
	}
	<-ready
	s.otoCtx = ctx
	s.rate = rate
	return nil
}

func (s *Speaker) Load(ctx context.Context, tapeID string, url string) error {
	data, err := s.fetch(ctx, url)
	if err != nil {
		return err
	}
	pcm, rate, err := decodeMP3(bytes.NewReader(data))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureContext(rate); err != nil {
		return err
	}
	s.closePlayerLocked()
	s.player = s.otoCtx.NewPlayer(bytes.NewReader(pcm))
	s.player.SetVolume(s.volume)
	s.tapeID = tapeID
	return nil
}

func (s *Speaker) Play(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return ErrNoSource
	}
	s.player.Play()
	s.playing = true
	s.watch++
	go s.watchEnd(s.watch)
	return nil
}

// watchEnd reports the end of playback once the player drains.
func (s *Speaker) watchEnd(token uint64) {
	ticker := time.NewTicker(endPollInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		if token != s.watch || !s.playing || s.player == nil {
			s.mu.Unlock()
			return
		}
		if s.player.IsPlaying() {
			s.mu.Unlock()
			continue
		}
		s.playing = false
		id, fn := s.tapeID, s.ended
		s.mu.Unlock()
		if fn != nil {
			fn(id)
		}
		return
	}
}

func (s *Speaker) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	if s.player != nil {
		s.player.Pause()
	}
	return nil
}

func (s *Speaker) Rewind() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	if _, err := s.player.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("audio: rewind: %w", err)
	}
	return nil
}

func (s *Speaker) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
	if s.player != nil {
		s.player.SetVolume(v)
	}
}

func (s *Speaker) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closePlayerLocked()
	s.tapeID = ""
}

func (s *Speaker) closePlayerLocked() {
	s.playing = false
	s.watch++
	if s.player == nil {
		return
	}
	if err := s.player.Close(); err != nil {
		log.Printf("WARN audio: close player: %v", err)
	}
	s.player = nil
}

func (s *Speaker) OnEnded(fn func(tapeID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = fn
}
