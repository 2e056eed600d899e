//go:build headless

package audio

import (
	"context"
	"errors"
)

// ErrNoSpeaker is returned when the binary was built without sound support.
var ErrNoSpeaker = errors.New("audio: speaker backend not available in headless build")

// Speaker is a stub in headless builds.
type Speaker struct{}

func NewSpeaker() (*Speaker, error) {
	return nil, ErrNoSpeaker
}

func (s *Speaker) Load(context.Context, string, string) error { return ErrNoSpeaker }
func (s *Speaker) Play(context.Context) error                 { return ErrNoSpeaker }
func (s *Speaker) Pause() error                               { return nil }
func (s *Speaker) Rewind() error                              { return nil }
func (s *Speaker) SetVolume(float64)                          {}
func (s *Speaker) Unload()                                    {}
func (s *Speaker) OnEnded(func(string))                       {}
