package domain

import "fmt"

const defaultVolume = 0.5

// Desk is the whole session state. Transitions are methods on the value and
// return a new Desk; the receiver is never mutated.
//
// A tape id is either in Loose or is Loaded, never both. Loose is ordered:
// index 0 is next up.
type Desk struct {
	SessionID  string      `json:"sessionId"`
	Loose      []Tape      `json:"loose"`
	Loaded     *Tape       `json:"loaded"`
	State      PlayerState `json:"state"`
	Volume     float64     `json:"volume"`
	Player     Widget      `json:"player"`
	Background string      `json:"background,omitempty"`
}

// NewDesk returns an empty desk.
func NewDesk(sessionID string) Desk {
	return Desk{
		SessionID: sessionID,
		Loose:     []Tape{},
		State:     StateStopped,
		Volume:    defaultVolume,
		Player:    DefaultPlayer,
	}
}

// Clone deep-copies the desk.
func (d Desk) Clone() Desk {
	out := d
	out.Loose = make([]Tape, len(d.Loose))
	for i, t := range d.Loose {
		out.Loose[i] = t.clone()
	}
	if d.Loaded != nil {
		t := d.Loaded.clone()
		out.Loaded = &t
	}
	return out
}

// Phase maps the desk onto the controller's state machine.
func (d Desk) Phase() Phase {
	if d.Loaded == nil {
		return PhaseEmpty
	}
	switch d.State {
	case StatePlaying:
		return PhaseLoadedPlaying
	case StatePaused:
		return PhaseLoadedPaused
	default:
		return PhaseLoadedStopped
	}
}

// Tapes lists every tape on the desk, loose first.
func (d Desk) Tapes() []Tape {
	out := make([]Tape, 0, len(d.Loose)+1)
	out = append(out, d.Loose...)
	if d.Loaded != nil {
		out = append(out, *d.Loaded)
	}
	return out
}

// Find looks a tape up by id, loose or loaded.
func (d Desk) Find(id string) (Tape, bool) {
	if d.Loaded != nil && d.Loaded.ID == id {
		return *d.Loaded, true
	}
	if i := d.looseIndex(id); i >= 0 {
		return d.Loose[i], true
	}
	return Tape{}, false
}

func (d Desk) looseIndex(id string) int {
	for i, t := range d.Loose {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Load puts t in the player. It is a no-op, reporting false, when a tape is
// already loaded. t is removed from Loose if present.
func (d Desk) Load(t Tape) (Desk, bool) {
	if d.Loaded != nil {
		return d, false
	}
	out := d.Clone()
	if i := out.looseIndex(t.ID); i >= 0 {
		out.Loose = append(out.Loose[:i], out.Loose[i+1:]...)
	}
	loaded := t.clone()
	out.Loaded = &loaded
	out.State = StateStopped
	return out, true
}

// LoadByID loads a loose tape.
func (d Desk) LoadByID(id string) (Desk, error) {
	i := d.looseIndex(id)
	if i < 0 {
		return d, ErrTapeNotFound
	}
	out, ok := d.Load(d.Loose[i])
	if !ok {
		return d, ErrPlayerOccupied
	}
	return out, nil
}

// Play is valid from Loaded-Stopped and Loaded-Paused.
func (d Desk) Play() (Desk, bool) {
	if d.Loaded == nil || d.State == StatePlaying {
		return d, false
	}
	out := d.Clone()
	out.State = StatePlaying
	return out, true
}

// Pause is valid from Loaded-Playing.
func (d Desk) Pause() (Desk, bool) {
	if d.Loaded == nil || d.State != StatePlaying {
		return d, false
	}
	out := d.Clone()
	out.State = StatePaused
	return out, true
}

// Stop is valid from any Loaded-* state.
func (d Desk) Stop() (Desk, bool) {
	if d.Loaded == nil {
		return d, false
	}
	out := d.Clone()
	out.State = StateStopped
	return out, true
}

// Eject returns the loaded tape to the end of Loose at p.
func (d Desk) Eject(p Placement) (Desk, *Tape) {
	if d.Loaded == nil {
		return d, nil
	}
	out := d.Clone()
	ejected := out.Loaded.Place(p)
	out.Loose = append(out.Loose, ejected)
	out.Loaded = nil
	out.State = StateStopped
	return out, &ejected
}

// EndOfTrack ejects the loaded tape to p and, when the pre-eject Loose queue
// was non-empty, loads its head. The returned tape is the newly loaded one.
func (d Desk) EndOfTrack(p Placement) (Desk, *Tape) {
	if d.Loaded == nil {
		return d, nil
	}
	out := d.Clone()
	ejected := out.Loaded.Place(p)
	out.Loaded = nil
	out.State = StateStopped

	var next *Tape
	if len(out.Loose) > 0 {
		head := out.Loose[0]
		out.Loose = out.Loose[1:]
		next = &head
	}
	out.Loose = append(out.Loose, ejected)
	if next != nil {
		loaded := *next
		out.Loaded = &loaded
	}
	return out, next
}

// SetVolume clamps v into [0,1].
func (d Desk) SetVolume(v float64) Desk {
	out := d.Clone()
	out.Volume = ClampVolume(v)
	return out
}

// ClampVolume bounds v to [0,1].
func ClampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AddLoose appends tapes to the end of Loose.
func (d Desk) AddLoose(tapes ...Tape) Desk {
	out := d.Clone()
	for _, t := range tapes {
		out.Loose = append(out.Loose, t.clone())
	}
	return out
}

// UpdateLoose rewrites a single loose tape in place.
func (d Desk) UpdateLoose(id string, fn func(Tape) Tape) (Desk, error) {
	i := d.looseIndex(id)
	if i < 0 {
		return d, ErrTapeNotFound
	}
	out := d.Clone()
	updated := fn(out.Loose[i])
	updated.ID = id
	out.Loose[i] = updated
	return out, nil
}

// MoveTape sets a loose tape's position.
func (d Desk) MoveTape(id string, x, y float64) (Desk, error) {
	return d.UpdateLoose(id, func(t Tape) Tape {
		t.X, t.Y = x, y
		return t
	})
}

// RotateTape sets a loose tape's tilt.
func (d Desk) RotateTape(id string, deg float64) (Desk, error) {
	return d.UpdateLoose(id, func(t Tape) Tape {
		t.Rotation = deg
		return t
	})
}

// AttachAnalysis stores an annotation on a loose or loaded tape.
func (d Desk) AttachAnalysis(id string, a Analysis) (Desk, error) {
	if d.Loaded != nil && d.Loaded.ID == id {
		out := d.Clone()
		out.Loaded.Analysis = &a
		return out, nil
	}
	return d.UpdateLoose(id, func(t Tape) Tape {
		t.Analysis = &a
		return t
	})
}

// MovePlayer sets the player widget's position.
func (d Desk) MovePlayer(x, y float64) Desk {
	out := d.Clone()
	out.Player.X, out.Player.Y = x, y
	return out
}

// RotatePlayer sets the player widget's tilt.
func (d Desk) RotatePlayer(deg float64) Desk {
	out := d.Clone()
	out.Player.Rotation = deg
	return out
}

// WithBackground records the desk backdrop.
func (d Desk) WithBackground(bg string) Desk {
	out := d.Clone()
	out.Background = bg
	return out
}

// Validate checks that no tape id is duplicated across Loose and Loaded.
func (d Desk) Validate() error {
	seen := make(map[string]struct{}, len(d.Loose)+1)
	for _, t := range d.Loose {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("domain: tape %q appears twice in loose collection", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	if d.Loaded != nil {
		if _, dup := seen[d.Loaded.ID]; dup {
			return fmt.Errorf("domain: tape %q is both loaded and loose", d.Loaded.ID)
		}
	}
	return nil
}
