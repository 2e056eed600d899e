package domain

// PlayerState is the effective state of the loaded tape.
type PlayerState string

const (
	StateStopped PlayerState = "STOPPED"
	StatePlaying PlayerState = "PLAYING"
	StatePaused  PlayerState = "PAUSED"
)

// Phase names the controller states: Empty and the three Loaded-* states.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoadedStopped
	PhaseLoadedPlaying
	PhaseLoadedPaused
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseLoadedStopped:
		return "loaded-stopped"
	case PhaseLoadedPlaying:
		return "loaded-playing"
	case PhaseLoadedPaused:
		return "loaded-paused"
	default:
		return "unknown"
	}
}
