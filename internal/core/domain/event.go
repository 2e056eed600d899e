package domain

// Event types pushed to desk subscribers.
const (
	EventDeskUpdated = "desk.updated"
	EventNotice      = "desk.notice"
	EventAudioLoad   = "audio.load"
	EventAudioPlay   = "audio.play"
	EventAudioPause  = "audio.pause"
	EventAudioRewind = "audio.rewind"
	EventAudioVolume = "audio.volume"
	EventAudioUnload = "audio.unload"
)

// DeskEvent is a message broadcast to connected clients.
type DeskEvent struct {
	Type    string   `json:"type"`
	Desk    *Desk    `json:"desk,omitempty"`
	TapeID  string   `json:"tapeId,omitempty"`
	URL     string   `json:"url,omitempty"`
	Volume  *float64 `json:"volume,omitempty"`
	Message string   `json:"message,omitempty"`
}
