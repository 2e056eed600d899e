package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/gesture"
)

// Inbound message types.
const (
	MsgPointerDown   = "pointer.down"
	MsgPointerMove   = "pointer.move"
	MsgPointerUp     = "pointer.up"
	MsgPointerCancel = "pointer.cancel"
	MsgVolume        = "volume.set"
	MsgAudioEnded    = "audio.ended"
)

// Gesture targets.
const (
	TargetTape   = "tape"
	TargetPlayer = "player"
)

// Controller is the slice of the player the websocket drives.
type Controller interface {
	Snapshot() domain.Desk
	RotateTape(ctx context.Context, tapeID string, deg float64) error
	DropTape(ctx context.Context, tapeID string, end, offset gesture.Point) (bool, error)
	RotatePlayer(ctx context.Context, deg float64) error
	MovePlayer(ctx context.Context, x, y float64) error
	SetVolume(ctx context.Context, v float64) float64
}

// EndedReporter receives end-of-playback reports from the browser.
type EndedReporter interface {
	Ended(tapeID string)
}

// Message is a client-to-server frame.
type Message struct {
	Type   string       `json:"type"`
	Target string       `json:"target,omitempty"`
	ID     string       `json:"id,omitempty"`
	Mode   gesture.Mode `json:"mode,omitempty"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Track  *domain.Rect `json:"track,omitempty"`
	TapeID string       `json:"tapeId,omitempty"`
}

// Server upgrades connections and dispatches their messages.
type Server struct {
	hub      *Hub
	desk     Controller
	ended    EndedReporter
	upgrader websocket.Upgrader
}

// NewServer builds a websocket endpoint. ended may be nil when playback runs
// on the server. allowedOrigin "*" accepts any origin.
func NewServer(hub *Hub, desk Controller, ended EndedReporter, allowedOrigin string) *Server {
	s := &Server{hub: hub, desk: desk, ended: ended}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}
	return s
}

// HandleWS upgrades the request and starts the client's pumps. The first
// frame is always the current desk.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN realtime: ws upgrade: %v", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, broadcastBuffer),
	}

	desk := s.desk.Snapshot()
	if b, err := json.Marshal(domain.DeskEvent{Type: domain.EventDeskUpdated, Desk: &desk}); err == nil {
		client.send <- b
	}
	if !s.hub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(s.handleMessage)
}

func (s *Server) handleMessage(c *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("WARN realtime: bad message: %v", err)
		return
	}
	ctx := context.Background()
	p := gesture.Point{X: msg.X, Y: msg.Y}

	switch msg.Type {
	case MsgPointerDown:
		target, ok := s.target(ctx, msg)
		if !ok {
			return
		}
		c.gesture = gesture.NewHandle(target)
		c.gesture.Down(msg.Mode, p)

	case MsgPointerMove:
		if c.gesture != nil {
			c.gesture.Move(p)
		}

	case MsgPointerUp:
		if c.gesture != nil {
			c.gesture.Up(p)
			c.gesture = nil
		}

	case MsgPointerCancel:
		if c.gesture != nil {
			c.gesture.Cancel()
			c.gesture = nil
		}

	case MsgVolume:
		if msg.Track == nil {
			return
		}
		s.desk.SetVolume(ctx, gesture.VolumeAt(msg.Y, *msg.Track))

	case MsgAudioEnded:
		if s.ended != nil {
			s.ended.Ended(msg.TapeID)
		}

	default:
		log.Printf("DEBUG realtime: ignoring message type %q", msg.Type)
	}
}

// target builds the gesture target named by msg. Geometry is read fresh from
// the desk on every call so concurrent changes are respected.
func (s *Server) target(ctx context.Context, msg Message) (gesture.Target, bool) {
	switch msg.Target {
	case TargetPlayer:
		return gesture.Funcs{
			BoundsFunc:   func() domain.Rect { return s.desk.Snapshot().Player.Bounds() },
			RotationFunc: func() float64 { return s.desk.Snapshot().Player.Rotation },
			OnRotate: func(deg float64) {
				logErr("rotate player", s.desk.RotatePlayer(ctx, deg))
			},
			OnDrop: func(_ gesture.Point, offset gesture.Point) {
				w := s.desk.Snapshot().Player
				logErr("move player", s.desk.MovePlayer(ctx, w.X+offset.X, w.Y+offset.Y))
			},
		}, true

	case TargetTape:
		desk := s.desk.Snapshot()
		if _, ok := desk.Find(msg.ID); !ok || (desk.Loaded != nil && desk.Loaded.ID == msg.ID) {
			return nil, false
		}
		id := msg.ID
		tapeAt := func() domain.Tape {
			t, _ := s.desk.Snapshot().Find(id)
			return t
		}
		return gesture.Funcs{
			BoundsFunc:   func() domain.Rect { return tapeAt().Widget().Bounds() },
			RotationFunc: func() float64 { return tapeAt().Rotation },
			OnRotate: func(deg float64) {
				logErr("rotate tape", s.desk.RotateTape(ctx, id, deg))
			},
			OnDrop: func(end gesture.Point, offset gesture.Point) {
				_, err := s.desk.DropTape(ctx, id, end, offset)
				logErr("drop tape", err)
			},
		}, true
	}
	return nil, false
}

func logErr(op string, err error) {
	if err == nil || errors.Is(err, domain.ErrTapeNotFound) {
		return
	}
	log.Printf("WARN realtime: %s: %v", op, err)
}
