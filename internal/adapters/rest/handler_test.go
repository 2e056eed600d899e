package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Shahnab/retrotape/internal/adapters/audio"
	"github.com/Shahnab/retrotape/internal/core/domain"
	"github.com/Shahnab/retrotape/internal/core/gesture"
	"github.com/Shahnab/retrotape/internal/core/layout"
	"github.com/Shahnab/retrotape/internal/core/ports"
	"github.com/Shahnab/retrotape/internal/core/services"
)

// --- Mocks ---

type mockProvider struct {
	name  string
	tapes []domain.Tape
	err   error
	calls int
}

func (m *mockProvider) Name() string               { return m.name }
func (m *mockProvider) Ready(context.Context) bool { return true }

func (m *mockProvider) SearchArtist(ctx context.Context, artist string, limit int) ([]domain.Tape, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Tape, len(m.tapes))
	for i, t := range m.tapes {
		t.Artist = artist
		out[i] = t
	}
	return out, nil
}

type mockAnnotator struct {
	analysis domain.Analysis
	err      error
	req      ports.AnnotationRequest
}

func (m *mockAnnotator) Annotate(ctx context.Context, req ports.AnnotationRequest) (domain.Analysis, error) {
	m.req = req
	return m.analysis, m.err
}

type mockAuth struct {
	authed      bool
	callbackErr error
	loggedOut   bool
}

func (m *mockAuth) LoginURL() (string, error) { return "https://accounts.example/authorize?state=s", nil }

func (m *mockAuth) Callback(ctx context.Context, state, code string) error {
	if m.callbackErr != nil {
		return m.callbackErr
	}
	m.authed = true
	return nil
}

func (m *mockAuth) IsAuthenticated(context.Context) bool { return m.authed }

func (m *mockAuth) Logout(context.Context) error {
	m.authed = false
	m.loggedOut = true
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.DeskEvent) {}

type fixture struct {
	h         *Handler
	svc       *services.Orchestrator
	primary   *mockProvider
	secondary *mockProvider
}

func newFixture(t *testing.T, providerTapes int, svcOpts []services.OrchestratorOption, opts ...Option) fixture {
	t.Helper()
	tapes := make([]domain.Tape, providerTapes)
	for i := range tapes {
		tapes[i] = domain.Tape{
			ID:         "spotify-" + string(rune('a'+i)),
			Title:      "Song " + string(rune('A'+i)),
			PreviewURL: "https://p.example/" + string(rune('a'+i)) + ".mp3",
		}
	}
	primary := &mockProvider{name: "spotify", tapes: tapes}
	secondary := &mockProvider{name: "itunes"}

	scatter := layout.NewScatterer(7)
	noTimers := services.WithAfterFunc(func(time.Duration, func()) func() bool { return func() bool { return true } })
	player := services.NewPlayer(domain.NewDesk("test"), audio.NewRemote(nopPublisher{}), scatter, noTimers)
	catalog := services.NewCatalog(scatter.Colors,
		services.Attempt{Provider: primary, Limit: services.PrimaryLimit},
		services.Attempt{Provider: secondary, Limit: services.SecondaryLimit},
	)
	svc := services.NewOrchestrator(player, catalog, scatter, svcOpts...)
	return fixture{h: NewHandler(svc, opts...), svc: svc, primary: primary, secondary: secondary}
}

func (f fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func (f fixture) firstLoose(t *testing.T) domain.Tape {
	t.Helper()
	d := f.svc.Snapshot()
	if len(d.Loose) == 0 {
		t.Fatal("desk has no loose tapes")
	}
	return d.Loose[0]
}

// --- Tests ---

func TestHandler_HealthCheck(t *testing.T) {
	f := newFixture(t, 0, nil)
	rec := f.do(http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body: got %q", rec.Body.String())
	}
}

func TestHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		providerTapes  int
		primaryErr     error
		body           any
		rawBody        string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success: tapes land on the desk",
			providerTapes:  3,
			body:           searchRequest{Artist: "Daft Punk"},
			expectedStatus: http.StatusOK,
			expectedBody:   `"source":"spotify"`,
		},
		{
			name:           "Bad Request: blank artist",
			providerTapes:  3,
			body:           searchRequest{Artist: "   "},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   errCodeInvalidInput,
		},
		{
			name:           "Bad Request: malformed json",
			rawBody:        `{invalid-json`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid request body",
		},
		{
			name:           "Not Found: no provider has previews",
			providerTapes:  0,
			body:           searchRequest{Artist: "Nobody"},
			expectedStatus: http.StatusNotFound,
			expectedBody:   errCodeNoSongsFound,
		},
		{
			name:           "Not Found: provider failures are swallowed",
			primaryErr:     errors.New("boom"),
			body:           searchRequest{Artist: "Nobody"},
			expectedStatus: http.StatusNotFound,
			expectedBody:   errCodeNoSongsFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.providerTapes, nil)
			f.primary.err = tt.primaryErr

			var rec *httptest.ResponseRecorder
			if tt.rawBody != "" {
				req := httptest.NewRequest(http.MethodPost, "/desk/search", strings.NewReader(tt.rawBody))
				req.Header.Set("Content-Type", "application/json")
				rec = httptest.NewRecorder()
				f.h.ServeHTTP(rec, req)
			} else {
				rec = f.do(http.MethodPost, "/desk/search", tt.body)
			}

			if rec.Code != tt.expectedStatus {
				t.Errorf("status: got %d, want %d, body: %s", rec.Code, tt.expectedStatus, strings.TrimSpace(rec.Body.String()))
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("body: got %q, want substring %q", rec.Body.String(), tt.expectedBody)
			}
		})
	}
}

func TestHandler_SearchDuplicateArtistSkipsProviders(t *testing.T) {
	f := newFixture(t, 2, nil)

	if rec := f.do(http.MethodPost, "/desk/search", searchRequest{Artist: "Daft Punk"}); rec.Code != http.StatusOK {
		t.Fatalf("first search: got %d", rec.Code)
	}
	rec := f.do(http.MethodPost, "/desk/search", searchRequest{Artist: "daft punk"})

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusConflict)
	}
	if !strings.Contains(rec.Body.String(), errCodeDuplicateArtist) {
		t.Errorf("body: got %q", rec.Body.String())
	}
	if f.primary.calls != 1 {
		t.Errorf("provider calls: got %d, want 1", f.primary.calls)
	}
}

func TestHandler_SearchRequiresJSON(t *testing.T) {
	f := newFixture(t, 1, nil)
	req := httptest.NewRequest(http.MethodPost, "/desk/search", strings.NewReader(`{"artist":"x"}`))
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnsupportedMediaType)
	}
}

func TestHandler_PlayerLifecycle(t *testing.T) {
	f := newFixture(t, 2, nil)
	f.do(http.MethodPost, "/desk/search", searchRequest{Artist: "Muse"})
	id := f.firstLoose(t).ID

	if rec := f.do(http.MethodPost, "/player/play", nil); rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), errCodePlayerEmpty) {
		t.Errorf("play on empty: got %d %q", rec.Code, rec.Body.String())
	}
	if rec := f.do(http.MethodPost, "/player/load", tapeRequest{TapeID: "missing"}); rec.Code != http.StatusNotFound {
		t.Errorf("load missing: got %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := f.do(http.MethodPost, "/player/load", tapeRequest{TapeID: id}); rec.Code != http.StatusOK {
		t.Fatalf("load: got %d %q", rec.Code, rec.Body.String())
	}

	other := f.firstLoose(t).ID
	if rec := f.do(http.MethodPost, "/player/load", tapeRequest{TapeID: other}); rec.Code != http.StatusConflict {
		t.Errorf("load while occupied: got %d, want %d", rec.Code, http.StatusConflict)
	}

	rec := f.do(http.MethodPost, "/player/play", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("play: got %d", rec.Code)
	}
	var d domain.Desk
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode desk: %v", err)
	}
	if d.State != domain.StatePlaying || d.Loaded == nil || d.Loaded.ID != id {
		t.Errorf("desk after play: state %s loaded %+v", d.State, d.Loaded)
	}

	f.do(http.MethodPost, "/player/pause", nil)
	if got := f.svc.Snapshot().State; got != domain.StatePaused {
		t.Errorf("state after pause: got %s", got)
	}

	f.do(http.MethodPost, "/player/eject", nil)
	d = f.svc.Snapshot()
	if d.Loaded != nil || len(d.Loose) != 2 {
		t.Errorf("after eject: loaded %+v, %d loose", d.Loaded, len(d.Loose))
	}
}

func TestHandler_TrackEndedIgnoresStaleReports(t *testing.T) {
	f := newFixture(t, 2, nil)
	f.do(http.MethodPost, "/desk/search", searchRequest{Artist: "Muse"})
	id := f.firstLoose(t).ID
	f.do(http.MethodPost, "/player/load", tapeRequest{TapeID: id})
	f.do(http.MethodPost, "/player/play", nil)

	if rec := f.do(http.MethodPost, "/player/ended", tapeRequest{TapeID: "someone-else"}); rec.Code != http.StatusAccepted {
		t.Fatalf("ended: got %d", rec.Code)
	}
	if d := f.svc.Snapshot(); d.Loaded == nil || d.Loaded.ID != id {
		t.Fatalf("stale report unloaded the player: %+v", d.Loaded)
	}

	f.do(http.MethodPost, "/player/ended", tapeRequest{TapeID: id})
	d := f.svc.Snapshot()
	if d.Loaded == nil || d.Loaded.ID == id {
		t.Errorf("expected the next tape to be queued, loaded %+v", d.Loaded)
	}
	if d.State != domain.StateStopped {
		t.Errorf("state: got %s, want %s", d.State, domain.StateStopped)
	}
}

func TestHandler_SetVolume(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedStatus int
		expected       float64
	}{
		{name: "absolute", body: map[string]any{"volume": 0.8}, expectedStatus: http.StatusOK, expected: 0.8},
		{name: "clamped", body: map[string]any{"volume": 3}, expectedStatus: http.StatusOK, expected: 1},
		{
			name:           "pointer on track",
			body:           map[string]any{"pointerY": 75, "track": domain.Rect{Top: 0, Height: 100}},
			expectedStatus: http.StatusOK,
			expected:       0.25,
		},
		{name: "missing fields", body: map[string]any{}, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0, nil)
			rec := f.do(http.MethodPut, "/player/volume", tt.body)
			if rec.Code != tt.expectedStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp volumeResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Volume != tt.expected {
				t.Errorf("volume: got %v, want %v", resp.Volume, tt.expected)
			}
		})
	}
}

func TestHandler_PatchTapeAndPlayer(t *testing.T) {
	f := newFixture(t, 1, nil)
	f.do(http.MethodPost, "/desk/search", searchRequest{Artist: "Muse"})
	tp := f.firstLoose(t)

	rec := f.do(http.MethodPatch, "/tapes/"+tp.ID, map[string]any{"x": 12.5, "rotation": 30})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch tape: got %d %q", rec.Code, rec.Body.String())
	}
	got := f.firstLoose(t)
	if got.X != 12.5 || got.Y != tp.Y || got.Rotation != 30 {
		t.Errorf("tape after patch: %+v", got)
	}

	if rec := f.do(http.MethodPatch, "/tapes/missing", map[string]any{"x": 1}); rec.Code != http.StatusNotFound {
		t.Errorf("patch missing: got %d", rec.Code)
	}
	if rec := f.do(http.MethodPatch, "/tapes/"+tp.ID, map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty patch: got %d", rec.Code)
	}

	if rec := f.do(http.MethodPatch, "/player", map[string]any{"y": 40, "rotation": -5}); rec.Code != http.StatusOK {
		t.Fatalf("patch player: got %d", rec.Code)
	}
	p := f.svc.Snapshot().Player
	if p.Y != 40 || p.Rotation != -5 || p.X != domain.DefaultPlayer.X {
		t.Errorf("player after patch: %+v", p)
	}
}

func TestHandler_DropTape(t *testing.T) {
	f := newFixture(t, 2, nil)
	f.do(http.MethodPost, "/desk/search", searchRequest{Artist: "Muse"})
	tp := f.firstLoose(t)
	cx, cy := f.svc.Snapshot().Player.Bounds().Center()

	rec := f.do(http.MethodPost, "/tapes/"+tp.ID+"/drop", dropRequest{
		Point:  gesture.Point{X: cx, Y: cy},
		Offset: gesture.Point{X: 1, Y: 1},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("drop: got %d %q", rec.Code, rec.Body.String())
	}
	var resp dropResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Loaded || resp.Desk.Loaded == nil || resp.Desk.Loaded.ID != tp.ID {
		t.Errorf("expected %s to be loaded, got %+v", tp.ID, resp)
	}

	if rec := f.do(http.MethodPost, "/tapes/"+tp.ID+"/drop", dropRequest{}); rec.Code != http.StatusNotFound {
		t.Errorf("dropping the loaded tape: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandler_AnnotateTape(t *testing.T) {
	t.Run("Not Implemented: no annotator", func(t *testing.T) {
		f := newFixture(t, 1, nil)
		req := httptest.NewRequest(http.MethodPost, "/tapes/x/annotation", strings.NewReader("clip"))
		req.Header.Set("Content-Type", "audio/webm")
		rec := httptest.NewRecorder()
		f.h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotImplemented || !strings.Contains(rec.Body.String(), errCodeFeatureDisabled) {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("Success: analysis attached", func(t *testing.T) {
		ann := &mockAnnotator{analysis: domain.Analysis{Title: "Night Drive", Mood: []string{"calm"}, ColorHex: "#112233"}}
		f := newFixture(t, 1, []services.OrchestratorOption{services.WithAnnotator(ann)})
		f.do(http.MethodPost, "/desk/search", searchRequest{Artist: "Muse"})
		id := f.firstLoose(t).ID

		req := httptest.NewRequest(http.MethodPost, "/tapes/"+id+"/annotation", strings.NewReader("clip-bytes"))
		req.Header.Set("Content-Type", "audio/webm")
		rec := httptest.NewRecorder()
		f.h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d %q", rec.Code, rec.Body.String())
		}
		if ann.req.MimeType != "audio/webm" || string(ann.req.Clip) != "clip-bytes" {
			t.Errorf("annotator request: %+v", ann.req)
		}
		if a := f.firstLoose(t).Analysis; a == nil || a.Title != "Night Drive" {
			t.Errorf("analysis not attached: %+v", a)
		}
	})

	t.Run("Bad Request: empty clip", func(t *testing.T) {
		f := newFixture(t, 1, nil)
		req := httptest.NewRequest(http.MethodPost, "/tapes/x/annotation", strings.NewReader(""))
		req.Header.Set("Content-Type", "audio/webm")
		rec := httptest.NewRecorder()
		f.h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d", rec.Code)
		}
	})
}

func TestHandler_Backgrounds(t *testing.T) {
	f := newFixture(t, 0, nil)

	rec := f.do(http.MethodPost, "/desk/background/static", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "img2.png") {
		t.Errorf("static: got %d %q", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodPost, "/desk/background/generate", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("generate without key: got %d, want %d", rec.Code, http.StatusNotImplemented)
	}
}

func TestHandler_Auth(t *testing.T) {
	t.Run("disabled without an authenticator", func(t *testing.T) {
		f := newFixture(t, 0, nil)
		if rec := f.do(http.MethodGet, "/auth/login", nil); rec.Code != http.StatusNotImplemented {
			t.Errorf("login: got %d", rec.Code)
		}
		if rec := f.do(http.MethodGet, "/auth/status", nil); !strings.Contains(rec.Body.String(), `"authenticated":false`) {
			t.Errorf("status: got %q", rec.Body.String())
		}
	})

	t.Run("login, callback and logout", func(t *testing.T) {
		auth := &mockAuth{}
		f := newFixture(t, 0, nil, WithAuth(auth), WithFrontendURL("http://localhost:5173"))

		rec := f.do(http.MethodGet, "/auth/login", nil)
		if rec.Code != http.StatusFound || !strings.HasPrefix(rec.Header().Get("Location"), "https://accounts.example/") {
			t.Fatalf("login: got %d %q", rec.Code, rec.Header().Get("Location"))
		}

		rec = f.do(http.MethodGet, "/auth/callback?code=c&state=s", nil)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "http://localhost:5173" {
			t.Fatalf("callback: got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		if rec := f.do(http.MethodGet, "/auth/status", nil); !strings.Contains(rec.Body.String(), `"authenticated":true`) {
			t.Errorf("status after callback: %q", rec.Body.String())
		}

		if rec := f.do(http.MethodPost, "/auth/logout", nil); rec.Code != http.StatusNoContent || !auth.loggedOut {
			t.Errorf("logout: got %d", rec.Code)
		}
	})

	t.Run("forged state", func(t *testing.T) {
		auth := &mockAuth{callbackErr: domain.ErrInvalidState}
		f := newFixture(t, 0, nil, WithAuth(auth))

		rec := f.do(http.MethodGet, "/auth/callback?code=c&state=forged", nil)
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), errCodeInvalidState) {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})
}

func TestHandler_CORSPreflight(t *testing.T) {
	f := newFixture(t, 0, nil, WithCORS("http://localhost:5173"))
	req := httptest.NewRequest(http.MethodOptions, "/desk/search", nil)
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin: got %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.DuplicateArtistError{Artist: "x"}, http.StatusConflict, errCodeDuplicateArtist},
		{domain.ErrSearchBusy, http.StatusTooManyRequests, errCodeSearchBusy},
		{domain.ErrNotAuthenticated, http.StatusUnauthorized, errCodeNotAuthenticated},
		{domain.ErrNotConfigured, http.StatusNotImplemented, errCodeFeatureDisabled},
		{errors.New("disk on fire"), http.StatusInternalServerError, errCodeInternal},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		if status != tt.status || code != tt.code {
			t.Errorf("classify(%v): got %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}
