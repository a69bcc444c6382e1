package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spaghettifunk/gardenia/engine"
	"github.com/spaghettifunk/gardenia/engine/config"
	"github.com/spaghettifunk/gardenia/engine/photoreal"
	"github.com/spaghettifunk/gardenia/engine/renderer"
	"github.com/spaghettifunk/gardenia/engine/renderer/stub"
	"github.com/spaghettifunk/gardenia/engine/storage"
	"github.com/spaghettifunk/gardenia/engine/systems"
)

type fakeEnhancer struct {
	mu        sync.Mutex
	secondErr error
}

func (f *fakeEnhancer) FirstPass(context.Context, photoreal.FirstPassRequest) (photoreal.ImageResponse, error) {
	return photoreal.ImageResponse{ImageURL: "https://img.test/first"}, nil
}

func (f *fakeEnhancer) SecondPass(context.Context, photoreal.SecondPassRequest) (photoreal.ImageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.secondErr != nil {
		return photoreal.ImageResponse{}, f.secondErr
	}
	return photoreal.ImageResponse{ImageURL: "https://img.test/final"}, nil
}

func (f *fakeEnhancer) Seasonal(context.Context, photoreal.SeasonalRequest) (photoreal.SeasonalResponse, error) {
	return photoreal.SeasonalResponse{}, errors.New("upstream exploded")
}

func newTestServer(t *testing.T, enhancer photoreal.Enhancer) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Assets.Dir = ""
	cfg.Scene.Wind = 0
	eng, err := engine.New(cfg, engine.ApplicationConfig{
		Name:       "test",
		Backend:    func() renderer.RendererBackend { return stub.New() },
		Scheduler:  func() systems.FrameScheduler { return systems.NewManualScheduler() },
		Enhancer:   enhancer,
		Dispatcher: photoreal.InlineDispatcher{},
		Store:      storage.NewMemoryStore("http://api.test/api/artifacts"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { eng.Shutdown() })
	if err := eng.Initialize(); err != nil {
		t.Fatal(err)
	}
	return New(eng)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad json %q: %v", rec.Body.String(), err)
	}
	return out
}

const sceneBody = `{
	"garden": {"shape": "L-shaped", "units": "meters", "dimensions": {"width": 6, "length": 4}},
	"plants": [
		{"id": "p1", "plantId": "birch", "position": {"x": 1, "y": 1}},
		{"id": "p2", "plantId": "salvia", "position": {"x": 2, "y": 1}}
	],
	"catalog": [
		{"id": "birch", "commonName": "Silver Birch", "category": "tree", "matureHeight": 8, "matureSpread": 4},
		{"id": "salvia", "commonName": "Salvia", "category": "perennial", "flowerColor": "#6a4c9c", "matureHeight": 0.5, "matureSpread": 0.4}
	],
	"width": 320,
	"height": 240
}`

func TestPhotorealFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, &fakeEnhancer{})

	rec := do(t, s, http.MethodPost, "/api/scene", sceneBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("build scene: %d %s", rec.Code, rec.Body)
	}
	if stats := decode[systems.SceneStats](t, rec); stats.Billboards != 2 {
		t.Errorf("billboards = %d", stats.Billboards)
	}

	rec = do(t, s, http.MethodPost, "/api/export", `{"width": 200, "height": 100}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("export: %d %s", rec.Code, rec.Body)
	}
	exported := decode[engine.ExportResult](t, rec)
	if exported.Session.Step != photoreal.StepIdle {
		t.Errorf("new session step = %s", exported.Session.Step)
	}

	path := strings.TrimPrefix(exported.Artifact.URL, "http://api.test")
	rec = do(t, s, http.MethodGet, path, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != storage.CONTENT_TYPE_PNG {
		t.Fatalf("artifact: %d %v", rec.Code, rec.Header())
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Error("artifact is not a png")
	}

	for _, step := range []struct {
		path string
		code int
		want photoreal.Step
	}{
		{"/api/photoreal/start", http.StatusAccepted, photoreal.StepAwaitingReview},
		{"/api/photoreal/regenerate", http.StatusAccepted, photoreal.StepAwaitingReview},
		{"/api/photoreal/approve", http.StatusAccepted, photoreal.StepComplete},
	} {
		rec = do(t, s, http.MethodPost, step.path, "")
		if rec.Code != step.code {
			t.Fatalf("%s: %d %s", step.path, rec.Code, rec.Body)
		}
		rec = do(t, s, http.MethodGet, "/api/photoreal", "")
		if got := decode[photoreal.Snapshot](t, rec); got.Step != step.want {
			t.Fatalf("after %s step = %s, want %s", step.path, got.Step, step.want)
		}
	}

	rec = do(t, s, http.MethodPost, "/api/photoreal/seasonal", `{"startDay": 100, "endDay": 200}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("seasonal failure: %d %s", rec.Code, rec.Body)
	}
	msg := decode[ErrorMessage](t, rec)
	if !strings.Contains(msg.Reason, "seasonal generation failed") {
		t.Errorf("reason = %q", msg.Reason)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"export without scene", http.MethodPost, "/api/export", "", http.StatusConflict},
		{"no session", http.MethodGet, "/api/photoreal", "", http.StatusNotFound},
		{"approve without session", http.MethodPost, "/api/photoreal/approve", "", http.StatusConflict},
		{"seasonal before complete", http.MethodPost, "/api/photoreal/seasonal", `{"startDay": 1, "endDay": 30}`, http.StatusConflict},
		{"seasonal day out of range", http.MethodPost, "/api/photoreal/seasonal", `{"startDay": 0, "endDay": 400}`, http.StatusBadRequest},
		{"broken json", http.MethodPost, "/api/scene", `{"garden": `, http.StatusBadRequest},
		{"unknown shape", http.MethodPost, "/api/scene", `{"garden": {"shape": "hexagon"}}`, http.StatusBadRequest},
		{"degenerate polygon", http.MethodPost, "/api/scene", `{"garden": {"shape": "triangle", "dimensions": {"vertices": [{"x": 1, "y": 1}, {"x": 5, "y": 1}]}}}`, http.StatusBadRequest},
		{"unknown fixture", http.MethodPost, "/api/scene/fixtures/nope", "", http.StatusNotFound},
		{"missing artifact", http.MethodGet, "/api/artifacts/exports/missing.png", "", http.StatusNotFound},
	}
	s := newTestServer(t, &fakeEnhancer{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
			if msg := decode[ErrorMessage](t, rec); msg.Reason == "" {
				t.Errorf("error body without reason: %s", rec.Body)
			}
		})
	}
}

func TestWrongContentType(t *testing.T) {
	s := newTestServer(t, &fakeEnhancer{})
	req := httptest.NewRequest(http.MethodPost, "/api/scene", strings.NewReader(sceneBody))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSecondPassFallbackIsReported(t *testing.T) {
	s := newTestServer(t, &fakeEnhancer{secondErr: errors.New("gpu out of memory")})
	do(t, s, http.MethodPost, "/api/scene", sceneBody)
	do(t, s, http.MethodPost, "/api/export", "")
	do(t, s, http.MethodPost, "/api/photoreal/start", "")
	do(t, s, http.MethodPost, "/api/photoreal/approve", "")

	rec := do(t, s, http.MethodGet, "/api/photoreal", "")
	snap := decode[photoreal.Snapshot](t, rec)
	if snap.Step != photoreal.StepComplete || !snap.UsedFallback || snap.FinalImage != snap.FirstPassImage {
		t.Fatalf("unexpected session %+v", snap)
	}
	if !strings.Contains(snap.Warning, "gpu out of memory") {
		t.Errorf("warning = %q", snap.Warning)
	}
}

func TestResetAndMetrics(t *testing.T) {
	s := newTestServer(t, &fakeEnhancer{})
	do(t, s, http.MethodPost, "/api/scene", sceneBody)

	rec := do(t, s, http.MethodDelete, "/api/scene", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: %d", rec.Code)
	}
	if stats := decode[systems.SceneStats](t, rec); stats.Billboards != 0 {
		t.Errorf("billboards after reset = %d", stats.Billboards)
	}

	rec = do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	for _, name := range []string{"gardenia_scene_builds_total", "gardenia_scene_resets_total"} {
		if !strings.Contains(rec.Body.String(), name) {
			t.Errorf("metric %s missing", name)
		}
	}
}

func TestFixturesListIsEmptyWithoutAssets(t *testing.T) {
	s := newTestServer(t, &fakeEnhancer{})
	rec := do(t, s, http.MethodGet, "/api/scene/fixtures", "")
	if got := decode[[]fixtureInfo](t, rec); rec.Code != http.StatusOK || len(got) != 0 {
		t.Fatalf("fixtures = %d %v", rec.Code, got)
	}
}
