package photoreal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spaghettifunk/gardenia/engine/garden"
)

func newTestEnhancer(t *testing.T, url string, attempts int) *HTTPEnhancer {
	t.Helper()
	c, err := NewHTTPEnhancer(HTTPEnhancerConfig{
		BaseURL:        url + "/",
		APIKey:         "secret",
		Timeout:        5 * time.Second,
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("failed to create enhancer client: %v", err)
	}
	return c
}

func TestHTTPEnhancerFirstPass(t *testing.T) {
	var got FirstPassRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PATH_FIRST_PASS || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"imageUrl":"https://img.test/out.png"}`))
	}))
	defer srv.Close()

	c := newTestEnhancer(t, srv.URL, 3)
	resp, err := c.FirstPass(context.Background(), FirstPassRequest{
		ReferenceImage: "data:image/png;base64,AAAA",
		Prompt:         "a garden",
		Seed:           42,
		Season:         garden.SeasonSpring,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ImageURL != "https://img.test/out.png" {
		t.Errorf("image url = %q", resp.ImageURL)
	}
	if got.Seed != 42 || got.Season != garden.SeasonSpring || got.Prompt != "a garden" {
		t.Errorf("server saw %+v", got)
	}
}

func TestHTTPEnhancerRetries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		attempts  int
		wantCalls int32
		wantErr   int
	}{
		{"succeeds after a 503", []int{503, 200}, 3, 2, 0},
		{"retries 429", []int{429, 429, 200}, 3, 3, 0},
		{"gives up after max attempts", []int{500, 500, 500, 500}, 3, 3, 500},
		{"client errors are final", []int{400, 200}, 3, 1, 400},
		{"single attempt", []int{502, 200}, 1, 1, 502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				status := tt.statuses[n-1]
				w.WriteHeader(status)
				if status == http.StatusOK {
					w.Write([]byte(`{"imageUrl":"https://img.test/ok.png"}`))
					return
				}
				w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			c := newTestEnhancer(t, srv.URL, tt.attempts)
			_, err := c.SecondPass(context.Background(), SecondPassRequest{ReferenceImage: "x"})
			if calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls)
			}
			if tt.wantErr == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var remote *RemoteError
			if !errors.As(err, &remote) {
				t.Fatalf("expected a RemoteError, got %v", err)
			}
			if remote.StatusCode != tt.wantErr || remote.Message != "nope" {
				t.Errorf("unexpected remote error %+v", remote)
			}
		})
	}
}

func TestHTTPEnhancerNetworkErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestEnhancer(t, url, 2)
	if _, err := c.FirstPass(context.Background(), FirstPassRequest{}); err == nil {
		t.Fatal("expected an error from a closed server")
	}
}

func TestHTTPEnhancerBadBodyIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := newTestEnhancer(t, srv.URL, 3)
	if _, err := c.FirstPass(context.Background(), FirstPassRequest{}); err == nil {
		t.Fatal("expected a decode error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestHTTPEnhancerSeasonal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SeasonalRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Plants) != 1 || req.Plants[0].Size != "small" {
			t.Errorf("unexpected plants %+v", req.Plants)
		}
		w.Write([]byte(`{"seasonalImages":{"spring":"s.png","winter":"w.png"},"generatedSeasons":["spring","winter"]}`))
	}))
	defer srv.Close()

	c := newTestEnhancer(t, srv.URL, 1)
	resp, err := c.Seasonal(context.Background(), SeasonalRequest{
		ReferenceImage: "final.png",
		Plants:         []SeasonalPlant{{PlantName: "Hellebore", X: 0.5, Y: 0.5, Size: "small"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.SeasonalImages.For(garden.SeasonWinter) != "w.png" || resp.SeasonalImages.For(garden.SeasonSummer) != "" {
		t.Errorf("unexpected images %+v", resp.SeasonalImages)
	}
	if len(resp.GeneratedSeasons) != 2 {
		t.Errorf("generated seasons = %v", resp.GeneratedSeasons)
	}
}

func TestBlockingStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Blocking(ctx, Immediately(ExponentialBackoff(time.Hour, 2, 0)), func() (int, error) {
		calls++
		cancel()
		return 0, ErrRetry
	})
	if calls != 1 {
		t.Errorf("expected one call, got %d", calls)
	}
	if !errors.Is(err, ErrRetry) {
		t.Errorf("expected the last error back, got %v", err)
	}
}
