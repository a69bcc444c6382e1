package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/gardenia/engine/config"
)

// fakeS3 answers the handful of path-style S3 calls the store makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
}

func (m *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	empty := func(status int) *http.Response {
		return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}, Request: req}
	}
	switch req.Method {
	case http.MethodHead, http.MethodGet:
		obj, ok := m.objects[key]
		if !ok {
			return empty(http.StatusNotFound), nil
		}
		body := obj.body
		if req.Method == http.MethodHead {
			body = nil
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(body)), Request: req, Header: http.Header{
			"Content-Length": {strconv.Itoa(len(obj.body))},
			"Content-Type":   {obj.contentType},
			"Etag":           {"\"etag123\""},
			"Last-Modified":  {time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat)},
		}}, nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		m.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type")}
		resp := empty(http.StatusOK)
		resp.Header.Set("Etag", "\"etag123\"")
		return resp, nil
	case http.MethodDelete:
		delete(m.objects, key)
		return empty(http.StatusNoContent), nil
	}
	return empty(http.StatusNotImplemented), nil
}

// decodeChunked undoes aws-chunked framing: <hex>[;ext]\r\n<data>\r\n ... 0\r\n
func decodeChunked(b []byte) ([]byte, bool) {
	var out []byte
	rest := b
	for {
		i := bytes.Index(rest, []byte("\r\n"))
		if i < 0 {
			return nil, false
		}
		head := string(rest[:i])
		if j := strings.IndexByte(head, ';'); j >= 0 {
			head = head[:j]
		}
		n, err := strconv.ParseInt(head, 16, 64)
		if err != nil {
			return nil, false
		}
		if n == 0 {
			return out, true
		}
		rest = rest[i+2:]
		if int64(len(rest)) < n+2 {
			return nil, false
		}
		out = append(out, rest[:n]...)
		rest = rest[n+2:]
	}
}

func newFakeS3Store(t *testing.T, public string) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]fakeObject{}}
	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:        "renders",
		Region:        "eu-west-1",
		Endpoint:      "https://s3.test.local",
		AccessKey:     "AKIA",
		SecretKey:     "SECRET",
		Prefix:        "gardenia",
		PathStyle:     true,
		PublicBaseURL: public,
		HTTPClient:    &http.Client{Transport: fake},
	})
	if err != nil {
		t.Fatalf("failed to create s3 store: %v", err)
	}
	return store, fake
}

func TestStores(t *testing.T) {
	fsStore, err := NewFSStore(t.TempDir(), "http://api.test/api/artifacts")
	if err != nil {
		t.Fatal(err)
	}
	s3Store, _ := newFakeS3Store(t, "https://cdn.test")

	stores := []struct {
		store     Store
		urlPrefix string
	}{
		{NewMemoryStore("http://api.test/api/artifacts"), "http://api.test/api/artifacts/exports/"},
		{fsStore, "http://api.test/api/artifacts/exports/"},
		{NewInlineStore(), "data:image/png;base64,"},
		{s3Store, "https://cdn.test/gardenia/exports/"},
	}
	payload := []byte("\x89PNG\r\n\x1a\nnot really a png")

	for _, tt := range stores {
		t.Run(string(tt.store.Driver()), func(t *testing.T) {
			ctx := context.Background()
			info, err := PublishPNG(ctx, tt.store, payload)
			if err != nil {
				t.Fatalf("publish: %v", err)
			}
			if !strings.HasPrefix(info.Key, EXPORT_PREFIX+"/") || !strings.HasSuffix(info.Key, ".png") {
				t.Errorf("unexpected key %q", info.Key)
			}
			if !strings.HasPrefix(info.URL, tt.urlPrefix) {
				t.Errorf("url %q should start with %q", info.URL, tt.urlPrefix)
			}
			if info.Size != int64(len(payload)) || info.ContentType != CONTENT_TYPE_PNG {
				t.Errorf("unexpected info %+v", info)
			}

			if _, err := tt.store.Put(ctx, info.Key, bytes.NewReader(payload), CONTENT_TYPE_PNG); err == nil {
				t.Error("keys are write-once")
			}

			got, rc, err := tt.store.Get(ctx, info.Key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			body, _ := io.ReadAll(rc)
			rc.Close()
			if !bytes.Equal(body, payload) || got.ContentType != CONTENT_TYPE_PNG {
				t.Errorf("round trip mismatch: %q %+v", body, got)
			}

			existed, err := tt.store.Delete(ctx, info.Key)
			if err != nil || !existed {
				t.Fatalf("delete: %v %v", existed, err)
			}
			if existed, _ := tt.store.Delete(ctx, info.Key); existed {
				t.Error("second delete should report a missing key")
			}
			if _, _, err := tt.store.Get(ctx, info.Key); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestS3PresignsWithoutPublicURL(t *testing.T) {
	store, fake := newFakeS3Store(t, "")
	info, err := store.Put(context.Background(), "exports/a.png", strings.NewReader("png"), CONTENT_TYPE_PNG)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.objects["gardenia/exports/a.png"]; !ok {
		t.Errorf("object not stored under the prefix, have %v", fake.objects)
	}
	if !strings.HasPrefix(info.URL, "https://s3.test.local/renders/gardenia/exports/a.png?") ||
		!strings.Contains(info.URL, "X-Amz-Signature=") {
		t.Errorf("expected a presigned url, got %q", info.URL)
	}
}

func TestInvalidKeys(t *testing.T) {
	store := NewMemoryStore("")
	for _, key := range []string{"", "  ", "../escape", "/abs"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), ""); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		cfg     config.StorageConfig
		want    Driver
		wantErr bool
	}{
		{config.StorageConfig{Driver: "memory"}, DriverMemory, false},
		{config.StorageConfig{Driver: "inline"}, DriverInline, false},
		{config.StorageConfig{Driver: "fs", Dir: t.TempDir()}, DriverFS, false},
		{config.StorageConfig{Driver: "s3", S3: config.S3Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}}, DriverS3, false},
		{config.StorageConfig{Driver: "s3"}, "", true},
		{config.StorageConfig{Driver: "ftp"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Driver, func(t *testing.T) {
			store, err := Open(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if store.Driver() != tt.want {
				t.Errorf("driver = %s, want %s", store.Driver(), tt.want)
			}
		})
	}
}

func TestDataURL(t *testing.T) {
	if got := DataURL("image/png", []byte("hi")); got != "data:image/png;base64,aGk=" {
		t.Errorf("got %q", got)
	}
	if got := DataURL("", nil); got != "data:application/octet-stream;base64," {
		t.Errorf("got %q", got)
	}
}
