package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/spaghettifunk/gardenia/engine/config"
)

func TestLoad(t *testing.T) {
	t.Run("it can be created from a config file", func(t *testing.T) {
		result, err := config.Load("./testdata/config.toml")
		if err != nil {
			t.Fatalf("failed to parse config: %v", err)
		}
		if result.Log.Level != "debug" {
			t.Errorf("log level = %s", result.Log.Level)
		}
		if result.Renderer.Backend != "stub" {
			t.Errorf("backend = %s", result.Renderer.Backend)
		}
		if result.Enhancer.Timeout.Duration != 30*time.Second {
			t.Errorf("timeout = %s", result.Enhancer.Timeout)
		}
		if result.Enhancer.Seed != 7 {
			t.Errorf("seed = %d", result.Enhancer.Seed)
		}
		if !result.Storage.S3.UsePathStyle || result.Storage.S3.Bucket != "renders" {
			t.Errorf("s3 = %+v", result.Storage.S3)
		}
	})

	t.Run("values not in the file keep their defaults", func(t *testing.T) {
		result, err := config.Load("./testdata/config.toml")
		if err != nil {
			t.Fatal(err)
		}
		if result.Scene.CircleSegments != 64 {
			t.Errorf("circle segments = %d, want 64", result.Scene.CircleSegments)
		}
		if !result.Renderer.PreserveDrawingBuffer {
			t.Error("preserve_drawing_buffer should default to true")
		}
		if result.Enhancer.InitialBackoff.Duration != 500*time.Millisecond {
			t.Errorf("initial backoff = %s", result.Enhancer.InitialBackoff)
		}
	})
}

func TestDefaultSeed(t *testing.T) {
	if got := config.Default().Enhancer.Seed; got != 42 {
		t.Fatalf("default seed = %d, want 42", got)
	}
}

func TestValidate(t *testing.T) {
	_, err := config.Unmarshal([]byte(`
[storage]
driver = "s3"

[loop]
fps = 0
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"storage.s3.bucket", "loop.fps"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}

	if _, err := config.Unmarshal([]byte(`timeout = "nope"`)); err != nil {
		t.Errorf("unknown top level keys should be ignored, got %v", err)
	}
}
