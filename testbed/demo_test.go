package testbed

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/gardenia/engine/config"
)

func TestRunDemoWritesPNG(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.Dir = ""
	cfg.Renderer.Backend = "stub"
	cfg.Export.Width, cfg.Export.Height = 160, 90
	path := filepath.Join(t.TempDir(), "out", "demo.png")

	if err := RunDemo(cfg, path); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 90 {
		t.Errorf("exported %dx%d, want 160x90", b.Dx(), b.Dy())
	}
}

func TestDemoSceneUsesOnlyCatalogPlants(t *testing.T) {
	req := DemoScene(800, 600)
	ids := map[string]bool{}
	for _, p := range req.Catalog {
		ids[p.ID] = true
	}
	for _, p := range req.Plants {
		if !ids[p.PlantID] {
			t.Errorf("placed plant %s uses unknown id %s", p.ID, p.PlantID)
		}
	}
	if _, err := req.Description.Bounds(); err != nil {
		t.Fatal(err)
	}
}
