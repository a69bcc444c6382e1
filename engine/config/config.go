package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration reads "1.5s" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type LogConfig struct {
	Level string `toml:"level"`
}

type RendererConfig struct {
	// "software" or "stub".
	Backend               string `toml:"backend"`
	PreserveDrawingBuffer bool   `toml:"preserve_drawing_buffer"`
	ClearColour           string `toml:"clear_colour"`
	Antialias             bool   `toml:"antialias"`
	MaxResources          uint32 `toml:"max_resources"`
	ShadowMapSize         uint32 `toml:"shadow_map_size"`
	Width                 uint32 `toml:"width"`
	Height                uint32 `toml:"height"`
}

type TexturesConfig struct {
	MaxEntries int    `toml:"max_entries"`
	Size       uint32 `toml:"size"`
	SpriteSize uint32 `toml:"sprite_size"`
}

type SceneConfig struct {
	Surface         string  `toml:"surface"`
	Border          string  `toml:"border"`
	BorderHeight    float32 `toml:"border_height"`
	BorderThickness float32 `toml:"border_thickness"`
	CircleSegments  int     `toml:"circle_segments"`
	// Length covered by one texture tile.
	TileSize float32 `toml:"tile_size"`
	ShowGrid bool    `toml:"show_grid"`
	ShowAxes bool    `toml:"show_axes"`
	// Billboard sway amplitude in metres, zero keeps plants still.
	Wind float32 `toml:"wind"`
}

type LoopConfig struct {
	FPS int `toml:"fps"`
}

type ExportConfig struct {
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type EnhancerConfig struct {
	BaseURL        string   `toml:"base_url"`
	APIKey         string   `toml:"api_key"`
	Timeout        Duration `toml:"timeout"`
	MaxAttempts    int      `toml:"max_attempts"`
	InitialBackoff Duration `toml:"initial_backoff"`
	MaxBackoff     Duration `toml:"max_backoff"`
	Seed           int64    `toml:"seed"`
	Strength       float32  `toml:"strength"`
	CFGScale       float32  `toml:"cfg_scale"`
	TimeOfDay      string   `toml:"time_of_day"`
	Style          string   `toml:"style"`

	// Days sampled from a seasonal date range.
	SeasonalSamples int `toml:"seasonal_samples"`
	// Year used to turn days of year into dates. Zero means the current year.
	Year            int `toml:"year"`
}

type S3Config struct {
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	Endpoint      string `toml:"endpoint"`
	AccessKey     string `toml:"access_key"`
	SecretKey     string `toml:"secret_key"`
	Prefix        string `toml:"prefix"`
	UsePathStyle  bool   `toml:"use_path_style"`
	PublicBaseURL string `toml:"public_base_url"`
}

type StorageConfig struct {
	// "memory", "fs", "s3" or "inline".
	Driver string `toml:"driver"`
	Dir    string `toml:"dir"`
	// Prefix of artifact URLs for the memory and fs drivers.
	BaseURL string   `toml:"base_url"`
	S3      S3Config `toml:"s3"`
}

type ServerConfig struct {
	Addr       string `toml:"addr"`
	JobWorkers int    `toml:"job_workers"`
	JobQueue   int    `toml:"job_queue"`
}

type AssetsConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

type Config struct {
	Log      LogConfig      `toml:"log"`
	Renderer RendererConfig `toml:"renderer"`
	Textures TexturesConfig `toml:"textures"`
	Scene    SceneConfig    `toml:"scene"`
	Loop     LoopConfig     `toml:"loop"`
	Export   ExportConfig   `toml:"export"`
	Enhancer EnhancerConfig `toml:"enhancer"`
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`
	Assets   AssetsConfig   `toml:"assets"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Renderer: RendererConfig{
			Backend:               "software",
			PreserveDrawingBuffer: true,
			ClearColour:           "#c9dff0",
			Antialias:             true,
			MaxResources:          4096,
			ShadowMapSize:         1024,
			Width:                 800,
			Height:                600,
		},
		Textures: TexturesConfig{MaxEntries: 50, Size: 256, SpriteSize: 128},
		Scene: SceneConfig{
			Surface:         "grass",
			Border:          "wood",
			BorderHeight:    0.3,
			BorderThickness: 0.15,
			CircleSegments:  64,
			TileSize:        2,
			ShowGrid:        false,
			ShowAxes:        false,
			Wind:            0.03,
		},
		Loop:   LoopConfig{FPS: 30},
		Export: ExportConfig{Width: 1920, Height: 1080},
		Enhancer: EnhancerConfig{
			Timeout:        Duration{120 * time.Second},
			MaxAttempts:    3,
			InitialBackoff: Duration{500 * time.Millisecond},
			MaxBackoff:     Duration{8 * time.Second},
			Seed:           42,
			Strength:       0.55,
			CFGScale:       7.5,
			TimeOfDay:      "golden hour",
			Style:          "photorealistic",

			SeasonalSamples: 4,
		},
		Storage: StorageConfig{Driver: "memory", Dir: "artifacts", BaseURL: "http://localhost:8080/api/artifacts"},
		Server:  ServerConfig{Addr: ":8080", JobWorkers: 2, JobQueue: 16},
		Assets:  AssetsConfig{Dir: "assets", Watch: true},
	}
}

// Load reads a TOML file on top of the defaults.
func Load(filepath string) (*Config, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*Config, error) {
	out := Default()
	if err := toml.Unmarshal(conf, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Renderer.Backend {
	case "software", "stub":
	default:
		errs = append(errs, fmt.Errorf("renderer.backend: unknown backend %q", c.Renderer.Backend))
	}
	if c.Renderer.MaxResources == 0 {
		errs = append(errs, errors.New("renderer.max_resources must be > 0"))
	}
	if c.Textures.MaxEntries <= 0 {
		errs = append(errs, errors.New("textures.max_entries must be > 0"))
	}
	if c.Scene.CircleSegments < 3 {
		errs = append(errs, errors.New("scene.circle_segments must be >= 3"))
	}
	if c.Scene.BorderHeight <= 0 || c.Scene.BorderThickness <= 0 {
		errs = append(errs, errors.New("scene border height and thickness must be > 0"))
	}
	if c.Scene.TileSize <= 0 {
		errs = append(errs, errors.New("scene.tile_size must be > 0"))
	}
	if c.Loop.FPS <= 0 {
		errs = append(errs, errors.New("loop.fps must be > 0"))
	}
	if c.Enhancer.MaxAttempts < 1 {
		errs = append(errs, errors.New("enhancer.max_attempts must be >= 1"))
	}
	switch c.Storage.Driver {
	case "memory", "fs", "inline":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	if c.Server.JobWorkers < 1 {
		errs = append(errs, errors.New("server.job_workers must be >= 1"))
	}
	return errors.Join(errs...)
}
