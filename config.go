package voxr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/voxr/voxr/rt/stream"
)

var ErrConfig = errors.New("voxr: invalid config")

type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Camera  CameraConfig  `yaml:"camera"`
	World   WorldConfig   `yaml:"world"`
	Store   StoreConfig   `yaml:"store"`
	Save    SaveConfig    `yaml:"save"`
	Physics PhysicsConfig `yaml:"physics"`
	Debug   bool          `yaml:"debug"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type CameraConfig struct {
	Near          float32 `yaml:"near"`
	Far           float32 `yaml:"far"`
	MoveSpeed     float32 `yaml:"move_speed"`
	SprintMult    float32 `yaml:"sprint_mult"`
	RotationSpeed float32 `yaml:"rotation_speed"`
}

type WorldConfig struct {
	Seed      int64 `yaml:"seed"`
	GridWidth int   `yaml:"grid_width"`
	// Workers > 0 generates chunks in the background.
	Workers int `yaml:"workers"`
	// WorldID names the chunk store namespace. Empty picks a fresh one.
	WorldID string `yaml:"world_id"`
}

type StoreConfig struct {
	// Path of the LevelDB chunk store. Empty keeps evicted edits in memory.
	Path string `yaml:"path"`
}

type SaveConfig struct {
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

type PhysicsConfig struct {
	Gravity float32 `yaml:"gravity"`
	Enabled bool    `yaml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Width: 1920, Height: 1080, Title: "VoxelsTest"},
		Camera: CameraConfig{
			Near:          0.01,
			Far:           25,
			MoveSpeed:     2,
			SprintMult:    2.5,
			RotationSpeed: 0.9,
		},
		World: WorldConfig{GridWidth: stream.DefaultWidth},
		Save:  SaveConfig{Path: "world.vxl"},
		Physics: PhysicsConfig{
			Gravity: -9.81,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the
// defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		problems = append(problems, fmt.Sprintf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Camera.Near <= 0 {
		problems = append(problems, "camera.near must be positive")
	}
	if c.Camera.Far <= c.Camera.Near {
		problems = append(problems, "camera.far must exceed camera.near")
	}
	if c.Camera.MoveSpeed <= 0 || c.Camera.SprintMult <= 0 || c.Camera.RotationSpeed <= 0 {
		problems = append(problems, "camera speeds must be positive")
	}
	if c.World.GridWidth < 1 || c.World.GridWidth%2 == 0 {
		problems = append(problems, fmt.Sprintf("world.grid_width %d must be odd and positive", c.World.GridWidth))
	}
	if c.World.Workers < 0 {
		problems = append(problems, "world.workers must not be negative")
	}
	if c.World.WorldID != "" {
		if _, err := uuid.Parse(c.World.WorldID); err != nil {
			problems = append(problems, fmt.Sprintf("world.world_id: %v", err))
		}
	}
	if strings.TrimSpace(c.Save.Path) == "" {
		problems = append(problems, "save.path must be set")
	}
	if c.Physics.Gravity > 0 {
		problems = append(problems, "physics.gravity must point down")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}
