package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the variable Load falls back to when no path is given
const EnvConfigPath = "ZONE_EDITOR_CONFIG"

type Config struct {
	Zone    ZoneConfig    `yaml:"zone"`
	Editor  EditorConfig  `yaml:"editor"`
	Export  ExportConfig  `yaml:"export"`
	Catalog CatalogConfig `yaml:"catalog"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
	Warps   []WarpConfig  `yaml:"warps"`
}

// ZoneConfig holds the block grid geometry of the edited world. The
// defaults match one shipped zone; other worlds may differ.
type ZoneConfig struct {
	BlockSize float32 `yaml:"block_size"`
	OriginY   float32 `yaml:"origin_y"`
	MaxBlock  int     `yaml:"max_block"`
}

type EditorConfig struct {
	MaxUndoDepth    int        `yaml:"max_undo_depth"`
	GridSize        float32    `yaml:"grid_size"`
	SnapToGrid      bool       `yaml:"snap_to_grid"`
	RotationSnapDeg float32    `yaml:"rotation_snap_degrees"`
	ScaleSnap       float32    `yaml:"scale_snap"`
	DuplicateOffset [3]float32 `yaml:"duplicate_offset"`
}

type ExportConfig struct {
	Dir        string `yaml:"dir"`
	Backend    string `yaml:"backend"` // "dir" or "badger"
	BadgerPath string `yaml:"badger_path"`
	Backup     bool   `yaml:"backup"`
}

type CatalogConfig struct {
	Manifest string `yaml:"manifest"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Prefix string `yaml:"prefix"`
	Debug  bool   `yaml:"debug"`
}

// WarpConfig is one entry of the warp destination table
type WarpConfig struct {
	ID   uint16 `yaml:"id"`
	Name string `yaml:"name"`
}

func Default() *Config {
	return &Config{
		Zone: ZoneConfig{
			BlockSize: 160,
			OriginY:   65,
			MaxBlock:  63,
		},
		Editor: EditorConfig{
			MaxUndoDepth:    50,
			GridSize:        1,
			RotationSnapDeg: 15,
			ScaleSnap:       0.1,
			DuplicateOffset: [3]float32{2, 0, 0},
		},
		Export: ExportConfig{
			Dir:     "zone_out",
			Backend: "dir",
			Backup:  true,
		},
		Log: LogConfig{Prefix: "zoneedit"},
	}
}

// GetMetricsPort returns the configured port, then ZONE_EDITOR_METRICS_PORT,
// then 0 meaning metrics are not served.
func (m *MetricsConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(m.Port, "ZONE_EDITOR_METRICS_PORT", 0)
}

func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load reads a YAML config over the defaults. An empty path falls back to
// $ZONE_EDITOR_CONFIG; when neither is set the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Zone.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("zone.block_size must be positive, got %v", c.Zone.BlockSize))
	}
	if c.Zone.MaxBlock < 0 {
		errs = append(errs, fmt.Errorf("zone.max_block must not be negative, got %d", c.Zone.MaxBlock))
	}
	if c.Editor.MaxUndoDepth < 1 {
		errs = append(errs, fmt.Errorf("editor.max_undo_depth must be at least 1, got %d", c.Editor.MaxUndoDepth))
	}
	if c.Editor.GridSize <= 0 {
		errs = append(errs, fmt.Errorf("editor.grid_size must be positive, got %v", c.Editor.GridSize))
	}
	switch c.Export.Backend {
	case "dir":
		if c.Export.Dir == "" {
			errs = append(errs, errors.New("export.dir is required for the dir backend"))
		}
	case "badger":
		if c.Export.BadgerPath == "" {
			errs = append(errs, errors.New("export.badger_path is required for the badger backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("export.backend must be dir or badger, got %q", c.Export.Backend))
	}
	seen := make(map[uint16]bool, len(c.Warps))
	for _, w := range c.Warps {
		if seen[w.ID] {
			errs = append(errs, fmt.Errorf("warps: duplicate id %d", w.ID))
		}
		seen[w.ID] = true
	}
	return errors.Join(errs...)
}
