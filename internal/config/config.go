// Package config provides configuration loading for formula-render.
// Supports YAML files, a .env file, environment variables, and flag overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical/formula-render/internal/domain"
)

// Config holds all configuration for the renderer.
type Config struct {
	Output OutputConfig `yaml:"output"`
	Latex  LatexConfig  `yaml:"latex"`
	Raster RasterConfig `yaml:"raster"`
	Crop   CropConfig   `yaml:"crop"`
	Log    LogConfig    `yaml:"log"`
}

// OutputConfig controls where and how PNGs are written.
type OutputConfig struct {
	Dir         string  `yaml:"dir"`
	Scale       float64 `yaml:"scale"`
	Compression string  `yaml:"compression"` // default, speed, best or none
}

// LatexConfig holds template and compiler settings.
type LatexConfig struct {
	Binary           string        `yaml:"binary"`
	Template         string        `yaml:"template"`
	Timeout          time.Duration `yaml:"timeout"` // 0 disables the timeout
	KeepLogOnFailure bool          `yaml:"keep_log_on_failure"`
	ExtraColors      []string      `yaml:"extra_colors"`
	ExtraMatrices    []string      `yaml:"extra_matrices"`
}

// RasterConfig holds PDF rasterization settings.
type RasterConfig struct {
	Backend        string `yaml:"backend"` // fitz or pdftoppm
	DPI            int    `yaml:"dpi"`
	PdftoppmBinary string `yaml:"pdftoppm_binary"`
}

// CropConfig holds whitespace trimming settings.
type CropConfig struct {
	Inset int `yaml:"inset"` // -1 uses the template's default
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Load reads configuration from an optional YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	// Ignore error if .env doesn't exist
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:         DefaultOutputDir(),
			Scale:       1.0,
			Compression: "default",
		},
		Latex: LatexConfig{
			Binary:           "pdflatex",
			Template:         domain.DefaultVariant,
			KeepLogOnFailure: true,
		},
		Raster: RasterConfig{
			Backend:        "fitz",
			DPI:            domain.DefaultDPI,
			PdftoppmBinary: "pdftoppm",
		},
		Crop: CropConfig{
			Inset: -1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultOutputDir returns formulas/ next to the running executable,
// falling back to the working directory.
func DefaultOutputDir() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Join(filepath.Dir(exe), "formulas")
	}
	return "formulas"
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FORMULA_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("FORMULA_LATEX_BIN"); v != "" {
		cfg.Latex.Binary = v
	}
	if v := os.Getenv("FORMULA_TEMPLATE"); v != "" {
		cfg.Latex.Template = v
	}
	if v := os.Getenv("FORMULA_LATEX_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return domain.ConfigError("FORMULA_LATEX_TIMEOUT", err)
		}
		cfg.Latex.Timeout = d
	}
	if v := os.Getenv("FORMULA_DPI"); v != "" {
		dpi, err := strconv.Atoi(v)
		if err != nil {
			return domain.ConfigError("FORMULA_DPI", err)
		}
		cfg.Raster.DPI = dpi
	}
	if v := os.Getenv("FORMULA_RASTERIZER"); v != "" {
		cfg.Raster.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("FORMULA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("FORMULA_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return domain.ConfigError("output.dir is required", nil)
	}
	if c.Output.Scale <= 0 || c.Output.Scale > 4 {
		return domain.ConfigError(fmt.Sprintf("output.scale must be in (0, 4], got %g", c.Output.Scale), nil)
	}
	switch c.Output.Compression {
	case "default", "speed", "best", "none":
	default:
		return domain.ConfigError(fmt.Sprintf("unknown output.compression %q", c.Output.Compression), nil)
	}
	if strings.TrimSpace(c.Latex.Binary) == "" {
		return domain.ConfigError("latex.binary is required", nil)
	}
	if c.Latex.Timeout < 0 {
		return domain.ConfigError("latex.timeout must not be negative", nil)
	}
	switch c.Raster.Backend {
	case "fitz", "pdftoppm":
	default:
		return domain.ConfigError(fmt.Sprintf("unknown raster.backend %q", c.Raster.Backend), nil)
	}
	if c.Raster.DPI < 1 || c.Raster.DPI > 2400 {
		return domain.ConfigError(fmt.Sprintf("raster.dpi must be between 1 and 2400, got %d", c.Raster.DPI), nil)
	}
	if c.Crop.Inset < -1 {
		return domain.ConfigError(fmt.Sprintf("crop.inset must be >= -1, got %d", c.Crop.Inset), nil)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return domain.ConfigError(fmt.Sprintf("unknown log.format %q", c.Log.Format), nil)
	}
	return nil
}
