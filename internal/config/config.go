// ABOUTME: Player configuration with defaults and an optional YAML file
// ABOUTME: Converts the file form into playback and output settings
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/oggplay/oggplay/pkg/audio/output"
	"github.com/oggplay/oggplay/pkg/audio/resample"
)

// Config holds the player settings
type Config struct {
	BufferBlocks int
	ReadSize     int
	ReadTimeout  time.Duration
	DrainTimeout time.Duration
	DrainPoll    time.Duration
	Output       string
	OutputRate   int
	Resample     string
	WAVPath      string
	Volume       int
	LogFile      string
	NoTUI        bool
	S3Region     string
	S3Endpoint   string
}

// file is the on-disk layout. Durations are strings such as "5s".
type file struct {
	BufferBlocks *int    `yaml:"buffer_blocks"`
	ReadSize     *int    `yaml:"read_size"`
	ReadTimeout  *string `yaml:"read_timeout"`
	DrainTimeout *string `yaml:"drain_timeout"`
	DrainPoll    *string `yaml:"drain_poll"`
	Output       *string `yaml:"output"`
	OutputRate   *int    `yaml:"output_rate"`
	Resample     *string `yaml:"resample_quality"`
	WAVPath      *string `yaml:"wav_path"`
	Volume       *int    `yaml:"volume"`
	LogFile      *string `yaml:"log_file"`
	NoTUI        *bool   `yaml:"no_tui"`
	S3Region     *string `yaml:"s3_region"`
	S3Endpoint   *string `yaml:"s3_endpoint"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		BufferBlocks: 4,
		ReadSize:     4096,
		DrainTimeout: 10 * time.Second,
		DrainPoll:    20 * time.Millisecond,
		Output:       "oto",
		Resample:     resample.QualityLinear,
		Volume:       100,
		LogFile:      "oggplay.log",
		S3Region:     "us-east-1",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := cfg.apply(data); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads YAML data over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.apply(data); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) apply(data []byte) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	setInt(&c.BufferBlocks, f.BufferBlocks)
	setInt(&c.ReadSize, f.ReadSize)
	setInt(&c.OutputRate, f.OutputRate)
	setInt(&c.Volume, f.Volume)
	setString(&c.Output, f.Output)
	setString(&c.Resample, f.Resample)
	setString(&c.WAVPath, f.WAVPath)
	setString(&c.LogFile, f.LogFile)
	setString(&c.S3Region, f.S3Region)
	setString(&c.S3Endpoint, f.S3Endpoint)
	if f.NoTUI != nil {
		c.NoTUI = *f.NoTUI
	}

	durations := []struct {
		name string
		src  *string
		dst  *time.Duration
	}{
		{"read_timeout", f.ReadTimeout, &c.ReadTimeout},
		{"drain_timeout", f.DrainTimeout, &c.DrainTimeout},
		{"drain_poll", f.DrainPoll, &c.DrainPoll},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}

	return c.Validate()
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.BufferBlocks < 1 || c.BufferBlocks > 64 {
		return fmt.Errorf("buffer_blocks must be between 1 and 64, got %d", c.BufferBlocks)
	}
	if c.ReadSize < 1 {
		return fmt.Errorf("read_size must be positive, got %d", c.ReadSize)
	}
	if c.Volume < 0 || c.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Volume)
	}
	if c.OutputRate < 0 {
		return fmt.Errorf("output_rate must not be negative, got %d", c.OutputRate)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout must not be negative")
	}
	known := false
	for _, b := range output.Backends {
		if c.Output == b {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown output %q (known: %v)", c.Output, output.Backends)
	}
	if c.Resample != resample.QualityLinear && c.Resample != resample.QualityHigh {
		return fmt.Errorf("resample_quality must be %q or %q, got %q",
			resample.QualityLinear, resample.QualityHigh, c.Resample)
	}
	if c.Output == "wav" && c.WAVPath == "" {
		return fmt.Errorf("output wav needs wav_path")
	}
	return nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
