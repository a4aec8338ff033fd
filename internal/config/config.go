// Package config provides configuration management for the clipcull agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8797
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipcull"

	// Environment variable names
	EnvPort     = "CLIPCULL_PORT"
	EnvLogLevel = "CLIPCULL_LOG_LEVEL"
	EnvDataDir  = "CLIPCULL_DATA_DIR"

	// Media tooling environment variable names
	EnvFFmpegPath       = "CLIPCULL_FFMPEG"
	EnvFFprobePath      = "CLIPCULL_FFPROBE"
	EnvSampleInterval   = "CLIPCULL_SAMPLE_INTERVAL"
	EnvFocusCalibration = "CLIPCULL_FOCUS_CALIBRATION"

	// Database filename
	DBFilename = "clipcull.db"

	// Analysis defaults
	DefaultSampleInterval   = 1.0   // seconds between sampled frames
	DefaultFocusCalibration = 100.0 // variance divisor, tuned against real footage

	DefaultProbeTimeout   = 30  // seconds
	DefaultExtractTimeout = 600 // 10 minutes per video
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ThumbnailDir() string
	FFmpegPath() string
	FFprobePath() string
	SampleInterval() float64
	FocusCalibration() float64
	ProbeTimeout() time.Duration
	ExtractTimeout() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port             int
	logLevel         string
	dataDir          string
	ffmpegPath       string
	ffprobePath      string
	sampleInterval   float64
	focusCalibration float64
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:             DefaultPort,
		logLevel:         DefaultLogLevel,
		dataDir:          defaultDataDir(),
		sampleInterval:   DefaultSampleInterval,
		focusCalibration: DefaultFocusCalibration,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.ffmpegPath = os.Getenv(EnvFFmpegPath)
	cfg.ffprobePath = os.Getenv(EnvFFprobePath)

	if si := os.Getenv(EnvSampleInterval); si != "" {
		interval, err := strconv.ParseFloat(si, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSampleInterval, err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("invalid %s: interval must be positive", EnvSampleInterval)
		}
		cfg.sampleInterval = interval
	}

	if fc := os.Getenv(EnvFocusCalibration); fc != "" {
		calibration, err := strconv.ParseFloat(fc, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvFocusCalibration, err)
		}
		if calibration <= 0 {
			return nil, fmt.Errorf("invalid %s: calibration must be positive", EnvFocusCalibration)
		}
		cfg.focusCalibration = calibration
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ThumbnailDir returns the directory where generated thumbnails are stored
func (c *EnvConfig) ThumbnailDir() string {
	return filepath.Join(c.dataDir, "thumbnails")
}

// FFmpegPath returns the configured ffmpeg binary path, or empty for PATH lookup
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// FFprobePath returns the configured ffprobe binary path, or empty for PATH lookup
func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// SampleInterval returns the seconds between sampled frames during analysis
func (c *EnvConfig) SampleInterval() float64 {
	return c.sampleInterval
}

// FocusCalibration returns the focus score variance divisor
func (c *EnvConfig) FocusCalibration() float64 {
	return c.focusCalibration
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return time.Duration(DefaultProbeTimeout) * time.Second
}

func (c *EnvConfig) ExtractTimeout() time.Duration {
	return time.Duration(DefaultExtractTimeout) * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
