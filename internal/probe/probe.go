// Package probe resolves video file metadata via ffprobe.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// VideoFile is the resolved metadata record for one source video.
// Identity is the absolute path.
type VideoFile struct {
	Path      string  `json:"path"`
	Filename  string  `json:"filename"`
	DirLabel  string  `json:"dir_label"` // relative folder, e.g. "A-Roll"
	Duration  float64 `json:"duration"`  // seconds
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frame_rate"`
	Codec     string  `json:"codec"`
}

// MetadataError indicates a file whose video stream could not be read.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("cannot read video metadata for %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// Prober is the metadata probe contract the analyzer consumes.
type Prober interface {
	Probe(ctx context.Context, path string) (*VideoFile, error)
}

// FFprobe probes files with the ffprobe binary.
type FFprobe struct {
	binary  string
	timeout time.Duration
}

// NewFFprobe resolves the ffprobe binary. An empty path means PATH lookup.
func NewFFprobe(binary string, timeout time.Duration) (*FFprobe, error) {
	if binary == "" {
		binary = "ffprobe"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFprobe{binary: resolved, timeout: timeout}, nil
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

// Probe returns the metadata record for path, or a MetadataError when
// the file has no readable video stream.
func (p *FFprobe) Probe(ctx context.Context, path string) (*VideoFile, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, &MetadataError{Path: path, Err: err}
	}

	var ff ffprobeOutput
	if err := json.Unmarshal(output, &ff); err != nil {
		return nil, &MetadataError{Path: path, Err: err}
	}

	file, err := fromProbeOutput(path, ff)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func fromProbeOutput(path string, ff ffprobeOutput) (*VideoFile, error) {
	file := &VideoFile{
		Path:     path,
		Filename: filepath.Base(path),
	}

	if dur, err := strconv.ParseFloat(ff.Format.Duration, 64); err == nil {
		file.Duration = dur
	}

	found := false
	for _, s := range ff.Streams {
		if s.CodecType != "video" {
			continue
		}
		file.Codec = s.CodecName
		file.Width = s.Width
		file.Height = s.Height
		file.FrameRate = parseFrameRate(s.RFrameRate)
		found = true
		break
	}

	if !found {
		return nil, &MetadataError{Path: path, Err: fmt.Errorf("no video stream")}
	}
	if file.Width <= 0 || file.Height <= 0 || file.FrameRate <= 0 {
		return nil, &MetadataError{Path: path, Err: fmt.Errorf("incomplete video stream metadata")}
	}

	return file, nil
}

// parseFrameRate parses ffprobe's rational rate notation, e.g. "30000/1001".
func parseFrameRate(s string) float64 {
	if s == "" {
		return 0
	}
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 1 {
		rate, _ := strconv.ParseFloat(parts[0], 64)
		return rate
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// DirLabel returns the relative folder label for path under root, e.g.
// "A-Roll" for <root>/A-Roll/clip.mp4. Files directly under root get ".".
func DirLabel(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return filepath.Base(filepath.Dir(path))
	}
	return rel
}
