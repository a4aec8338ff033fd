// Package frames extracts still frames from video files at a fixed
// interval by driving an ffmpeg subprocess.
package frames

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// framePrefix is the naming prefix for extracted frames. Lexicographic
	// order of the zero-padded suffix equals temporal order.
	framePrefix = "frame_"

	maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics
)

// DecodeError indicates frame extraction failed for a video.
type DecodeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("cannot decode %s: %v: %s", e.Path, e.Err, e.Stderr)
	}
	return fmt.Sprintf("cannot decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Sampler is the frame extraction contract the analyzer consumes.
type Sampler interface {
	Sample(ctx context.Context, videoPath, outputDir string, interval float64) ([]string, error)
}

// FFmpegSampler extracts frames with the ffmpeg binary. The caller owns
// outputDir: the sampler writes into it but never creates or removes it.
type FFmpegSampler struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewFFmpegSampler resolves the ffmpeg binary. An empty path means PATH lookup.
func NewFFmpegSampler(binary string, timeout time.Duration, logger *slog.Logger) (*FFmpegSampler, error) {
	if binary == "" {
		binary = "ffmpeg"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &FFmpegSampler{binary: resolved, timeout: timeout, logger: logger}, nil
}

// Sample extracts one frame every interval seconds in presentation order
// and returns the produced frame paths sorted temporally. On any ffmpeg
// failure no partial list is returned.
func (s *FFmpegSampler) Sample(ctx context.Context, videoPath, outputDir string, interval float64) ([]string, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pattern := filepath.Join(outputDir, framePrefix+"%06d.jpg")
	args := []string{
		"-nostats", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%g", interval),
		"-q:v", "2",
		pattern,
	}

	cmd := exec.CommandContext(ctx, s.binary, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if s.logger != nil {
			s.logger.Warn("frame extraction failed",
				"error", err,
				"duration_ms", time.Since(start).Milliseconds(),
				"stderr_tail", truncate(stderrBuf.String(), 512),
			)
		}
		return nil, &DecodeError{Path: videoPath, Stderr: truncate(stderrBuf.String(), 512), Err: err}
	}

	paths, err := collectFrames(outputDir)
	if err != nil {
		return nil, &DecodeError{Path: videoPath, Err: err}
	}
	if len(paths) == 0 {
		return nil, &DecodeError{Path: videoPath, Err: fmt.Errorf("no frames produced")}
	}

	if s.logger != nil {
		s.logger.Debug("frames extracted",
			"count", len(paths),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return paths, nil
}

// collectFrames lists outputDir, keeps files matching the sampler's own
// naming prefix so stray files in a reused directory are ignored, and
// sorts lexicographically.
func collectFrames(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), framePrefix) {
			continue
		}
		paths = append(paths, filepath.Join(outputDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
