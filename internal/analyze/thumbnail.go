package analyze

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const thumbnailFilter = "scale=480:270:force_original_aspect_ratio=decrease,pad=480:270:(ow-iw)/2:(oh-ih)/2"

// Thumbnailer produces a single preview image for a video.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, videoPath, outPath string, at float64) error
}

// FFmpegThumbnailer grabs one letterboxed 480x270 frame with ffmpeg.
type FFmpegThumbnailer struct {
	binary  string
	timeout time.Duration
}

// NewFFmpegThumbnailer resolves the ffmpeg binary. An empty path means
// PATH lookup.
func NewFFmpegThumbnailer(binary string, timeout time.Duration) (*FFmpegThumbnailer, error) {
	if binary == "" {
		binary = "ffmpeg"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFmpegThumbnailer{binary: resolved, timeout: timeout}, nil
}

func (t *FFmpegThumbnailer) Thumbnail(ctx context.Context, videoPath, outPath string, at float64) error {
	if at < 0 {
		at = 0
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// -ss before -i seeks on keyframes, which is cheap and close
	// enough for a preview image.
	args := []string{
		"-nostats", "-hide_banner", "-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", at),
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", thumbnailFilter,
		"-q:v", "3",
		"-y", outPath,
	}
	cmd := exec.CommandContext(ctx, t.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("thumbnail %s: %w: %s", videoPath, err, stderr.String())
	}
	return nil
}
