package frames

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestCollectFrames_FiltersAndSorts(t *testing.T) {
	dir := t.TempDir()

	names := []string{
		"frame_000003.jpg",
		"frame_000001.jpg",
		"stray.txt",
		"frame_000002.jpg",
		"thumbnail.jpg",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "frame_dir"), 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	paths, err := collectFrames(dir)
	if err != nil {
		t.Fatalf("collectFrames() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "frame_000001.jpg"),
		filepath.Join(dir, "frame_000002.jpg"),
		filepath.Join(dir, "frame_000003.jpg"),
	}
	if len(paths) != len(want) {
		t.Fatalf("got %d frames, want %d: %v", len(paths), len(want), paths)
	}
	for i, p := range paths {
		if p != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, p, want[i])
		}
	}
}

func TestCollectFrames_EmptyDir(t *testing.T) {
	paths, err := collectFrames(t.TempDir())
	if err != nil {
		t.Fatalf("collectFrames() error = %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("got %d frames from empty dir, want 0", len(paths))
	}
}

func TestLimitedWriter_KeepsTail(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: 8}

	lw.Write([]byte("0123456789abcdef"))

	if got := buf.String(); got != "89abcdef" {
		t.Errorf("limitedWriter kept %q, want tail %q", got, "89abcdef")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("0123456789", 4); got != "...6789" {
		t.Errorf("truncate long = %q, want ...6789", got)
	}
}

func TestLoadGray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame_000001.jpg")

	img := image.NewGray(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = byte(i * 4)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create frame: %v", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	f.Close()

	buf, width, height, err := LoadGray(path)
	if err != nil {
		t.Fatalf("LoadGray() error = %v", err)
	}
	if width != 8 || height != 6 {
		t.Errorf("dimensions = %dx%d, want 8x6", width, height)
	}
	if len(buf) != 48 {
		t.Errorf("buffer length = %d, want 48", len(buf))
	}
}

func TestLoadGray_MissingFile(t *testing.T) {
	if _, _, _, err := LoadGray(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Error("LoadGray() should fail for a missing file")
	}
}
