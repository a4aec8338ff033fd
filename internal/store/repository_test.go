package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipcull/clipcull-agent/internal/analyze"
	"github.com/clipcull/clipcull-agent/internal/db"
	"github.com/clipcull/clipcull-agent/internal/focus"
	"github.com/clipcull/clipcull-agent/internal/probe"
)

func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewRepository(database.Conn())
}

func testClip(path string, score int) *Clip {
	return &Clip{
		ID: NewID(),
		Clip: analyze.Clip{
			VideoFile: probe.VideoFile{
				Path:      path,
				Filename:  filepath.Base(path),
				DirLabel:  "ceremony",
				Duration:  12.5,
				Width:     1920,
				Height:    1080,
				FrameRate: 25,
				Codec:     "h264",
			},
			FocusScore:   score,
			OverallScore: score,
			Selected:     score >= 50,
			InPoint:      0,
			OutPoint:     12.5,
			PoorSegments: []focus.Segment{{Start: 3, End: 6}},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestReplaceClipsAndList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := []*Clip{testClip("/media/a.mp4", 80), testClip("/media/b.mp4", 20)}
	if err := repo.ReplaceClips(ctx, first); err != nil {
		t.Fatalf("ReplaceClips: %v", err)
	}

	clips, err := repo.ListClips(ctx)
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("got %d clips, want 2", len(clips))
	}
	if clips[0].Filename != "a.mp4" {
		t.Errorf("clips not ordered by filename: %s", clips[0].Filename)
	}
	if !clips[0].Selected || clips[1].Selected {
		t.Error("selection flags not round-tripped")
	}
	if clips[0].Duration != 12.5 || clips[0].FrameRate != 25 {
		t.Errorf("metadata not round-tripped: %+v", clips[0].VideoFile)
	}
	if len(clips[0].PoorSegments) != 1 || clips[0].PoorSegments[0].End != 6 {
		t.Errorf("poor segments not round-tripped: %+v", clips[0].PoorSegments)
	}

	// A second replace fully supersedes the first batch.
	second := []*Clip{testClip("/media/c.mp4", 60)}
	if err := repo.ReplaceClips(ctx, second); err != nil {
		t.Fatalf("ReplaceClips (second): %v", err)
	}
	clips, err = repo.ListClips(ctx)
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if len(clips) != 1 || clips[0].Filename != "c.mp4" {
		t.Fatalf("replace did not supersede: %d clips", len(clips))
	}
}

func TestGetClipMissing(t *testing.T) {
	repo := setupTestRepo(t)
	c, err := repo.GetClip(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if c != nil {
		t.Fatal("expected nil for missing clip")
	}
}

func TestUpdateSelection(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	clip := testClip("/media/a.mp4", 80)
	if err := repo.ReplaceClips(ctx, []*Clip{clip}); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateSelection(ctx, clip.ID, false); err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	got, err := repo.GetClip(ctx, clip.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Selected {
		t.Error("selection not cleared")
	}

	if err := repo.UpdateSelection(ctx, "missing", true); err == nil {
		t.Error("expected error for unknown clip")
	}
}

func TestUpdateTrim(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	clip := testClip("/media/a.mp4", 80)
	if err := repo.ReplaceClips(ctx, []*Clip{clip}); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateTrim(ctx, clip.ID, 2.5, 10); err != nil {
		t.Fatalf("UpdateTrim: %v", err)
	}
	got, err := repo.GetClip(ctx, clip.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.InPoint != 2.5 || got.OutPoint != 10 {
		t.Errorf("trim = %v..%v, want 2.5..10", got.InPoint, got.OutPoint)
	}

	if err := repo.UpdateTrim(ctx, clip.ID, 5, 5); err == nil {
		t.Error("expected error for empty trim range")
	}
	if err := repo.UpdateTrim(ctx, clip.ID, -1, 5); err == nil {
		t.Error("expected error for negative in point")
	}
}

func TestJobLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	job := &Job{
		ID:        NewID(),
		Status:    JobStatusPending,
		Root:      "/media",
		Paths:     []string{"/media/a.mp4", "/media/b.mp4"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	pending, err := repo.ListPendingJobs(ctx)
	if err != nil {
		t.Fatalf("ListPendingJobs: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != job.ID {
		t.Fatalf("pending = %+v", pending)
	}
	if len(pending[0].Paths) != 2 {
		t.Errorf("paths not round-tripped: %v", pending[0].Paths)
	}

	if err := repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, ""); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateJobProgress(ctx, job.ID, "analyzing", 1, 2); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != JobStatusRunning || got.Stage != "analyzing" || got.Current != 1 || got.Total != 2 {
		t.Errorf("job = %+v", got)
	}

	pending, err = repo.ListPendingJobs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Error("running job still listed as pending")
	}

	jobs, err := repo.ListJobs(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Errorf("ListJobs = %d entries", len(jobs))
	}
}

func TestGetJobMissing(t *testing.T) {
	repo := setupTestRepo(t)
	j, err := repo.GetJob(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if j != nil {
		t.Fatal("expected nil for missing job")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	v, err := repo.GetConfig(ctx, "threshold")
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Errorf("unset key = %q", v)
	}

	if err := repo.SetConfig(ctx, "threshold", "40"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetConfig(ctx, "threshold", "55"); err != nil {
		t.Fatal(err)
	}
	v, err = repo.GetConfig(ctx, "threshold")
	if err != nil {
		t.Fatal(err)
	}
	if v != "55" {
		t.Errorf("got %q, want 55", v)
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.mp4", true},
		{"a.MOV", true},
		{"a.mkv", true},
		{"a.MTS", true},
		{"a.jpg", false},
		{"a.xml", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsVideoFile(tt.name); got != tt.want {
			t.Errorf("IsVideoFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestScanVideos(t *testing.T) {
	root := t.TempDir()
	mustWrite := func(rel string) {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("ceremony/b.mp4")
	mustWrite("ceremony/a.mov")
	mustWrite("reception/c.mkv")
	mustWrite("reception/notes.txt")
	mustWrite(".Trashes/d.mp4")

	paths, err := ScanVideos(root)
	if err != nil {
		t.Fatalf("ScanVideos: %v", err)
	}
	want := []string{
		filepath.Join(root, "ceremony", "a.mov"),
		filepath.Join(root, "ceremony", "b.mp4"),
		filepath.Join(root, "reception", "c.mkv"),
	}
	if len(paths) != len(want) {
		t.Fatalf("got %d paths: %v", len(paths), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}
