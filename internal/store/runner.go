package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/clipcull/clipcull-agent/internal/analyze"
)

// BatchAnalyzer is the slice of the analyzer the runner needs.
type BatchAnalyzer interface {
	AnalyzeBatch(ctx context.Context, root string, paths []string, progress func(analyze.Progress)) ([]analyze.Clip, error)
}

// Runner polls for pending jobs and executes them one at a time.
// Analysis is decoder-bound, so there is nothing to gain from running
// jobs concurrently against the same disk.
type Runner struct {
	repo         Repository
	analyzer     BatchAnalyzer
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(repo Repository, analyzer BatchAnalyzer, logger *slog.Logger) *Runner {
	return &Runner{
		repo:         repo,
		analyzer:     analyzer,
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

// Start blocks until ctx is canceled, picking up pending jobs as they
// appear.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "root", job.Root)

	if err := r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, ""); err != nil {
		r.logger.Error("failed to mark job running", "job_id", job.ID, "error", err)
		return
	}

	if err := r.executeJob(ctx, job); err != nil {
		if ctx.Err() != nil {
			// Shutdown mid-job; the restart sweep in the db layer
			// will mark it failed. Don't race it here.
			return
		}
		r.logger.Error("job failed", "job_id", job.ID, "error", err)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, err.Error())
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	r.logger.Info("job completed", "job_id", job.ID)
}

func (r *Runner) executeJob(ctx context.Context, job *Job) error {
	paths := job.Paths
	if len(paths) == 0 {
		r.repo.UpdateJobProgress(ctx, job.ID, string(analyze.StageScanning), 0, 0)
		var err error
		paths, err = ScanVideos(job.Root)
		if err != nil {
			return err
		}
	}
	r.repo.UpdateJobProgress(ctx, job.ID, string(analyze.StageAnalyzing), 0, len(paths))

	clips, err := r.analyzer.AnalyzeBatch(ctx, job.Root, paths, func(p analyze.Progress) {
		if err := r.repo.UpdateJobProgress(ctx, job.ID, string(p.Stage), p.Current, p.Total); err != nil {
			r.logger.Warn("failed to persist progress", "job_id", job.ID, "error", err)
		}
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	stored := make([]*Clip, len(clips))
	for i, c := range clips {
		stored[i] = &Clip{ID: NewID(), Clip: c, CreatedAt: now}
	}
	return r.repo.ReplaceClips(ctx, stored)
}
