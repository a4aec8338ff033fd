// Package analyze drives the per-video scoring pipeline: probe the
// container, sample frames at a fixed interval, score each frame for
// focus and fold the results into one clip record per video.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/clipcull/clipcull-agent/internal/focus"
	"github.com/clipcull/clipcull-agent/internal/frames"
	"github.com/clipcull/clipcull-agent/internal/probe"
)

const (
	defaultSampleInterval  = 1.0
	defaultSelectThreshold = 50

	// Frames under poorThreshold for at least poorMinDuration seconds
	// form a flagged segment on the clip.
	poorThreshold   = 30
	poorMinDuration = 2.0
)

// Options tunes a batch analysis run.
type Options struct {
	// SampleInterval is the spacing between scored frames in seconds.
	SampleInterval float64
	// Workers bounds concurrent frame scoring. Frame extraction stays
	// sequential; ffmpeg already saturates the decoder.
	Workers int
	// SelectThreshold is the focus score at or above which a clip
	// starts out selected.
	SelectThreshold int
	// ThumbnailDir receives one preview image per clip when set.
	ThumbnailDir string
}

// Analyzer runs the scoring pipeline over batches of videos.
type Analyzer struct {
	prober  probe.Prober
	sampler frames.Sampler
	scorer  *focus.Scorer
	thumbs  Thumbnailer
	log     *slog.Logger
	opts    Options
}

// New wires an analyzer. thumbs may be nil to skip preview images.
func New(prober probe.Prober, sampler frames.Sampler, scorer *focus.Scorer, thumbs Thumbnailer, logger *slog.Logger, opts Options) *Analyzer {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = defaultSampleInterval
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.SelectThreshold <= 0 {
		opts.SelectThreshold = defaultSelectThreshold
	}
	return &Analyzer{
		prober:  prober,
		sampler: sampler,
		scorer:  scorer,
		thumbs:  thumbs,
		log:     logger,
		opts:    opts,
	}
}

// AnalyzeBatch analyzes each video in order and returns the clips that
// survived. A video that cannot be probed or decoded is logged and
// skipped; only cancellation aborts the batch. Progress events fire
// once per video plus a final complete event, and progress may be nil.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, root string, paths []string, progress func(Progress)) ([]Clip, error) {
	emit := func(p Progress) {
		if progress != nil {
			progress(p)
		}
	}

	total := len(paths)
	clips := make([]Clip, 0, total)
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emit(Progress{
			Stage:    StageAnalyzing,
			Current:  i + 1,
			Total:    total,
			Filename: filepath.Base(path),
		})
		clip, err := a.analyzeOne(ctx, root, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.log.Warn("video skipped", "path", path, "error", err)
			continue
		}
		clips = append(clips, *clip)
	}

	emit(Progress{Stage: StageComplete, Current: total, Total: total})
	return clips, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, root, path string) (*Clip, error) {
	vf, err := a.prober.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "clipcull-frames-")
	if err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	framePaths, err := a.sampler.Sample(ctx, path, tmpDir, a.opts.SampleInterval)
	if err != nil {
		return nil, err
	}
	if len(framePaths) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", path)
	}

	score, series, times, err := a.scoreFrames(ctx, framePaths)
	if err != nil {
		return nil, err
	}

	clip := &Clip{
		VideoFile:    *vf,
		FocusScore:   score,
		OverallScore: score,
		Selected:     score >= a.opts.SelectThreshold,
		InPoint:      0,
		OutPoint:     vf.Duration,
		PoorSegments: focus.PoorSegments(series, times, poorThreshold, poorMinDuration),
	}
	clip.DirLabel = probe.DirLabel(root, path)

	if a.thumbs != nil && a.opts.ThumbnailDir != "" {
		thumbPath := filepath.Join(a.opts.ThumbnailDir, uuid.NewString()+".jpg")
		if err := a.thumbs.Thumbnail(ctx, path, thumbPath, vf.Duration/2); err != nil {
			a.log.Warn("thumbnail failed", "path", path, "error", err)
		} else {
			clip.Thumbnail = thumbPath
		}
	}

	a.log.Info("video analyzed",
		"path", path,
		"score", score,
		"frames", len(framePaths),
		"selected", clip.Selected)
	return clip, nil
}

// scoreFrames scores extracted frames concurrently and returns the
// rounded mean plus the per-frame series with its sample timestamps.
// Frames that fail to decode are dropped; the call errors only when
// nothing scored at all.
func (a *Analyzer) scoreFrames(ctx context.Context, paths []string) (int, []int, []float64, error) {
	scores := make([]int, len(paths))
	scored := make([]bool, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < a.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				buf, width, height, err := frames.LoadGray(paths[i])
				if err != nil {
					a.log.Debug("frame load failed", "path", paths[i], "error", err)
					continue
				}
				s, err := a.scorer.Score(buf, width, height)
				if err != nil {
					a.log.Debug("frame score failed", "path", paths[i], "error", err)
					continue
				}
				scores[i] = s
				scored[i] = true
			}
		}()
	}

	canceled := false
	for i := range paths {
		select {
		case <-ctx.Done():
			canceled = true
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()
	if canceled {
		return 0, nil, nil, ctx.Err()
	}

	series := make([]int, 0, len(scores))
	times := make([]float64, 0, len(scores))
	sum := 0
	for i := range scores {
		if scored[i] {
			series = append(series, scores[i])
			times = append(times, float64(i)*a.opts.SampleInterval)
			sum += scores[i]
		}
	}
	if len(series) == 0 {
		return 0, nil, nil, fmt.Errorf("no scoreable frames among %d extracted", len(paths))
	}
	mean := int(math.Round(float64(sum) / float64(len(series))))
	return mean, series, times, nil
}
