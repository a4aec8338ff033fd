package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type Repository interface {
	ReplaceClips(ctx context.Context, clips []*Clip) error
	ListClips(ctx context.Context) ([]*Clip, error)
	GetClip(ctx context.Context, id string) (*Clip, error)
	UpdateSelection(ctx context.Context, id string, selected bool) error
	UpdateTrim(ctx context.Context, id string, in, out float64) error

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id, stage string, current, total int) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const clipColumns = `id, path, filename, dir_label, duration, width, height, frame_rate, codec,
	focus_score, overall_score, selected, in_point, out_point, thumbnail, poor_segments, created_at`

// ReplaceClips swaps the whole clip library in one transaction so a
// fresh analysis never leaves a mix of old and new rows behind.
func (r *SQLiteRepository) ReplaceClips(ctx context.Context, clips []*Clip) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM clips"); err != nil {
		return err
	}
	for _, c := range clips {
		segments, err := json.Marshal(c.PoorSegments)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO clips (`+clipColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.Path, c.Filename, c.DirLabel, c.Duration, c.Width, c.Height, c.FrameRate, c.Codec,
			c.FocusScore, c.OverallScore, boolToInt(c.Selected), c.InPoint, c.OutPoint, c.Thumbnail,
			string(segments), c.CreatedAt.Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListClips(ctx context.Context) ([]*Clip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+clipColumns+` FROM clips ORDER BY dir_label, filename
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

func (r *SQLiteRepository) GetClip(ctx context.Context, id string) (*Clip, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+clipColumns+` FROM clips WHERE id = ?
	`, id)
	c, err := scanClip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClip(row rowScanner) (*Clip, error) {
	var c Clip
	var selected int
	var segments, createdAt string
	err := row.Scan(&c.ID, &c.Path, &c.Filename, &c.DirLabel, &c.Duration, &c.Width, &c.Height,
		&c.FrameRate, &c.Codec, &c.FocusScore, &c.OverallScore, &selected, &c.InPoint, &c.OutPoint,
		&c.Thumbnail, &segments, &createdAt)
	if err != nil {
		return nil, err
	}
	c.Selected = selected == 1
	if segments != "" && segments != "[]" && segments != "null" {
		if err := json.Unmarshal([]byte(segments), &c.PoorSegments); err != nil {
			return nil, fmt.Errorf("clip %s has corrupt poor_segments: %w", c.ID, err)
		}
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

func (r *SQLiteRepository) UpdateSelection(ctx context.Context, id string, selected bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE clips SET selected = ? WHERE id = ?", boolToInt(selected), id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *SQLiteRepository) UpdateTrim(ctx context.Context, id string, in, out float64) error {
	if in < 0 || out <= in {
		return fmt.Errorf("invalid trim range %v..%v", in, out)
	}
	res, err := r.db.ExecContext(ctx, "UPDATE clips SET in_point = ?, out_point = ? WHERE id = ?", in, out, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("clip %s not found", id)
	}
	return nil
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, job *Job) error {
	paths, err := json.Marshal(job.Paths)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, root, paths, progress_stage, progress_current, progress_total, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Status, job.Root, string(paths), job.Stage, job.Current, job.Total, job.Error,
		job.CreatedAt.Format(time.RFC3339), job.UpdatedAt.Format(time.RFC3339))
	return err
}

const jobColumns = `id, status, root, paths, progress_stage, progress_current, progress_total, error, created_at, updated_at`

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	var paths, createdAt, updatedAt string
	err := row.Scan(&j.ID, &j.Status, &j.Root, &paths, &j.Stage, &j.Current, &j.Total, &j.Error, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if paths != "" {
		if err := json.Unmarshal([]byte(paths), &j.Paths); err != nil {
			return nil, fmt.Errorf("job %s has corrupt paths: %w", j.ID, err)
		}
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at ASC
	`, JobStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, errorMsg, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id, stage string, current, total int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress_stage = ?, progress_current = ?, progress_total = ?, updated_at = ? WHERE id = ?
	`, stage, current, total, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
