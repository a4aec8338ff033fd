package api

import (
	"time"

	"github.com/clipcull/clipcull-agent/internal/store"
	"github.com/clipcull/clipcull-agent/internal/timeline"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	State   string `json:"state"`
}

type AnalyzeRequest struct {
	Root  string   `json:"root"`
	Paths []string `json:"paths,omitempty"`
}

type AnalyzeResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Root      string `json:"root"`
	Stage     string `json:"stage,omitempty"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func JobToResponse(j *store.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Status:    j.Status,
		Root:      j.Root,
		Stage:     j.Stage,
		Current:   j.Current,
		Total:     j.Total,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ClipsResponse struct {
	Clips []*store.Clip `json:"clips"`
}

type SelectionRequest struct {
	ClipID   string `json:"clip_id"`
	Selected bool   `json:"selected"`
}

type TrimRequest struct {
	ClipID   string  `json:"clip_id"`
	InPoint  float64 `json:"in_point"`
	OutPoint float64 `json:"out_point"`
}

type ExportRequest struct {
	Format    string            `json:"format"`
	OutputDir string            `json:"output_dir"`
	Name      string            `json:"name,omitempty"`
	FrameRate float64           `json:"frame_rate,omitempty"`
	Width     int               `json:"width,omitempty"`
	Height    int               `json:"height,omitempty"`
	All       bool              `json:"all,omitempty"` // include unselected clips
	Markers   []timeline.Marker `json:"markers,omitempty"`
}

type ExportResponse struct {
	Success   bool   `json:"success"`
	Path      string `json:"path,omitempty"`
	Message   string `json:"message,omitempty"`
	ClipCount int    `json:"clip_count,omitempty"`
}
