package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipcull/clipcull-agent/internal/store"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Post("/analyze", analyzeHandler(cfg))
	r.Get("/jobs", listJobsHandler(cfg))
	r.Get("/jobs/{id}", getJobHandler(cfg))
	r.Get("/clips", listClipsHandler(cfg))
	r.Patch("/clips/selection", selectionHandler(cfg))
	r.Patch("/clips/trim", trimHandler(cfg))
	r.Post("/export", exportHandler(cfg))

	if cfg.ThumbnailDir != "" {
		fs := http.StripPrefix("/thumbnails/", http.FileServer(http.Dir(cfg.ThumbnailDir)))
		r.Get("/thumbnails/*", fs.ServeHTTP)
	}

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := "idle"
		if cfg.Runner != nil {
			if cfg.Runner.IsPaused() {
				state = "paused"
			}
			jobs, err := cfg.Repository.ListJobs(r.Context(), 10)
			if err == nil {
				for _, j := range jobs {
					if j.Status == store.JobStatusRunning {
						state = "analyzing"
						break
					}
				}
			}
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
			State:   state,
		})
	}
}

func analyzeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Root == "" && len(req.Paths) == 0 {
			WriteError(w, http.StatusBadRequest, "root or paths is required", "BAD_REQUEST")
			return
		}
		if req.Root != "" {
			info, err := os.Stat(req.Root)
			if err != nil || !info.IsDir() {
				WriteError(w, http.StatusBadRequest, "root is not a directory", "BAD_REQUEST")
				return
			}
		}

		now := time.Now().UTC()
		job := &store.Job{
			ID:        store.NewID(),
			Status:    store.JobStatusPending,
			Root:      req.Root,
			Paths:     req.Paths,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := cfg.Repository.CreateJob(r.Context(), job); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusAccepted, AnalyzeResponse{JobID: job.ID})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		resp := JobsResponse{Jobs: make([]JobResponse, 0, len(jobs))}
		for _, j := range jobs {
			resp.Jobs = append(resp.Jobs, JobToResponse(j))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Repository.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips, err := cfg.Repository.ListClips(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if clips == nil {
			clips = []*store.Clip{}
		}
		WriteJSON(w, http.StatusOK, ClipsResponse{Clips: clips})
	}
}

func selectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.ClipID == "" {
			WriteError(w, http.StatusBadRequest, "clip_id is required", "BAD_REQUEST")
			return
		}
		if err := cfg.Repository.UpdateSelection(r.Context(), req.ClipID, req.Selected); err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func trimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.ClipID == "" {
			WriteError(w, http.StatusBadRequest, "clip_id is required", "BAD_REQUEST")
			return
		}
		if req.InPoint < 0 || req.OutPoint <= req.InPoint {
			WriteError(w, http.StatusBadRequest, "in_point must be >= 0 and < out_point", "BAD_REQUEST")
			return
		}
		if err := cfg.Repository.UpdateTrim(r.Context(), req.ClipID, req.InPoint, req.OutPoint); err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
