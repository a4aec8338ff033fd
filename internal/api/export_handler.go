package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/clipcull/clipcull-agent/internal/export"
	"github.com/clipcull/clipcull-agent/internal/store"
	"github.com/clipcull/clipcull-agent/internal/timeline"
)

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		format, err := export.ParseFormat(req.Format)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		stored, err := cfg.Repository.ListClips(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		selected := make([]*store.Clip, 0, len(stored))
		for _, c := range stored {
			if req.All || c.Selected {
				selected = append(selected, c)
			}
		}
		if len(selected) == 0 {
			WriteJSON(w, http.StatusUnprocessableEntity, ExportResponse{
				Success: false,
				Message: "no clips to export",
			})
			return
		}

		doc := buildDocument(&req, selected)
		name := doc.Name

		exporter, err := export.New(format)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		outputPath := filepath.Join(req.OutputDir, export.SanitizeName(name)+export.Extension(format))
		written, err := exporter.Export(doc, outputPath)
		if err != nil {
			var we *export.WriteError
			status := http.StatusUnprocessableEntity
			if errors.As(err, &we) {
				status = http.StatusInternalServerError
			}
			WriteJSON(w, status, ExportResponse{Success: false, Message: err.Error()})
			return
		}

		WriteJSON(w, http.StatusOK, ExportResponse{
			Success:   true,
			Path:      written,
			ClipCount: len(doc.Clips),
		})
	}
}

// buildDocument turns the stored selection into a timeline document.
// Sequence settings come from the request when supplied, otherwise
// from the first clip's probed metadata.
func buildDocument(req *ExportRequest, clips []*store.Clip) *timeline.Document {
	name := req.Name
	if name == "" {
		name = "Selects"
	}

	settings := timeline.Settings{
		FrameRate: req.FrameRate,
		Width:     req.Width,
		Height:    req.Height,
	}
	if settings.FrameRate <= 0 {
		settings.FrameRate = clips[0].FrameRate
	}
	if settings.Width <= 0 || settings.Height <= 0 {
		settings.Width = clips[0].Width
		settings.Height = clips[0].Height
	}

	doc := &timeline.Document{
		Name:     name,
		Settings: settings,
		Markers:  req.Markers,
	}
	for _, c := range clips {
		out := c.OutPoint
		if out <= c.InPoint {
			out = c.Duration
		}
		doc.Clips = append(doc.Clips, timeline.Clip{
			Path:     c.Path,
			InPoint:  c.InPoint,
			OutPoint: out,
			Score:    c.OverallScore,
			Category: c.DirLabel,
		})
	}
	return doc
}
