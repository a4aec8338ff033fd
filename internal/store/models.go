// Package store persists analyzed clips and analysis jobs in sqlite
// and runs the background job loop that feeds the analyzer.
package store

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipcull/clipcull-agent/internal/analyze"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Clip is one analyzed video as stored in the library.
type Clip struct {
	ID string `json:"id"`
	analyze.Clip
	CreatedAt time.Time `json:"created_at"`
}

// Job is one queued analysis request. Paths may be empty, in which
// case the runner scans Root for videos when the job starts.
type Job struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Root      string    `json:"root"`
	Paths     []string  `json:"paths,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}

var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".mkv": true,
	".mts": true,
	".m4v": true,
	".avi": true,
}

// IsVideoFile reports whether the filename has a recognized video
// container extension.
func IsVideoFile(filename string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ScanVideos walks root and returns every video file path, sorted.
// Hidden directories are skipped; camera cards love to hide sidecar
// trees in them.
func ScanVideos(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsVideoFile(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
