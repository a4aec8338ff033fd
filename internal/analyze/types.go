package analyze

import (
	"github.com/clipcull/clipcull-agent/internal/focus"
	"github.com/clipcull/clipcull-agent/internal/probe"
)

// Stage identifies where a batch analysis currently is.
type Stage string

const (
	StageScanning   Stage = "scanning"
	StageExtracting Stage = "extracting"
	StageAnalyzing  Stage = "analyzing"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// Progress is one analysis status event. Current counts videos, not
// frames; Filename is the video being worked when a stage names one.
type Progress struct {
	Stage    Stage  `json:"stage"`
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Clip is one analyzed video with its score and cull state. The trim
// points default to the full clip; the overall score currently equals
// the focus score and exists so other signals can fold in later.
type Clip struct {
	probe.VideoFile
	FocusScore   int     `json:"focus_score"`
	OverallScore int     `json:"overall_score"`
	Selected     bool    `json:"selected"`
	InPoint      float64 `json:"in_point"`
	OutPoint     float64 `json:"out_point"`
	Thumbnail    string  `json:"thumbnail,omitempty"`
	// PoorSegments are contiguous spans that stayed out of focus long
	// enough to be worth flagging in a review UI.
	PoorSegments []focus.Segment `json:"poor_segments,omitempty"`
}
