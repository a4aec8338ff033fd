// Package timeline holds the shared timeline data model consumed by
// every exporter, plus the format-agnostic layout pipeline: resource
// deduplication, sequential clip placement and marker attachment.
package timeline

import (
	"fmt"

	"github.com/clipcull/clipcull-agent/internal/timecode"
)

// NoScore marks a clip without score metadata.
const NoScore = -1

// Clip is one timeline entry referencing a span of a source file.
type Clip struct {
	Path     string  `json:"path"`
	InPoint  float64 `json:"in_point"`  // seconds
	OutPoint float64 `json:"out_point"` // seconds
	Score    int     `json:"score"`     // 0-100, NoScore when absent
	Category string  `json:"category,omitempty"`
}

// Duration returns the rendered duration in seconds.
func (c Clip) Duration() float64 {
	return c.OutPoint - c.InPoint
}

// Marker is a named point on the rendered timeline.
type Marker struct {
	Time  float64 `json:"time"` // absolute seconds on the timeline
	Name  string  `json:"name"`
	Color string  `json:"color,omitempty"` // red, orange, yellow, green, blue, purple, pink
	Note  string  `json:"note,omitempty"`
}

// Settings are the export sequence parameters.
type Settings struct {
	FrameRate float64 `json:"frame_rate"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// Document is the immutable input to an exporter: ordered clips,
// markers and one settings block.
type Document struct {
	Name     string   `json:"name,omitempty"`
	Clips    []Clip   `json:"clips"`
	Markers  []Marker `json:"markers,omitempty"`
	Settings Settings `json:"settings"`
}

// Validate checks the document before any serialization: the frame rate
// must be supported, resolution positive, and every clip must satisfy
// 0 <= InPoint < OutPoint. An empty clip list is valid.
func (d *Document) Validate() error {
	if _, err := timecode.New(d.Settings.FrameRate); err != nil {
		return err
	}
	if d.Settings.Width <= 0 || d.Settings.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", d.Settings.Width, d.Settings.Height)
	}
	for i, c := range d.Clips {
		if c.Path == "" {
			return fmt.Errorf("clip %d: empty path", i)
		}
		if c.InPoint < 0 || c.InPoint >= c.OutPoint {
			return fmt.Errorf("clip %d: invalid span %g-%g", i, c.InPoint, c.OutPoint)
		}
	}
	return nil
}

// Converter returns the timecode converter for the document's rate.
// Validate must have succeeded first.
func (d *Document) Converter() (*timecode.Converter, error) {
	return timecode.New(d.Settings.FrameRate)
}

// Resource is a deduplicated reference to a source media file.
type Resource struct {
	Index int // position in Layout.Resources
	Path  string
}

// LocalMarker is a marker attached to a clip, with its time mapped to
// seconds since the clip's start on the timeline.
type LocalMarker struct {
	Marker
	Local float64
}

// PlacedClip is a clip with its computed timeline position and attached
// markers.
type PlacedClip struct {
	Clip
	Resource int     // index into Layout.Resources
	Offset   float64 // seconds from timeline start
	Markers  []LocalMarker
}

// Layout is the format-agnostic rendering of a document: clips placed
// sequentially on a single track with no gaps or overlaps.
type Layout struct {
	Resources []Resource
	Clips     []PlacedClip
	Duration  float64 // total rendered seconds
}

// Lay computes the shared layout. Source files are deduplicated into
// resources keyed by path in first-appearance order; each clip's offset
// is the running sum of prior rendered durations. Markers attach to the
// first clip whose rendered span [offset, offset+duration] contains
// their time; markers outside every span are dropped silently.
func (d *Document) Lay() Layout {
	layout := Layout{}

	resourceIndex := make(map[string]int)
	offset := 0.0

	for _, c := range d.Clips {
		idx, ok := resourceIndex[c.Path]
		if !ok {
			idx = len(layout.Resources)
			resourceIndex[c.Path] = idx
			layout.Resources = append(layout.Resources, Resource{Index: idx, Path: c.Path})
		}

		layout.Clips = append(layout.Clips, PlacedClip{
			Clip:     c,
			Resource: idx,
			Offset:   offset,
		})
		offset += c.Duration()
	}
	layout.Duration = offset

	for _, m := range d.Markers {
		for i := range layout.Clips {
			pc := &layout.Clips[i]
			if m.Time >= pc.Offset && m.Time <= pc.Offset+pc.Duration() {
				pc.Markers = append(pc.Markers, LocalMarker{Marker: m, Local: m.Time - pc.Offset})
				break
			}
		}
	}

	return layout
}
