package timeline

import (
	"errors"
	"testing"

	"github.com/clipcull/clipcull-agent/internal/timecode"
)

func threeClipDoc() *Document {
	return &Document{
		Clips: []Clip{
			{Path: "/videos/a.mp4", InPoint: 0, OutPoint: 5, Score: 92},
			{Path: "/videos/b.mp4", InPoint: 0, OutPoint: 3, Score: 88},
			{Path: "/videos/c.mp4", InPoint: 0, OutPoint: 7, Score: 85},
		},
		Settings: Settings{FrameRate: 24, Width: 1920, Height: 1080},
	}
}

func TestValidate(t *testing.T) {
	doc := threeClipDoc()
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate_UnsupportedFrameRate(t *testing.T) {
	doc := threeClipDoc()
	doc.Settings.FrameRate = 48

	err := doc.Validate()
	var rateErr *timecode.UnsupportedFrameRateError
	if !errors.As(err, &rateErr) {
		t.Fatalf("Validate() error = %v, want UnsupportedFrameRateError", err)
	}
}

func TestValidate_BadResolution(t *testing.T) {
	doc := threeClipDoc()
	doc.Settings.Height = 0

	if err := doc.Validate(); err == nil {
		t.Error("Validate() should reject zero height")
	}
}

func TestValidate_InvalidClipSpan(t *testing.T) {
	doc := threeClipDoc()
	doc.Clips[1].InPoint = 3
	doc.Clips[1].OutPoint = 3

	if err := doc.Validate(); err == nil {
		t.Error("Validate() should reject InPoint >= OutPoint")
	}
}

func TestValidate_EmptyClipListOK(t *testing.T) {
	doc := &Document{Settings: Settings{FrameRate: 25, Width: 1920, Height: 1080}}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate() error = %v, empty clip list should be valid", err)
	}
}

func TestLay_SequentialOffsets(t *testing.T) {
	layout := threeClipDoc().Lay()

	wantOffsets := []float64{0, 5, 8}
	if len(layout.Clips) != 3 {
		t.Fatalf("got %d placed clips, want 3", len(layout.Clips))
	}
	for i, pc := range layout.Clips {
		if pc.Offset != wantOffsets[i] {
			t.Errorf("clip %d offset = %g, want %g", i, pc.Offset, wantOffsets[i])
		}
	}
	if layout.Duration != 15 {
		t.Errorf("total duration = %g, want 15", layout.Duration)
	}
}

func TestLay_DeduplicatesResources(t *testing.T) {
	doc := &Document{
		Clips: []Clip{
			{Path: "/videos/a.mp4", InPoint: 0, OutPoint: 2},
			{Path: "/videos/b.mp4", InPoint: 1, OutPoint: 3},
			{Path: "/videos/a.mp4", InPoint: 4, OutPoint: 6},
		},
		Settings: Settings{FrameRate: 30, Width: 1280, Height: 720},
	}

	layout := doc.Lay()

	if len(layout.Resources) != 2 {
		t.Fatalf("got %d resources, want 2: %+v", len(layout.Resources), layout.Resources)
	}
	if layout.Resources[0].Path != "/videos/a.mp4" || layout.Resources[1].Path != "/videos/b.mp4" {
		t.Errorf("resources in wrong order: %+v", layout.Resources)
	}
	if layout.Clips[0].Resource != 0 || layout.Clips[1].Resource != 1 || layout.Clips[2].Resource != 0 {
		t.Errorf("clip resource references wrong: %+v", layout.Clips)
	}
}

func TestLay_MarkerAttachesToSpanClip(t *testing.T) {
	doc := threeClipDoc()
	doc.Markers = []Marker{
		{Time: 6.5, Name: "Music Beat", Color: "blue"},
		{Time: 20.0, Name: "Outside"},
	}

	layout := doc.Lay()

	// marker at 6.5s falls in the second clip's span 5-8s
	second := layout.Clips[1]
	if len(second.Markers) != 1 {
		t.Fatalf("second clip has %d markers, want 1", len(second.Markers))
	}
	if second.Markers[0].Local != 1.5 {
		t.Errorf("marker local time = %g, want 1.5", second.Markers[0].Local)
	}
	if second.Markers[0].Name != "Music Beat" {
		t.Errorf("marker name = %q", second.Markers[0].Name)
	}

	// marker past the timeline end is dropped
	for i, pc := range layout.Clips {
		for _, m := range pc.Markers {
			if m.Name == "Outside" {
				t.Errorf("out-of-span marker attached to clip %d", i)
			}
		}
	}
}

func TestLay_MarkerOnBoundaryGoesToFirstClip(t *testing.T) {
	doc := threeClipDoc()
	doc.Markers = []Marker{{Time: 5.0, Name: "Boundary"}}

	layout := doc.Lay()

	if len(layout.Clips[0].Markers) != 1 {
		t.Errorf("boundary marker should attach to the first matching clip, got %+v", layout.Clips)
	}
	if len(layout.Clips[1].Markers) != 0 {
		t.Errorf("boundary marker attached twice")
	}
}

func TestLay_EmptyDocument(t *testing.T) {
	doc := &Document{Settings: Settings{FrameRate: 24, Width: 1920, Height: 1080}}
	layout := doc.Lay()

	if len(layout.Clips) != 0 || len(layout.Resources) != 0 || layout.Duration != 0 {
		t.Errorf("empty document layout = %+v", layout)
	}
}
