package probe

import (
	"errors"
	"testing"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "ntsc", input: "30000/1001", want: 29.97002997002997},
		{name: "integer", input: "25/1", want: 25},
		{name: "plain", input: "24", want: 24},
		{name: "zero denominator", input: "30/0", want: 0},
		{name: "empty", input: "", want: 0},
		{name: "garbage", input: "abc/def", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseFrameRate(tc.input)
			if got != tc.want {
				t.Errorf("parseFrameRate(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFromProbeOutput(t *testing.T) {
	ff := ffprobeOutput{
		Streams: []ffprobeStream{
			{CodecType: "audio", CodecName: "aac"},
			{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080, RFrameRate: "24000/1001"},
		},
		Format: ffprobeFormat{Duration: "12.5"},
	}

	file, err := fromProbeOutput("/videos/A-Roll/ceremony.mp4", ff)
	if err != nil {
		t.Fatalf("fromProbeOutput() error = %v", err)
	}

	if file.Filename != "ceremony.mp4" {
		t.Errorf("Filename = %q, want ceremony.mp4", file.Filename)
	}
	if file.Codec != "h264" {
		t.Errorf("Codec = %q, want h264 (first video stream)", file.Codec)
	}
	if file.Duration != 12.5 {
		t.Errorf("Duration = %v, want 12.5", file.Duration)
	}
	if file.Width != 1920 || file.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", file.Width, file.Height)
	}
	if file.FrameRate < 23.97 || file.FrameRate > 23.98 {
		t.Errorf("FrameRate = %v, want ~23.976", file.FrameRate)
	}
}

func TestFromProbeOutput_NoVideoStream(t *testing.T) {
	ff := ffprobeOutput{
		Streams: []ffprobeStream{{CodecType: "audio", CodecName: "aac"}},
		Format:  ffprobeFormat{Duration: "3.0"},
	}

	_, err := fromProbeOutput("/videos/audio_only.mp4", ff)

	var metaErr *MetadataError
	if !errors.As(err, &metaErr) {
		t.Fatalf("error = %v, want MetadataError", err)
	}
	if metaErr.Path != "/videos/audio_only.mp4" {
		t.Errorf("MetadataError.Path = %q", metaErr.Path)
	}
}

func TestFromProbeOutput_IncompleteStream(t *testing.T) {
	ff := ffprobeOutput{
		Streams: []ffprobeStream{{CodecType: "video", CodecName: "h264", Width: 0, Height: 1080, RFrameRate: "25/1"}},
	}

	var metaErr *MetadataError
	if _, err := fromProbeOutput("/videos/bad.mp4", ff); !errors.As(err, &metaErr) {
		t.Fatalf("error = %v, want MetadataError for zero width", err)
	}
}

func TestDirLabel(t *testing.T) {
	tests := []struct {
		name string
		root string
		path string
		want string
	}{
		{name: "subfolder", root: "/videos", path: "/videos/A-Roll/clip.mp4", want: "A-Roll"},
		{name: "nested", root: "/videos", path: "/videos/day1/B-Roll/clip.mp4", want: "day1/B-Roll"},
		{name: "root level", root: "/videos", path: "/videos/clip.mp4", want: "."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DirLabel(tc.root, tc.path)
			if got != tc.want {
				t.Errorf("DirLabel(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.want)
			}
		})
	}
}
