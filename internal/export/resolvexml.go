package export

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/clipcull/clipcull-agent/internal/timeline"
)

// ResolveExporter renders a document as xmeml version 4 for DaVinci
// Resolve. Unlike the Premiere dialect it carries plain frame counts
// only, wrapped in a project element Resolve uses for bin placement.
type ResolveExporter struct{}

type resolveDocument struct {
	XMLName xml.Name       `xml:"xmeml"`
	Version string         `xml:"version,attr"`
	Project resolveProject `xml:"project"`
}

type resolveProject struct {
	Name     string          `xml:"name"`
	Children resolveChildren `xml:"children"`
}

type resolveChildren struct {
	Sequence resolveSequence `xml:"sequence"`
}

type resolveSequence struct {
	Name     string       `xml:"name"`
	Duration int          `xml:"duration"`
	Rate     pproRate     `xml:"rate"`
	Media    resolveMedia `xml:"media"`
	Timecode pproTimecode `xml:"timecode"`
}

type resolveMedia struct {
	Video resolveVideo `xml:"video"`
}

type resolveVideo struct {
	Format pproVideoFormat `xml:"format"`
	Track  resolveTrack    `xml:"track"`
}

type resolveTrack struct {
	Clips []resolveClipItem `xml:"clipitem"`
}

type resolveClipItem struct {
	ID       string       `xml:"id,attr"`
	Name     string       `xml:"name"`
	Enabled  string       `xml:"enabled"`
	Duration int          `xml:"duration"`
	Rate     pproRate     `xml:"rate"`
	Start    int          `xml:"start"`
	End      int          `xml:"end"`
	In       int          `xml:"in"`
	Out      int          `xml:"out"`
	File     *pproFile    `xml:"file"`
	Markers  []pproMarker `xml:"marker"`
	Comments string       `xml:"comments>mastercomment1,omitempty"`
}

func (e *ResolveExporter) Export(doc *timeline.Document, outputPath string) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", err
	}
	conv, err := doc.Converter()
	if err != nil {
		return "", err
	}
	layout := doc.Lay()

	rate := pproRate{Timebase: conv.Timebase(), NTSC: "FALSE"}
	displayFormat := "NDF"
	if conv.DropFrame() {
		rate.NTSC = "TRUE"
		displayFormat = "DF"
	}

	name := doc.Name
	if name == "" {
		name = "Selects"
	}

	seq := resolveSequence{
		Name:     SanitizeName(name),
		Duration: conv.SecondsToFrames(layout.Duration),
		Rate:     rate,
		Media: resolveMedia{
			Video: resolveVideo{
				Format: pproVideoFormat{
					SampleCharacteristics: pproSampleChars{
						Rate:   rate,
						Width:  doc.Settings.Width,
						Height: doc.Settings.Height,
					},
				},
			},
		},
		Timecode: pproTimecode{
			Rate:          rate,
			String:        conv.FramesToSMPTE(0),
			Frame:         0,
			DisplayFormat: displayFormat,
		},
	}

	embedded := make([]bool, len(layout.Resources))
	for i, pc := range layout.Clips {
		inF := conv.SecondsToFrames(pc.InPoint)
		outF := conv.SecondsToFrames(pc.OutPoint)
		startF := conv.SecondsToFrames(pc.Offset)

		ref := pc.Resource
		file := &pproFile{ID: fmt.Sprintf("file-%d", ref+1)}
		if !embedded[ref] {
			embedded[ref] = true
			file.Name = stem(layout.Resources[ref].Path)
			file.PathURL = fileURL(layout.Resources[ref].Path)
			file.Rate = &rate
		}

		item := resolveClipItem{
			ID:       fmt.Sprintf("clipitem-%d", i+1),
			Name:     stem(pc.Path),
			Enabled:  "TRUE",
			Duration: outF - inF,
			Rate:     rate,
			Start:    startF,
			End:      startF + (outF - inF),
			In:       inF,
			Out:      outF,
			File:     file,
			Comments: clipNote(pc.Clip),
		}
		for _, m := range pc.Markers {
			mf := inF + conv.SecondsToFrames(m.Local)
			item.Markers = append(item.Markers, pproMarker{
				Name:    m.Name,
				Comment: m.Note,
				In:      mf,
				Out:     mf + 1,
			})
		}
		seq.Media.Video.Track.Clips = append(seq.Media.Video.Track.Clips, item)
	}

	root := resolveDocument{
		Version: "4",
		Project: resolveProject{
			Name:     SanitizeName(name),
			Children: resolveChildren{Sequence: seq},
		},
	}
	body, err := xml.MarshalIndent(root, "", "    ")
	if err != nil {
		return "", fmt.Errorf("serialize xmeml: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString("<!DOCTYPE xmeml>\n")
	sb.Write(body)
	sb.WriteString("\n")
	return writeFile(outputPath, []byte(sb.String()))
}
