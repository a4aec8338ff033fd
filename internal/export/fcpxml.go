package export

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/clipcull/clipcull-agent/internal/timeline"
)

// FCPXMLExporter renders a document as FCPXML 1.10 for Final Cut Pro.
// All times are rational seconds; frame boundaries are exact because
// every value is a multiple of the format's frame duration.
type FCPXMLExporter struct{}

const fcpxmlVersion = "1.10"

type fcpDocument struct {
	XMLName   xml.Name     `xml:"fcpxml"`
	Version   string       `xml:"version,attr"`
	Resources fcpResources `xml:"resources"`
	Library   fcpLibrary   `xml:"library"`
}

type fcpResources struct {
	Format fcpFormat  `xml:"format"`
	Assets []fcpAsset `xml:"asset"`
}

type fcpFormat struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"name,attr"`
	FrameDuration string `xml:"frameDuration,attr"`
	Width         int    `xml:"width,attr"`
	Height        int    `xml:"height,attr"`
}

type fcpAsset struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"name,attr"`
	Src      string `xml:"src,attr"`
	Start    string `xml:"start,attr"`
	Duration string `xml:"duration,attr"`
	HasVideo string `xml:"hasVideo,attr"`
	HasAudio string `xml:"hasAudio,attr"`
	Format   string `xml:"format,attr"`
}

type fcpLibrary struct {
	Event fcpEvent `xml:"event"`
}

type fcpEvent struct {
	Name    string     `xml:"name,attr"`
	Project fcpProject `xml:"project"`
}

type fcpProject struct {
	Name     string      `xml:"name,attr"`
	Sequence fcpSequence `xml:"sequence"`
}

type fcpSequence struct {
	Format   string   `xml:"format,attr"`
	Duration string   `xml:"duration,attr"`
	TCStart  string   `xml:"tcStart,attr"`
	TCFormat string   `xml:"tcFormat,attr"`
	Spine    fcpSpine `xml:"spine"`
}

type fcpSpine struct {
	Clips []fcpAssetClip `xml:"asset-clip"`
}

type fcpAssetClip struct {
	Name     string      `xml:"name,attr"`
	Ref      string      `xml:"ref,attr"`
	Offset   string      `xml:"offset,attr"`
	Duration string      `xml:"duration,attr"`
	Start    string      `xml:"start,attr"`
	TCFormat string      `xml:"tcFormat,attr"`
	Note     string      `xml:"note,omitempty"`
	Markers  []fcpMarker `xml:"marker"`
}

type fcpMarker struct {
	Start    string `xml:"start,attr"`
	Duration string `xml:"duration,attr"`
	Value    string `xml:"value,attr"`
	Note     string `xml:"note,attr,omitempty"`
}

func (e *FCPXMLExporter) Export(doc *timeline.Document, outputPath string) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", err
	}
	conv, err := doc.Converter()
	if err != nil {
		return "", err
	}
	layout := doc.Lay()

	tcFormat := "NDF"
	if conv.DropFrame() {
		tcFormat = "DF"
	}

	root := fcpDocument{
		Version: fcpxmlVersion,
		Resources: fcpResources{
			Format: fcpFormat{
				ID:            "r1",
				Name:          fmt.Sprintf("%dx%dp", doc.Settings.Width, doc.Settings.Height),
				FrameDuration: conv.FrameDuration().String(),
				Width:         doc.Settings.Width,
				Height:        doc.Settings.Height,
			},
		},
	}

	// One asset per unique source file; the asset duration covers the
	// longest out point referenced against it.
	assetIDs := make([]string, len(layout.Resources))
	maxOut := make([]int, len(layout.Resources))
	for _, pc := range layout.Clips {
		out := conv.SecondsToFrames(pc.OutPoint)
		if out > maxOut[pc.Resource] {
			maxOut[pc.Resource] = out
		}
	}
	for i, res := range layout.Resources {
		id := fmt.Sprintf("r%d", i+2)
		assetIDs[i] = id
		root.Resources.Assets = append(root.Resources.Assets, fcpAsset{
			ID:       id,
			Name:     stem(res.Path),
			Src:      fileURL(res.Path),
			Start:    "0s",
			Duration: conv.FramesToRational(maxOut[i]).String(),
			HasVideo: "1",
			HasAudio: "1",
			Format:   "r1",
		})
	}

	name := doc.Name
	if name == "" {
		name = "Selects"
	}
	seq := fcpSequence{
		Format:   "r1",
		Duration: conv.FramesToRational(conv.SecondsToFrames(layout.Duration)).String(),
		TCStart:  "0s",
		TCFormat: tcFormat,
	}
	for _, pc := range layout.Clips {
		inF := conv.SecondsToFrames(pc.InPoint)
		outF := conv.SecondsToFrames(pc.OutPoint)
		offF := conv.SecondsToFrames(pc.Offset)
		ac := fcpAssetClip{
			Name:     stem(pc.Path),
			Ref:      assetIDs[pc.Resource],
			Offset:   conv.FramesToRational(offF).String(),
			Duration: conv.FramesToRational(outF - inF).String(),
			Start:    conv.FramesToRational(inF).String(),
			TCFormat: tcFormat,
			Note:     clipNote(pc.Clip),
		}
		for _, m := range pc.Markers {
			// Marker times are clip-relative in FCPXML, measured from
			// the asset's own zero, hence in point plus local offset.
			startF := inF + conv.SecondsToFrames(m.Local)
			ac.Markers = append(ac.Markers, fcpMarker{
				Start:    conv.FramesToRational(startF).String(),
				Duration: conv.FrameDuration().String(),
				Value:    m.Name,
				Note:     m.Note,
			})
		}
		seq.Spine.Clips = append(seq.Spine.Clips, ac)
	}
	root.Library = fcpLibrary{
		Event: fcpEvent{
			Name:    name,
			Project: fcpProject{Name: name, Sequence: seq},
		},
	}

	body, err := xml.MarshalIndent(root, "", "    ")
	if err != nil {
		return "", fmt.Errorf("serialize fcpxml: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString("<!DOCTYPE fcpxml>\n\n")
	sb.Write(body)
	sb.WriteString("\n")
	return writeFile(outputPath, []byte(sb.String()))
}

// clipNote folds the clip's score and category into one annotation.
func clipNote(c timeline.Clip) string {
	var parts []string
	if c.Score != timeline.NoScore {
		parts = append(parts, fmt.Sprintf("Score: %d", c.Score))
	}
	if c.Category != "" {
		parts = append(parts, "Category: "+c.Category)
	}
	return strings.Join(parts, " | ")
}
