package export

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/clipcull/clipcull-agent/internal/timeline"
)

// PremiereExporter renders a document as xmeml version 5 for Premiere
// Pro. Clip positions are expressed twice: as timebase frames for the
// legacy FCP7 fields and as 254016000000ths of a second in the
// pproTicks fields, which is what Premiere trusts for NTSC material.
type PremiereExporter struct{}

type pproDocument struct {
	XMLName  xml.Name     `xml:"xmeml"`
	Version  string       `xml:"version,attr"`
	Sequence pproSequence `xml:"sequence"`
}

type pproRate struct {
	Timebase int    `xml:"timebase"`
	NTSC     string `xml:"ntsc"`
}

type pproSequence struct {
	ID       string       `xml:"id,attr"`
	Name     string       `xml:"name"`
	Duration int          `xml:"duration"`
	Rate     pproRate     `xml:"rate"`
	Media    pproMedia    `xml:"media"`
	Timecode pproTimecode `xml:"timecode"`
}

type pproMedia struct {
	Video pproVideo `xml:"video"`
	Audio pproAudio `xml:"audio"`
}

type pproVideo struct {
	Format pproVideoFormat `xml:"format"`
	Track  pproTrack       `xml:"track"`
}

type pproVideoFormat struct {
	SampleCharacteristics pproSampleChars `xml:"samplecharacteristics"`
}

type pproSampleChars struct {
	Rate   pproRate `xml:"rate"`
	Width  int      `xml:"width"`
	Height int      `xml:"height"`
}

type pproAudio struct {
	Track pproTrack `xml:"track"`
}

type pproTrack struct {
	Clips []pproClipItem `xml:"clipitem"`
}

type pproClipItem struct {
	ID           string       `xml:"id,attr"`
	Name         string       `xml:"name"`
	Duration     int          `xml:"duration"`
	Rate         pproRate     `xml:"rate"`
	Start        int          `xml:"start"`
	End          int          `xml:"end"`
	In           int          `xml:"in"`
	Out          int          `xml:"out"`
	PproTicksIn  int64        `xml:"pproTicksIn"`
	PproTicksOut int64        `xml:"pproTicksOut"`
	File         *pproFile    `xml:"file"`
	Markers      []pproMarker `xml:"marker"`
	Labels       *pproLabels  `xml:"labels"`
}

type pproFile struct {
	ID      string         `xml:"id,attr"`
	Name    string         `xml:"name,omitempty"`
	PathURL string         `xml:"pathurl,omitempty"`
	Rate    *pproRate      `xml:"rate,omitempty"`
	Media   *pproFileMedia `xml:"media,omitempty"`
}

type pproFileMedia struct {
	Video pproVideoFormat `xml:"video"`
}

type pproMarker struct {
	Name    string `xml:"name"`
	Comment string `xml:"comment,omitempty"`
	In      int    `xml:"in"`
	Out     int    `xml:"out"`
}

type pproLabels struct {
	Label2 string `xml:"label2"`
}

type pproTimecode struct {
	Rate          pproRate `xml:"rate"`
	String        string   `xml:"string"`
	Frame         int      `xml:"frame"`
	DisplayFormat string   `xml:"displayformat"`
}

func (e *PremiereExporter) Export(doc *timeline.Document, outputPath string) (string, error) {
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

	seq := pproSequence{
		ID:       "sequence-1",
		Name:     SanitizeName(name),
		Duration: conv.SecondsToFrames(layout.Duration),
		Rate:     rate,
		Media: pproMedia{
			Video: pproVideo{
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

	// The first clipitem referencing a source embeds the full file
	// element; later references carry the bare id, which is how xmeml
	// expresses a shared media pool entry.
	embedded := make([]bool, len(layout.Resources))
	fileIDs := make([]string, len(layout.Resources))
	for i := range layout.Resources {
		fileIDs[i] = fmt.Sprintf("file-%d", i+1)
	}

	for i, pc := range layout.Clips {
		inF := conv.SecondsToFrames(pc.InPoint)
		outF := conv.SecondsToFrames(pc.OutPoint)
		startF := conv.SecondsToFrames(pc.Offset)
		endF := startF + (outF - inF)

		ref := pc.Resource
		file := &pproFile{ID: fileIDs[ref]}
		if !embedded[ref] {
			embedded[ref] = true
			file.Name = stem(layout.Resources[ref].Path)
			file.PathURL = fileURL(layout.Resources[ref].Path)
			file.Rate = &rate
			file.Media = &pproFileMedia{
				Video: pproVideoFormat{
					SampleCharacteristics: pproSampleChars{
						Rate:   rate,
						Width:  doc.Settings.Width,
						Height: doc.Settings.Height,
					},
				},
			}
		}

		item := pproClipItem{
			ID:           fmt.Sprintf("clipitem-%d", i+1),
			Name:         stem(pc.Path),
			Duration:     outF - inF,
			Rate:         rate,
			Start:        startF,
			End:          endF,
			In:           inF,
			Out:          outF,
			PproTicksIn:  conv.FramesToTicks(startF),
			PproTicksOut: conv.FramesToTicks(endF),
			File:         file,
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
		if note := clipNote(pc.Clip); note != "" {
			item.Labels = &pproLabels{Label2: categoryLabel(pc.Category)}
		}
		seq.Media.Video.Track.Clips = append(seq.Media.Video.Track.Clips, item)

		// Mirrored audio clipitem so linked audio survives the import.
		audio := pproClipItem{
			ID:           fmt.Sprintf("clipitem-audio-%d", i+1),
			Name:         stem(pc.Path),
			Duration:     outF - inF,
			Rate:         rate,
			Start:        startF,
			End:          endF,
			In:           inF,
			Out:          outF,
			PproTicksIn:  conv.FramesToTicks(startF),
			PproTicksOut: conv.FramesToTicks(endF),
			File:         &pproFile{ID: fileIDs[ref]},
		}
		seq.Media.Audio.Track.Clips = append(seq.Media.Audio.Track.Clips, audio)
	}

	body, err := xml.MarshalIndent(pproDocument{Version: "5", Sequence: seq}, "", "    ")
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

// categoryLabel maps a clip category onto a Premiere label color.
func categoryLabel(category string) string {
	switch strings.ToLower(category) {
	case "ceremony":
		return "Iris"
	case "speeches", "toasts":
		return "Caribbean"
	case "dancing", "reception":
		return "Lavender"
	default:
		return "Forest"
	}
}
