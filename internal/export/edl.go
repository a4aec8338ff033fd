package export

import (
	"fmt"
	"strings"

	"github.com/clipcull/clipcull-agent/internal/timeline"
)

// EDLExporter renders a document as a CMX 3600 edit decision list.
// The event lines are fixed-width; everything an EDL cannot express
// natively (names, scores, markers) rides in comment lines, which is
// the convention Resolve and Premiere both understand on relink.
type EDLExporter struct{}

func (e *EDLExporter) Export(doc *timeline.Document, outputPath string) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", err
	}
	conv, err := doc.Converter()
	if err != nil {
		return "", err
	}
	layout := doc.Lay()

	title := doc.Name
	if title == "" {
		title = "Selects"
	}

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(title))}
	if conv.DropFrame() {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, pc := range layout.Clips {
		inF := conv.SecondsToFrames(pc.InPoint)
		outF := conv.SecondsToFrames(pc.OutPoint)
		recInF := conv.SecondsToFrames(pc.Offset)
		recOutF := recInF + (outF - inF)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s",
				i+1, reelName(pc.Path), "V",
				conv.FramesToSMPTE(inF), conv.FramesToSMPTE(outF),
				conv.FramesToSMPTE(recInF), conv.FramesToSMPTE(recOutF)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", stem(pc.Path)),
		)
		if pc.Score != timeline.NoScore {
			lines = append(lines, fmt.Sprintf("* CLIP SCORE:  %d", pc.Score))
		}
		if pc.Category != "" {
			lines = append(lines, fmt.Sprintf("* CATEGORY:  %s", pc.Category))
		}
		lines = append(lines, fmt.Sprintf("* SOURCE FILE:  %s", pc.Path))
		for _, m := range pc.Markers {
			// Marker positions are record-side so they land on the
			// assembled timeline, not inside the source clip.
			mf := recInF + conv.SecondsToFrames(m.Local)
			lines = append(lines, fmt.Sprintf("* MARKER:  %s AT %s", m.Name, conv.FramesToSMPTE(mf)))
		}
		lines = append(lines, "")
	}

	return writeFile(outputPath, []byte(strings.Join(lines, "\n")))
}
