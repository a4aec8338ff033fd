// Package export serializes timeline documents into NLE interchange
// files: FCPXML 1.10, Premiere xmeml, CMX 3600 EDL and Resolve xmeml.
// Each format's textual grammar is a compatibility contract with the
// target editor, not a style choice.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipcull/clipcull-agent/internal/timeline"
)

// Format identifies one target interchange format.
type Format string

const (
	FormatFCPXML   Format = "fcpxml"   // Final Cut Pro X, FCPXML 1.10
	FormatPremiere Format = "premiere" // Premiere Pro, xmeml version 5
	FormatEDL      Format = "edl"      // CMX 3600 EDL
	FormatResolve  Format = "resolve"  // DaVinci Resolve, xmeml version 4
)

// WriteError indicates the serialized document could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write timeline file %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Exporter serializes one document to one file. Validation failures
// surface before any write; no partial file is ever left behind.
type Exporter interface {
	Export(doc *timeline.Document, outputPath string) (string, error)
}

// New returns the exporter for a format.
func New(format Format) (Exporter, error) {
	switch format {
	case FormatFCPXML:
		return &FCPXMLExporter{}, nil
	case FormatPremiere:
		return &PremiereExporter{}, nil
	case FormatEDL:
		return &EDLExporter{}, nil
	case FormatResolve:
		return &ResolveExporter{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// ParseFormat maps a user-supplied format name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fcpxml", "fcp", "finalcut":
		return FormatFCPXML, nil
	case "premiere", "xmeml", "premiere-xml":
		return FormatPremiere, nil
	case "edl", "cmx3600":
		return FormatEDL, nil
	case "resolve", "davinci", "resolve-xml":
		return FormatResolve, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Extension returns the conventional file extension for a format.
func Extension(format Format) string {
	switch format {
	case FormatFCPXML:
		return ".fcpxml"
	case FormatEDL:
		return ".edl"
	default:
		return ".xml"
	}
}

// writeFile writes the fully serialized document in one shot. The
// content is complete before the first byte hits disk, so a failure
// never leaves a partially valid timeline behind a successful return.
func writeFile(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", &WriteError{Path: path, Err: err}
	}
	return path, nil
}

// stem returns the filename without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// fileURL renders an absolute path as a file:// URL.
func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}
