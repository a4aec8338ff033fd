package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9 ._-]+`)
	nonAlnumChars   = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// SanitizeName strips characters that confuse NLE project browsers and
// EDL parsers from a human-facing name.
func SanitizeName(name string) string {
	clean := unsafeNameChars.ReplaceAllString(name, "_")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "untitled"
	}
	return clean
}

// reelName derives a CMX 3600 reel identifier from a source path:
// alphanumeric only, uppercased, at most eight characters. Sources
// whose names sanitize to nothing fall back to the AX convention.
func reelName(path string) string {
	reel := nonAlnumChars.ReplaceAllString(stem(path), "")
	reel = strings.ToUpper(reel)
	if reel == "" {
		return "AX"
	}
	if len(reel) > 8 {
		reel = reel[:8]
	}
	return reel
}

// ValidateOutputDir rejects traversal and non-directories before any
// export touches the filesystem.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output_dir is required")
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("output_dir cannot contain path traversal")
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output_dir does not exist")
		}
		return fmt.Errorf("invalid output_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output_dir is not a directory")
	}

	return nil
}
