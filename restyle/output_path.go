package restyle

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

const reportExt = ".txt"

// buildOutputPath returns report path under dst for the source path relative
// to the requested source. Directory structure is kept, every segment is
// transliterated to be safe on any file system.
func buildOutputPath(rel, dst string) string {
	rel = filepath.Clean(rel)
	base := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))

	parts := []string{dst}
	if dir := filepath.Dir(rel); dir != "." {
		for _, segment := range strings.Split(filepath.ToSlash(dir), "/") {
			if segment = cleanSegment(segment); len(segment) > 0 {
				parts = append(parts, segment)
			}
		}
	}
	name := cleanSegment(base)
	if len(name) == 0 {
		name = "document"
	}
	return filepath.Join(append(parts, name+reportExt)...)
}

func cleanSegment(segment string) string {
	if segment == ".." || segment == "." {
		return ""
	}
	return slug.Make(segment)
}
