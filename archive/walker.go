// Package archive walks documents stored in zip containers, EPUB books
// included.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/h2non/filetype"
)

// WalkFunc is called for every document visited by Walk. The name argument
// is the path of the document inside the archive. If an error is returned,
// processing stops.
type WalkFunc func(name string, r io.Reader) error

// IsArchive reports whether file at path is a zip container.
func IsArchive(fname string) (bool, error) {
	f, err := os.Open(fname)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// filetype needs no more than that
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	head = head[:n]
	return filetype.Is(head, "zip") || filetype.Is(head, "epub"), nil
}

// Walk calls walkFn for every file in the archive under prefix with one of
// the extensions (matched case-insensitively, all files when empty).
// Archives with path traversal components ("..") or absolute paths are
// rejected.
func Walk(archive, prefix string, exts []string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if len(exts) > 0 && !slices.Contains(exts, strings.ToLower(path.Ext(name))) {
			continue
		}
		if err := visit(f, walkFn); err != nil {
			return err
		}
	}
	return nil
}

func visit(f *zip.File, walkFn WalkFunc) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("zip entry %q: %w", f.FileHeader.Name, err)
	}
	defer rc.Close()
	return walkFn(f.FileHeader.Name, rc)
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	return !slices.Contains(strings.Split(name, "/"), "..")
}
