package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type zipEntry struct {
	name    string
	content string
}

func writeZip(t *testing.T, entries []zipEntry, dirs ...string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(zipFile)
	for _, d := range dirs {
		hdr := &zip.FileHeader{Name: d}
		hdr.SetMode(os.ModeDir | 0755)
		if _, err := w.CreateHeader(hdr); err != nil {
			t.Fatalf("Failed to create directory %s: %v", d, err)
		}
	}
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	zipFile.Close()
	return zipPath
}

var book = []zipEntry{
	{"mimetype", "application/epub+zip"},
	{"OEBPS/ch1.xhtml", "<p>one</p>"},
	{"OEBPS/ch2.XHTML", "<p>two</p>"},
	{"OEBPS/style.css", "p {}"},
	{"extra/index.html", "<p>index</p>"},
}

func TestWalk(t *testing.T) {
	zipPath := writeZip(t, book, "OEBPS/")

	tests := []struct {
		name   string
		prefix string
		exts   []string
		want   []string
	}{
		{"all", "", nil, []string{"mimetype", "OEBPS/ch1.xhtml", "OEBPS/ch2.XHTML", "OEBPS/style.css", "extra/index.html"}},
		{"documents", "", []string{".html", ".xhtml"}, []string{"OEBPS/ch1.xhtml", "OEBPS/ch2.XHTML", "extra/index.html"}},
		{"prefix", "OEBPS/", []string{".xhtml"}, []string{"OEBPS/ch1.xhtml", "OEBPS/ch2.XHTML"}},
		{"nothing", "absent/", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited []string
			err := Walk(zipPath, tt.prefix, tt.exts, func(name string, r io.Reader) error {
				visited = append(visited, name)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, visited); diff != "" {
				t.Errorf("visited mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWalk_FileContent(t *testing.T) {
	zipPath := writeZip(t, book)

	err := Walk(zipPath, "extra/", nil, func(name string, r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if string(data) != "<p>index</p>" {
			t.Errorf("content of %s = %q", name, data)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := writeZip(t, book)

	var visited int
	stopErr := errors.New("stop walking")
	err := Walk(zipPath, "OEBPS/", nil, func(string, io.Reader) error {
		visited++
		if visited == 2 {
			return stopErr
		}
		return nil
	})
	if !errors.Is(err, stopErr) {
		t.Errorf("Walk() error = %v, want %v", err, stopErr)
	}
	if visited != 2 {
		t.Errorf("visited %d files, want 2 (early termination)", visited)
	}
}

func TestWalk_Errors(t *testing.T) {
	noop := func(string, io.Reader) error { return nil }

	if err := Walk("/nonexistent/file.zip", "", nil, noop); err == nil {
		t.Error("Expected error for nonexistent file")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.zip")
	if err := os.WriteFile(invalid, []byte("not a zip file"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Walk(invalid, "", nil, noop); err == nil {
		t.Error("Expected error for invalid zip file")
	}

	unsafe := writeZip(t, []zipEntry{{"ok.html", ""}, {"../evil.html", ""}})
	if err := Walk(unsafe, "", nil, noop); err == nil {
		t.Error("Expected error for path traversal")
	}
}

func TestIsArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := writeZip(t, book)

	html := filepath.Join(dir, "page.html")
	if err := os.WriteFile(html, []byte("<html></html>"), 0644); err != nil {
		t.Fatal(err)
	}
	short := filepath.Join(dir, "short")
	if err := os.WriteFile(short, []byte("PK"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path    string
		want    bool
		wantErr bool
	}{
		{zipPath, true, false},
		{html, false, false},
		{short, false, false},
		{filepath.Join(dir, "absent"), false, true},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			got, err := IsArchive(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsArchive() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsArchive() = %v, want %v", got, tt.want)
			}
		})
	}
}
