package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_Close(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if r.Name() != conf.Destination {
		t.Errorf("Name() = %q, want %q", r.Name(), conf.Destination)
	}

	stored := filepath.Join(dir, "input.html")
	if err := os.WriteFile(stored, []byte("<p>early</p>"), 0644); err != nil {
		t.Fatal(err)
	}
	r.Store("documents/input.html", stored)
	r.Store("missing.log", filepath.Join(dir, "missing.log"))
	r.StoreData("restyle.txt", []byte("one"))
	r.StoreData("restyle.txt", []byte("two"))

	// stored files are read on close
	if err := os.WriteFile(stored, []byte("<p>late</p>"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, conf.Destination)
	if got := files["documents/input.html"]; got != "<p>late</p>" {
		t.Errorf("stored file = %q", got)
	}
	if files["restyle.txt"] != "one" || files["restyle.txt.1"] != "two" {
		t.Errorf("data entries = %q, %q", files["restyle.txt"], files["restyle.txt.1"])
	}
	if _, ok := files["missing.log"]; ok {
		t.Error("absent file stored")
	}
	manifest := files["MANIFEST"]
	for _, name := range []string{"documents/input.html", "missing.log", "restyle.txt.1"} {
		if !strings.Contains(manifest, name) {
			t.Errorf("MANIFEST lacks %s:\n%s", name, manifest)
		}
	}
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("c", nil)
	if r.Name() != "" {
		t.Error("nil report has a name")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on nil report error = %v", err)
	}
	if err := (&Report{}).Close(); err != nil {
		t.Errorf("Close() without file error = %v", err)
	}
}
