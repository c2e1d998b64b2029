package restyle

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"servosel/config"
	"servosel/css"
	"servosel/elementstate"
	"servosel/selectorimpl"
	"servosel/state"
)

const samplePage = `<!DOCTYPE html>
<html><head><style>#go:hover { color: orange } p { margin: 0 }</style></head>
<body><p id="intro">Hello</p><button id="go">Go</button></body></html>`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newRequest(env *state.LocalEnv) *request {
	return &request{
		mediaType: env.Cfg.Style.MediaType,
		states:    map[string]elementstate.ElementState{},
	}
}

func TestParseStates(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    map[string]elementstate.ElementState
		wantErr bool
	}{
		{name: "none", want: map[string]elementstate.ElementState{}},
		{
			name:  "single",
			specs: []string{"go=hover"},
			want:  map[string]elementstate.ElementState{"go": elementstate.InHoverState},
		},
		{
			name:  "several",
			specs: []string{"go=hover|focus", "go=active", "x= checked "},
			want: map[string]elementstate.ElementState{
				"go": elementstate.InHoverState | elementstate.InFocusState | elementstate.InActiveState,
				"x":  elementstate.InCheckedState,
			},
		},
		{name: "no separator", specs: []string{"go"}, wantErr: true},
		{name: "no id", specs: []string{"=hover"}, wantErr: true},
		{name: "unknown flag", specs: []string{"go=hover|glowing"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStates(tt.specs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStates() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseStates() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildOutputPath(t *testing.T) {
	dst := filepath.FromSlash("/out")
	tests := []struct {
		rel  string
		want string
	}{
		{"page.html", "/out/page.txt"},
		{"Main Page.HTM", "/out/main-page.txt"},
		{"docs/ch 1/intro.xhtml", "/out/docs/ch-1/intro.txt"},
		{"../up/x.html", "/out/up/x.txt"},
		{".html", "/out/document.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := buildOutputPath(filepath.FromSlash(tt.rel), dst); got != filepath.FromSlash(tt.want) {
				t.Errorf("buildOutputPath(%q) = %q, want %q", tt.rel, got, tt.want)
			}
		})
	}
}

func TestProcess_Stdout(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := writeFile(t, filepath.Join(t.TempDir(), "page.html"), samplePage)

	req := newRequest(env)
	req.selector = "#go"
	req.states["go"] = elementstate.InHoverState

	var out bytes.Buffer
	if err := process(ctx, src, req, &out, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"page.html (screen)",
		"stylesheets: page.html <style> #1",
		"html > body > button#go [",
		"hover",
		"  color: orange\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report lacks %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "p#intro") {
		t.Errorf("unselected element reported:\n%s", text)
	}
}

func TestProcess_Dir(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.html"), samplePage)
	writeFile(t, filepath.Join(src, "Sub Dir", "b.htm"), samplePage)
	writeFile(t, filepath.Join(src, "notes.txt"), "not a document")

	parser := css.NewParser[selectorimpl.PseudoElement, selectorimpl.NonTSPseudoClass](selectorimpl.ServoSelectorImpl{}, env.Log)
	req := newRequest(env)
	req.dst = t.TempDir()
	req.selector = "p"
	req.authorFiles = []string{"extra.css"}
	req.author = []*selectorimpl.Stylesheet{parser.Parse([]byte("p { color: teal }"), css.OriginAuthor, "extra.css")}

	var out bytes.Buffer
	if err := process(ctx, src, req, &out, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output to stdout: %s", out.String())
	}

	for _, name := range []string{"a.txt", filepath.Join("sub-dir", "b.txt")} {
		data, err := os.ReadFile(filepath.Join(req.dst, name))
		if err != nil {
			t.Fatalf("report %s: %v", name, err)
		}
		for _, want := range []string{"stylesheets: extra.css, ", "html > body > p#intro\n", "  color: teal\n", "  margin: 0\n"} {
			if !strings.Contains(string(data), want) {
				t.Errorf("report %s lacks %q:\n%s", name, want, data)
			}
		}
	}
	if _, err := os.Stat(filepath.Join(req.dst, "notes.txt")); err == nil {
		t.Error("non-document file processed")
	}

	// existing reports are kept unless overwrite is requested
	if err := processFile(ctx, filepath.Join(src, "a.html"), "a.html", req, &out, env.Log); err == nil {
		t.Error("existing report overwritten")
	}
	req.overwrite = true
	if err := processFile(ctx, filepath.Join(src, "a.html"), "a.html", req, &out, env.Log); err != nil {
		t.Errorf("processFile() with overwrite error = %v", err)
	}
}

func TestProcess_Errors(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()

	if err := process(ctx, filepath.Join(dir, "absent.html"), newRequest(env), &bytes.Buffer{}, env.Log); err == nil {
		t.Error("missing source accepted")
	}

	png := writeFile(t, filepath.Join(dir, "image.html"), "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	if err := process(ctx, png, newRequest(env), &bytes.Buffer{}, env.Log); err == nil {
		t.Error("binary source accepted")
	}

	src := writeFile(t, filepath.Join(dir, "page.html"), samplePage)
	req := newRequest(env)
	req.selector = "p::before"
	if err := process(ctx, src, req, &bytes.Buffer{}, env.Log); err == nil {
		t.Error("pseudo-element selector accepted")
	}

	req = newRequest(env)
	req.encoding = "no-such-encoding"
	if err := process(ctx, src, req, &bytes.Buffer{}, env.Log); err == nil {
		t.Error("unknown encoding accepted")
	}
}

func writeBook(t *testing.T, path string, entries map[string]string) string {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, content := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcess_Archive(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	book := writeBook(t, filepath.Join(dir, "Book.epub"), map[string]string{
		"OEBPS/ch1.xhtml": samplePage,
		"OEBPS/ch2.xhtml": samplePage,
		"extra/a.html":    samplePage,
		"OEBPS/style.css": "p { color: red }",
	})

	req := newRequest(env)
	req.dst = t.TempDir()
	req.selector = "p"

	if err := process(ctx, filepath.Join(book, "OEBPS"), req, &bytes.Buffer{}, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	for _, name := range []string{"ch1.txt", "ch2.txt"} {
		data, err := os.ReadFile(filepath.Join(req.dst, "book-epub", "oebps", name))
		if err != nil {
			t.Fatalf("report %s: %v", name, err)
		}
		if !strings.Contains(string(data), "Book.epub/OEBPS/"+strings.TrimSuffix(name, ".txt")+".xhtml (screen)") {
			t.Errorf("report %s names wrong source:\n%s", name, data)
		}
	}
	if _, err := os.Stat(filepath.Join(req.dst, "book-epub", "extra")); err == nil {
		t.Error("document outside of requested archive path processed")
	}

	// archives found in directories are processed completely
	req.dst = t.TempDir()
	if err := process(ctx, dir, req, &bytes.Buffer{}, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(req.dst, "book-epub", "extra", "a.txt")); err != nil {
		t.Errorf("archive in directory not processed: %v", err)
	}

	if err := process(ctx, filepath.Join(dir, "Book.epub", "absent"), req, &bytes.Buffer{}, env.Log); err != nil {
		t.Errorf("empty archive path error = %v", err)
	}
	if err := process(ctx, filepath.Join(dir, "absent", "page.html"), req, &bytes.Buffer{}, env.Log); err == nil {
		t.Error("missing source accepted")
	}
}
