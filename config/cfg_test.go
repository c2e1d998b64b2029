package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Style.MediaType != "screen" {
		t.Errorf("MediaType = %q, want screen", cfg.Style.MediaType)
	}
	if cfg.Style.QuirksMode || len(cfg.Style.UserStylesheets) != 0 || cfg.Style.ReportTemplate != "" {
		t.Errorf("unexpected style defaults: %+v", cfg.Style)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" || cfg.Logging.FileLogger.Level != "none" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `version: 1
style:
  user_stylesheets: ["`+filepath.ToSlash(filepath.Join(dir, "*.css"))+`"]
  media_type: print
  quirks_mode: true
  encoding: windows-1251
  report_template: "{{ .Source }} {{ len .Elements }}"
logging:
  console:
    level: debug
  file:
    level: debug
    destination: `+filepath.ToSlash(filepath.Join(dir, "logs", "test.log"))+`
    mode: append
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Style.MediaType != "print" || !cfg.Style.QuirksMode || cfg.Style.Encoding != "windows-1251" {
		t.Errorf("Style = %+v", cfg.Style)
	}
	// template fields are not expanded while loading
	if cfg.Style.ReportTemplate != "{{ .Source }} {{ len .Elements }}" {
		t.Errorf("ReportTemplate = %q", cfg.Style.ReportTemplate)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("FileLogger = %+v", cfg.Logging.FileLogger)
	}
	// sanitizer creates directory for the log file
	if _, err := os.Stat(filepath.Join(dir, "logs")); err != nil {
		t.Errorf("log directory was not created: %v", err)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nstyle:\n  media_type: screen\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad media type", "version: 1\nstyle:\n  media_type: tv\n"},
		{"empty stylesheet path", "version: 1\nstyle:\n  user_stylesheets: [\"\"]\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: verbose\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}
	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
}

func TestPrepareAndDump(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("Prepared config is not valid: %v", err)
	}

	cfg.Style.UserStylesheets = []string{"user.css"}
	dumped, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(dumped), "user.css") {
		t.Errorf("Dump() lost user stylesheets:\n%s", dumped)
	}
	again, err := unmarshalConfig(dumped, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if again.Style.MediaType != cfg.Style.MediaType || again.Version != cfg.Version {
		t.Errorf("dumped config differs: %+v", again)
	}
}

func TestExpandUserStylesheets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"user10.css", "user2.css", "user1.css", "other.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	missing := filepath.Join(dir, "absent.css")
	conf := StyleConfig{UserStylesheets: []string{filepath.Join(dir, "user*.css"), missing}}

	paths, err := conf.ExpandUserStylesheets()
	if err != nil {
		t.Fatalf("ExpandUserStylesheets() error = %v", err)
	}
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	if got := strings.Join(names, ","); got != "user1.css,user2.css,user10.css,absent.css" {
		t.Errorf("ExpandUserStylesheets() = %s", got)
	}

	conf.UserStylesheets = []string{"[bad"}
	if _, err := conf.ExpandUserStylesheets(); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestLoggingConfig_Prepare(t *testing.T) {
	dir := t.TempDir()
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal", Destination: filepath.Join(dir, "test.log"), Mode: "overwrite"},
	}

	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hidden")
	log.Info("visible", zap.String("key", "value"))
	_ = log.Sync()

	data, err := os.ReadFile(conf.FileLogger.Destination)
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if !strings.Contains(string(data), "visible") || strings.Contains(string(data), "hidden") {
		t.Errorf("log file content:\n%s", data)
	}
	if got := conf.PanicLogName(); got != filepath.Join(dir, "servosel-panic.log") {
		t.Errorf("PanicLogName() = %q", got)
	}
}

func TestLoggingConfig_PrepareWithReport(t *testing.T) {
	dir := t.TempDir()
	rpt, err := (&ReporterConfig{Destination: filepath.Join(dir, "report.zip")}).Prepare()
	if err != nil {
		t.Fatal(err)
	}
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none", Destination: filepath.Join(dir, "test.log")},
	}

	log, err := conf.Prepare(rpt)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("debug message")
	_ = log.Sync()
	if err := rpt.Close(); err != nil {
		t.Fatal(err)
	}

	files := readArchive(t, rpt.Name())
	if !strings.Contains(files["final.log"], "debug message") {
		t.Errorf("report log lacks debug output: %q", files["final.log"])
	}
}
