package main

import (
	"strings"
	"testing"
)

func TestWritePseudo(t *testing.T) {
	var sb strings.Builder
	if err := writePseudo(&sb); err != nil {
		t.Fatalf("writePseudo() error = %v", err)
	}
	lines := strings.Split(sb.String(), "\n")

	find := func(prefix string) string {
		t.Helper()
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), prefix+" ") {
				return line
			}
		}
		t.Fatalf("no line for %s:\n%s", prefix, sb.String())
		return ""
	}

	tests := []struct {
		name string
		want []string
		not  []string
	}{
		{"::before", []string{"eager"}, []string{"user-agent only"}},
		{"::-servo-details-content", []string{"precomputed", "user-agent only"}, nil},
		{"::-servo-details-summary", []string{"eager", "user-agent only"}, nil},
		{":hover", []string{"hover"}, []string{"user-agent only"}},
		{":read-only", []string{"read-write"}, nil},
		{":link", []string{"empty"}, nil},
		{":-servo-nonzero-border", []string{"empty", "user-agent only"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := find(tt.name)
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("%q lacks %q", line, w)
				}
			}
			for _, w := range tt.not {
				if strings.Contains(line, w) {
					t.Errorf("%q has %q", line, w)
				}
			}
		})
	}
}

func TestRestyleHelp(t *testing.T) {
	var restyle string
	for _, cmd := range newApp().Commands {
		if cmd.Name == "restyle" {
			restyle = cmd.CustomHelpTemplate
		}
	}
	if restyle == "" {
		t.Fatal("no restyle command help")
	}
	for _, want := range []string{
		`"[path_to_file]file.html"`,
		`"[path_to_directory]directory"`,
		`"[path_to_archive]archive.zip"`,
		`"[path_to_archive]book.epub"`,
		`"[path_to_archive]archive.zip[path_in_archive]"`,
	} {
		if !strings.Contains(restyle, want) {
			t.Errorf("restyle help lacks %s", want)
		}
	}
}
