package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadDefaultsAndValidation(t *testing.T) {
	t.Run("missing file returns nil", func(t *testing.T) {
		f, err := Load(t.TempDir())
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if f != nil {
			t.Fatalf("Load expected nil, got %#v", f)
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "languages: [CY, ga]\nschemas: [\"schemas/*.json\"]\n")

		f, err := Load(dir)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if f.SourceLang != "en" {
			t.Fatalf("SourceLang = %q, want en", f.SourceLang)
		}
		if f.TranslationsDir != "translations" || f.OutputDir != "build" || f.Indent != 4 {
			t.Fatalf("defaults not applied: %+v", f)
		}
		if diff := cmp.Diff([]string{"cy", "ga"}, f.Languages); diff != "" {
			t.Fatalf("Languages mismatch (-want +got):\n%s", diff)
		}
	})

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"rejects unknown keys", "schemas: [a.json]\ntargets: []\n", "not found"},
		{"requires schemas", "languages: [cy]\n", "no schemas"},
		{"rejects bad language", "schemas: [a.json]\nlanguages: [\"not a tag!\"]\n", "invalid language"},
		{"rejects source language as target", "schemas: [a.json]\nlanguages: [en]\n", "source language"},
		{"rejects duplicates", "schemas: [a.json]\nlanguages: [cy, CY]\n", "listed twice"},
		{"rejects indent", "schemas: [a.json]\nindent: 40\n", "out of range"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, FileName), tc.yaml)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "schemas", "census.json"), "{}")
	writeFile(t, filepath.Join(dir, "schemas", "lms.yaml"), "title: x\n")
	writeFile(t, filepath.Join(dir, "schemas", "notes.txt"), "")

	f, err := Parse([]byte("project: census-2027\nlanguages: [cy]\nschemas: [\"schemas/*.json\", \"schemas/*.yaml\", schemas/census.json]\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	p, err := f.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !filepath.IsAbs(p.Root) {
		t.Fatalf("Root is not absolute: %q", p.Root)
	}

	var keys []string
	for _, s := range p.Schemas {
		keys = append(keys, s.Key)
	}
	if diff := cmp.Diff([]string{"schemas/census.json", "schemas/lms.yaml"}, keys); diff != "" {
		t.Fatalf("schema keys mismatch (-want +got):\n%s", diff)
	}

	census := p.Schemas[0]
	if census.Name != "census" {
		t.Fatalf("Name = %q, want census", census.Name)
	}
	if got, want := p.POTPath(census), filepath.Join(p.Root, "translations", "census.pot"); got != want {
		t.Fatalf("POTPath = %q, want %q", got, want)
	}
	if got, want := p.POPath("cy", census), filepath.Join(p.Root, "translations", "cy", "census.po"); got != want {
		t.Fatalf("POPath = %q, want %q", got, want)
	}
	if got, want := p.OutputPath("cy", census), filepath.Join(p.Root, "build", "cy", "census.json"); got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}
	if p.ProjectName() != "census-2027" {
		t.Fatalf("ProjectName = %q", p.ProjectName())
	}
	if p.Indent() != "    " {
		t.Fatalf("Indent = %q", p.Indent())
	}
}

func TestResolveErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "survey.json"), "{}")
	writeFile(t, filepath.Join(dir, "b", "survey.json"), "{}")

	for _, patterns := range [][]string{
		{"missing/*.json"},
		{"a/survey.json", "b/survey.json"},
	} {
		f := &File{Schemas: patterns, TranslationsDir: "translations"}
		if _, err := f.Resolve(dir); err == nil {
			t.Fatalf("Resolve(%v) expected error", patterns)
		}
	}
}

func TestResolveDetectsLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "survey.json"), "{}")
	for _, sub := range []string{"cy", "ga", "en", "_drafts"} {
		if err := os.MkdirAll(filepath.Join(dir, "translations", sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, filepath.Join(dir, "translations", "survey.pot"), "")

	f, err := Parse([]byte("schemas: [survey.json]\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	p, err := f.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if diff := cmp.Diff([]string{"cy", "ga"}, p.Languages); diff != "" {
		t.Fatalf("Languages mismatch (-want +got):\n%s", diff)
	}
	if p.ProjectName() != filepath.Base(p.Root) {
		t.Fatalf("ProjectName = %q, want root dir name", p.ProjectName())
	}
}
