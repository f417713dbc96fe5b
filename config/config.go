// Package config loads .eqtrans.yaml, the project file that lists the
// schemas to translate, the target languages and where catalogs and
// translated schemas live.
//
// When no .eqtrans.yaml exists the commands that need a project refuse to
// run; single-file commands (extract, translate) never read it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// FileName is the project file name.
const FileName = ".eqtrans.yaml"

// Defaults applied by Load.
const (
	DefaultSourceLang      = "en"
	DefaultTranslationsDir = "translations"
	DefaultOutputDir       = "build"
	DefaultIndent          = 4
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .eqtrans.yaml structure.
type File struct {
	// Project names the catalogs in PO headers (default: the root directory name).
	Project string `yaml:"project,omitempty"`
	// SourceLang is the language the schemas are written in (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Languages are the target languages. When empty they are detected from
	// the subdirectories of TranslationsDir.
	Languages []string `yaml:"languages,omitempty"`
	// Schemas are paths or glob patterns relative to the project root.
	Schemas []string `yaml:"schemas"`
	// TranslationsDir holds <schema>.pot and <lang>/<schema>.po.
	TranslationsDir string `yaml:"translations_dir,omitempty"`
	// OutputDir receives <lang>/<schema>.json.
	OutputDir string `yaml:"output_dir,omitempty"`
	// Indent is the number of spaces translated schemas are indented with.
	Indent int `yaml:"indent,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load loads and validates .eqtrans.yaml from the given directory.
// Returns nil if no .eqtrans.yaml exists.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a project file, applying defaults. Unknown
// keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	// Defaults
	if f.SourceLang == "" {
		f.SourceLang = DefaultSourceLang
	}
	if f.TranslationsDir == "" {
		f.TranslationsDir = DefaultTranslationsDir
	}
	if f.OutputDir == "" {
		f.OutputDir = DefaultOutputDir
	}
	if f.Indent == 0 {
		f.Indent = DefaultIndent
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if len(f.Schemas) == 0 {
		return fmt.Errorf("no schemas listed")
	}
	if f.Indent < 0 || f.Indent > 16 {
		return fmt.Errorf("indent %d out of range (0-16)", f.Indent)
	}

	src, err := canonicalLang(f.SourceLang)
	if err != nil {
		return fmt.Errorf("source_lang: %w", err)
	}
	f.SourceLang = src

	langs := make([]string, 0, len(f.Languages))
	for _, l := range f.Languages {
		tag, err := canonicalLang(l)
		if err != nil {
			return fmt.Errorf("languages: %w", err)
		}
		if tag == f.SourceLang {
			return fmt.Errorf("languages: %q is the source language", l)
		}
		if slices.Contains(langs, tag) {
			return fmt.Errorf("languages: %q listed twice", l)
		}
		langs = append(langs, tag)
	}
	f.Languages = langs
	return nil
}

// canonicalLang validates a BCP 47 tag and returns its canonical form
// ("CY" -> "cy", "en_GB" -> "en-GB").
func canonicalLang(s string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", s, err)
	}
	return tag.String(), nil
}

// ---------------------------------------------------------------------------
// Resolving
// ---------------------------------------------------------------------------

// Schema is one schema file of the project.
type Schema struct {
	// Name is the file name without extension; catalogs are named after it.
	Name string
	// Key is the path relative to the project root, with forward slashes.
	Key string
	// Path is the absolute path.
	Path string
}

// Project is a File resolved against a root directory.
type Project struct {
	File      *File
	Root      string
	Schemas   []Schema
	Languages []string
}

// Resolve expands the schema patterns and, when no languages are listed,
// detects them from the translations directory.
func (f *File) Resolve(projectRoot string) (*Project, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	p := &Project{File: f, Root: root}
	seen := make(map[string]string)
	for _, pattern := range f.Schemas {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("schemas: bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("schemas: %q matches no files", pattern)
		}
		sort.Strings(matches)
		for _, path := range matches {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil, err
			}
			key := filepath.ToSlash(rel)
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if prev, ok := seen[name]; ok {
				if prev == key {
					continue
				}
				return nil, fmt.Errorf("schemas: %s and %s would share catalog %q", prev, key, name)
			}
			seen[name] = key
			p.Schemas = append(p.Schemas, Schema{Name: name, Key: key, Path: path})
		}
	}

	p.Languages = f.Languages
	if len(p.Languages) == 0 {
		p.Languages = detectLanguages(filepath.Join(root, f.TranslationsDir), f.SourceLang)
	}
	return p, nil
}

// detectLanguages finds language subdirectories of the translations
// directory, skipping the source language.
func detectLanguages(dir, sourceLang string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		tag, err := canonicalLang(entry.Name())
		if err != nil || tag == sourceLang || tag == "und" {
			continue
		}
		langs = append(langs, tag)
	}
	sort.Strings(langs)
	return langs
}

// ProjectName is the name written into catalog headers.
func (p *Project) ProjectName() string {
	if p.File.Project != "" {
		return p.File.Project
	}
	return filepath.Base(p.Root)
}

// POTPath returns the template path of a schema.
func (p *Project) POTPath(s Schema) string {
	return filepath.Join(p.Root, p.File.TranslationsDir, s.Name+".pot")
}

// POPath returns the catalog path of a schema for lang.
func (p *Project) POPath(lang string, s Schema) string {
	return filepath.Join(p.Root, p.File.TranslationsDir, lang, s.Name+".po")
}

// OutputPath returns where the translated schema for lang is written.
func (p *Project) OutputPath(lang string, s Schema) string {
	return filepath.Join(p.Root, p.File.OutputDir, lang, s.Name+".json")
}

// Indent returns the indentation unit for translated schemas.
func (p *Project) Indent() string {
	return strings.Repeat(" ", p.File.Indent)
}
