// Package pofile reads and writes the GNU gettext PO/POT files that carry
// survey translation catalogs between eqtrans and translators.
//
// Only singular messages are modelled. Plural entries written by other tools
// are read leniently: msgstr[0] becomes the translation and the remaining
// forms are dropped.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Entry is a single message of a PO file.
type Entry struct {
	// TranslatorComments are "# " lines.
	TranslatorComments []string
	// ExtractedComments are "#." lines written by the extractor.
	ExtractedComments []string
	// References are "#:" lines; eqtrans stores schema addresses here.
	References []string
	// Flags are "#," values such as fuzzy.
	Flags []string
	// PreviousMsgID is the "#| msgid" of a fuzzy entry.
	PreviousMsgID string

	MsgCtxt string
	MsgID   string
	MsgStr  string

	// Obsolete marks "#~" entries.
	Obsolete bool
}

// IsFuzzy reports whether the entry carries the fuzzy flag.
func (e *Entry) IsFuzzy() bool { return e.HasFlag("fuzzy") }

// HasFlag reports whether flag is present.
func (e *Entry) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// IsTranslated reports whether the entry has a usable translation.
func (e *Entry) IsTranslated() bool {
	return e.MsgID != "" && e.MsgStr != "" && !e.IsFuzzy()
}

// File is a parsed PO or POT file.
type File struct {
	// Header is the msgid "" entry.
	Header  *Entry
	Entries []*Entry
}

// NewFile returns a file with an empty header.
func NewFile() *File {
	return &File{Header: &Entry{}}
}

// HeaderField returns the value of a header field, matched case-insensitively.
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// SetHeaderField replaces or appends a header field.
func (f *File) SetHeaderField(name, value string) {
	if f.Header == nil {
		f.Header = &Entry{}
	}
	field := name + ": " + value
	lines := strings.Split(strings.TrimSuffix(f.Header.MsgStr, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}
	replaced := false
	for i, line := range lines {
		if key, _, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(key), name) {
			lines[i] = field
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, field)
	}
	f.Header.MsgStr = strings.Join(lines, "\n") + "\n"
}

// Entry returns the live (non-obsolete) entry with the given msgid.
func (f *File) Entry(msgid string) *Entry {
	for _, e := range f.Entries {
		if e.MsgID == msgid && !e.Obsolete {
			return e
		}
	}
	return nil
}

// Stats counts live entries.
func (f *File) Stats() (total, translated, fuzzy, untranslated int) {
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete {
			continue
		}
		total++
		switch {
		case e.IsFuzzy():
			fuzzy++
		case e.IsTranslated():
			translated++
		default:
			untranslated++
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// field names the keyword a continuation line extends.
type field int

const (
	fieldNone field = iota
	fieldCtxt
	fieldID
	fieldPlural
	fieldStr
	fieldStrN
)

type parser struct {
	file    *File
	cur     *Entry
	last    field
	pluralN int
}

func (p *parser) entry() *Entry {
	if p.cur == nil {
		p.cur = &Entry{}
	}
	return p.cur
}

func (p *parser) flush() {
	if p.cur == nil {
		return
	}
	if p.cur.MsgID == "" && !p.cur.Obsolete {
		p.file.Header = p.cur
	} else {
		p.file.Entries = append(p.file.Entries, p.cur)
	}
	p.cur = nil
	p.last = fieldNone
}

func (p *parser) comment(line string) {
	e := p.entry()
	switch {
	case strings.HasPrefix(line, "#:"):
		e.References = append(e.References, strings.Fields(line[2:])...)
	case strings.HasPrefix(line, "#,"):
		for _, flag := range strings.Split(line[2:], ",") {
			if flag = strings.TrimSpace(flag); flag != "" {
				e.Flags = append(e.Flags, flag)
			}
		}
	case strings.HasPrefix(line, "#."):
		e.ExtractedComments = append(e.ExtractedComments, strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#|"):
		if prev, ok := strings.CutPrefix(strings.TrimSpace(line[2:]), "msgid "); ok {
			e.PreviousMsgID = unquote(prev)
		}
	default:
		e.TranslatorComments = append(e.TranslatorComments, strings.TrimPrefix(line[1:], " "))
	}
}

func (p *parser) keyword(line string, lineNum int) error {
	e := p.entry()
	kw, rest, _ := strings.Cut(line, " ")
	switch {
	case kw == "msgctxt":
		e.MsgCtxt, p.last = unquote(rest), fieldCtxt
	case kw == "msgid":
		e.MsgID, p.last = unquote(rest), fieldID
	case kw == "msgid_plural":
		p.last = fieldPlural
	case kw == "msgstr":
		e.MsgStr, p.last = unquote(rest), fieldStr
	case strings.HasPrefix(kw, "msgstr["):
		if _, err := fmt.Sscanf(kw, "msgstr[%d]", &p.pluralN); err != nil {
			return fmt.Errorf("line %d: invalid msgstr index: %s", lineNum, line)
		}
		if p.pluralN == 0 {
			e.MsgStr = unquote(rest)
		}
		p.last = fieldStrN
	default:
		return fmt.Errorf("line %d: unknown keyword %q", lineNum, kw)
	}
	return nil
}

func (p *parser) continuation(line string) {
	e := p.entry()
	val := unquote(line)
	switch p.last {
	case fieldCtxt:
		e.MsgCtxt += val
	case fieldID:
		e.MsgID += val
	case fieldStr:
		e.MsgStr += val
	case fieldStrN:
		if p.pluralN == 0 {
			e.MsgStr += val
		}
	}
}

// Parse reads a PO/POT file.
func Parse(r io.Reader) (*File, error) {
	p := &parser{file: NewFile()}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			p.flush()
			continue
		}
		if rest, ok := strings.CutPrefix(line, "#~ "); ok {
			p.entry().Obsolete = true
			line = rest
		}

		var err error
		switch {
		case strings.HasPrefix(line, "#~"):
			// Obsolete previous-msgid lines carry nothing we keep.
		case strings.HasPrefix(line, "#"):
			p.comment(line)
		case strings.HasPrefix(line, `"`):
			p.continuation(line)
		default:
			err = p.keyword(line, lineNum)
		}
		if err != nil {
			return nil, err
		}
	}
	p.flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}
	return p.file, nil
}

// ParseFile reads a PO/POT file from disk.
func ParseFile(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	f, err := Parse(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Write serialises the file.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	first := true
	if f.Header != nil {
		writeEntry(bw, f.Header)
		first = false
	}
	for _, e := range f.Entries {
		if !first {
			bw.WriteByte('\n')
		}
		first = false
		writeEntry(bw, e)
	}
	return bw.Flush()
}

// WriteFile writes the file to disk, creating parent directories.
func (f *File) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

func writeEntry(w *bufio.Writer, e *Entry) {
	for _, c := range e.TranslatorComments {
		fmt.Fprintf(w, "# %s\n", c)
	}
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	for _, ref := range e.References {
		fmt.Fprintf(w, "#: %s\n", ref)
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}
	if e.PreviousMsgID != "" {
		fmt.Fprintf(w, "#| msgid %s\n", quote(e.PreviousMsgID))
	}

	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}
	if e.MsgCtxt != "" {
		writeField(w, prefix, "msgctxt", e.MsgCtxt)
	}
	writeField(w, prefix, "msgid", e.MsgID)
	writeField(w, prefix, "msgstr", e.MsgStr)
}

// writeField splits multi-line values the way msgmerge does: an empty first
// line followed by one quoted line per source line.
func writeField(w *bufio.Writer, prefix, keyword, value string) {
	if !strings.Contains(value, "\n") || value == "\n" {
		fmt.Fprintf(w, "%s%s %s\n", prefix, keyword, quote(value))
		return
	}
	fmt.Fprintf(w, "%s%s \"\"\n", prefix, keyword)
	for _, part := range strings.SplitAfter(value, "\n") {
		if part != "" {
			fmt.Fprintf(w, "%s%s\n", prefix, quote(part))
		}
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '"':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Headers
// ---------------------------------------------------------------------------

// MakeHeader builds a header entry for a catalog of project. lang may be empty
// for POT templates.
func MakeHeader(project, version, lang string) *Entry {
	now := time.Now().UTC().Format("2006-01-02 15:04-0700")

	var b strings.Builder
	fmt.Fprintf(&b, "Project-Id-Version: %s %s\n", project, version)
	fmt.Fprintf(&b, "POT-Creation-Date: %s\n", now)
	fmt.Fprintf(&b, "PO-Revision-Date: %s\n", now)
	b.WriteString("Last-Translator: \n")
	fmt.Fprintf(&b, "Language-Team: %s\n", LanguageName(lang))
	fmt.Fprintf(&b, "Language: %s\n", lang)
	b.WriteString("MIME-Version: 1.0\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\n")

	return &Entry{
		TranslatorComments: []string{
			fmt.Sprintf("Translations for %s.", project),
		},
		MsgStr: b.String(),
	}
}

// LanguageName returns the self-name of a language ("Cymraeg" for "cy"), or
// the code itself when it is not a recognised BCP 47 tag.
func LanguageName(lang string) string {
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return lang
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return lang
}
