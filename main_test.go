package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/eq-tools/eqtrans/catalog"
	"github.com/eq-tools/eqtrans/pofile"
	"github.com/eq-tools/eqtrans/schema"
)

const censusFixture = "schema/testdata/census.json"

// run executes the root command and returns what it wrote to stdout and
// to the log.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, logs bytes.Buffer
	old := stderr
	stderr = &logs
	defer func() { stderr = old }()

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), logs.String(), err
}

func noColor(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func TestProgressBar(t *testing.T) {
	noColor(t)

	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{name: "clamps below zero", percent: -10, width: 4, want: "░░░░   0%"},
		{name: "mid range", percent: 50, width: 4, want: "██░░  50%"},
		{name: "clamps above hundred", percent: 120, width: 4, want: "████ 100%"},
	}

	for _, tc := range tests {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestLogHelpers(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	old := stderr
	stderr = &buf
	defer func() { stderr = old }()

	logInfo("a %d", 1)
	logSuccess("b")
	logWarning("c")
	logError("d %s", "x")

	want := "[INFO] a 1\n[OK] b\n[WARN] c\n[ERROR] d x\n"
	if buf.String() != want {
		t.Fatalf("log output = %q, want %q", buf.String(), want)
	}
}

func TestHelpers(t *testing.T) {
	if got := schemaName("schemas/census.household.json"); got != "census.household" {
		t.Fatalf("schemaName() = %q", got)
	}
	if got := languageLabel("cy"); got != "cy (Cymraeg)" {
		t.Fatalf("languageLabel(cy) = %q", got)
	}
	if !isStdout("-") || !isStdout("") || isStdout("out.json") {
		t.Fatal("isStdout mismatch")
	}
	if _, err := loadTranslations("catalog.xliff"); err == nil {
		t.Fatal("expected error for unsupported catalog format")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("ok"), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}

	if !fileExists(filePath) {
		t.Fatalf("fileExists(file) = false, want true")
	}
	if fileExists(dir) {
		t.Fatalf("fileExists(directory) = true, want false")
	}
	if fileExists(filepath.Join(dir, "missing.txt")) {
		t.Fatalf("fileExists(missing) = true, want false")
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out, "eqtrans version dev\n") {
		t.Fatalf("version output = %q", out)
	}
}

func TestExtractCommand(t *testing.T) {
	out, _, err := run(t, "extract", censusFixture)
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	f, err := pofile.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parsing extracted POT: %v", err)
	}
	if got := f.HeaderField("Project-Id-Version"); got != "census dev" {
		t.Fatalf("Project-Id-Version = %q, want census dev", got)
	}
	e := f.Entry("What is ‘this persons’ date of birth?")
	if e == nil {
		t.Fatal("smart-quoted title missing from template")
	}
	if len(e.References) != 1 || e.References[0] != "/sections/0/groups/0/blocks/1/questions/0/title" {
		t.Fatalf("references = %v", e.References)
	}

	potPath := filepath.Join(t.TempDir(), "out", "census.pot")
	if _, logs, err := run(t, "extract", censusFixture, "-o", potPath); err != nil {
		t.Fatalf("extract -o error: %v", err)
	} else if !strings.Contains(logs, "Extracted") {
		t.Fatalf("missing success log: %q", logs)
	}
	if !fileExists(potPath) {
		t.Fatalf("%s not written", potPath)
	}
}

func TestPointersCommand(t *testing.T) {
	out, _, err := run(t, "pointers", censusFixture, "--kind", "titles")
	if err != nil {
		t.Fatalf("pointers error: %v", err)
	}
	want := "/sections/0/groups/0/blocks/3/titles/0/value\tCalculated Summary Main Title Block 2\n" +
		"/sections/0/groups/0/blocks/3/calculation/titles/0/value\tCalculated Summary Calculation Title Block 2\n"
	if out != want {
		t.Fatalf("pointers output = %q, want %q", out, want)
	}

	if _, _, err := run(t, "pointers", censusFixture, "--kind", "bogus"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func writeWelshCatalog(t *testing.T, path string) {
	t.Helper()
	c := catalog.New("cy")
	c.Add(catalog.Message{ID: "Answering for this person", String: "WELSH - Answering for this person"})
	c.Add(catalog.Message{ID: "Answering myself", String: "WELSH - Answering myself"})
	if err := c.WritePO(path, pofile.MakeHeader("census", "dev", "cy")); err != nil {
		t.Fatalf("WritePO: %v", err)
	}
}

func TestTranslateAndPatchCommands(t *testing.T) {
	dir := t.TempDir()
	poPath := filepath.Join(dir, "cy.po")
	writeWelshCatalog(t, poPath)

	out, logs, err := run(t, "translate", censusFixture, poPath)
	if err != nil {
		t.Fatalf("translate error: %v", err)
	}
	if !strings.Contains(logs, "Translated 2 of") {
		t.Fatalf("coverage log = %q", logs)
	}
	translated, err := schema.Parse([]byte(out))
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	label, _ := translated.Get("/sections/0/groups/0/blocks/2/questions/0/answers/0/options/1/label")
	if s, _ := label.Str(); s != "WELSH - Answering myself" {
		t.Fatalf("translated label = %q", s)
	}
	if !strings.HasPrefix(out, "{\n    \"mime_type\"") {
		t.Fatalf("output should keep key order and four-space indent: %q", out[:40])
	}

	patchPath := filepath.Join(dir, "cy.patch.json")
	if _, _, err := run(t, "translate", censusFixture, poPath, "--patch", "-o", patchPath); err != nil {
		t.Fatalf("translate --patch error: %v", err)
	}
	patched, _, err := run(t, "patch", censusFixture, patchPath)
	if err != nil {
		t.Fatalf("patch error: %v", err)
	}
	fromPatch, err := schema.Parse([]byte(patched))
	if err != nil {
		t.Fatalf("parsing patched output: %v", err)
	}
	if !schema.Equal(fromPatch, translated) {
		t.Fatal("patched schema differs from translated schema")
	}
}

func TestCompileAndTranslateWithMO(t *testing.T) {
	dir := t.TempDir()
	poPath := filepath.Join(dir, "cy.po")
	writeWelshCatalog(t, poPath)

	if _, _, err := run(t, "compile", poPath); err != nil {
		t.Fatalf("compile error: %v", err)
	}
	moPath := filepath.Join(dir, "cy.mo")
	if !fileExists(moPath) {
		t.Fatalf("%s not written", moPath)
	}

	out, _, err := run(t, "translate", censusFixture, moPath)
	if err != nil {
		t.Fatalf("translate with .mo error: %v", err)
	}
	if !strings.Contains(out, "WELSH - Answering for this person") {
		t.Fatal("translation from .mo catalog missing")
	}
}

func TestProjectWorkflow(t *testing.T) {
	noColor(t)
	dir := t.TempDir()

	src, err := os.ReadFile(censusFixture)
	if err != nil {
		t.Fatal(err)
	}
	schemaPath := filepath.Join(dir, "schemas", "census.json")
	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(schemaPath, src, 0644); err != nil {
		t.Fatal(err)
	}
	cfg := "project: census\nlanguages: [cy]\nschemas: [\"schemas/*.json\"]\n"
	if err := os.WriteFile(filepath.Join(dir, ".eqtrans.yaml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	// First run creates the template, the Welsh catalog and the lock file.
	if _, _, err := run(t, "--root", dir, "init"); err != nil {
		t.Fatalf("init error: %v", err)
	}
	poPath := filepath.Join(dir, "translations", "cy", "census.po")
	for _, p := range []string{
		filepath.Join(dir, "translations", "census.pot"),
		poPath,
		filepath.Join(dir, "eqtrans.lock"),
	} {
		if !fileExists(p) {
			t.Fatalf("%s not created", p)
		}
	}

	// A translator fills in one message.
	f, err := pofile.ParseFile(poPath)
	if err != nil {
		t.Fatal(err)
	}
	f.Entry("Answering myself").MsgStr = "WELSH - Answering myself"
	if err := f.WriteFile(poPath); err != nil {
		t.Fatal(err)
	}

	if _, _, err := run(t, "--root", dir, "build"); err != nil {
		t.Fatalf("build error: %v", err)
	}
	built, err := os.ReadFile(filepath.Join(dir, "build", "cy", "census.json"))
	if err != nil {
		t.Fatalf("reading built schema: %v", err)
	}
	if !strings.Contains(string(built), "WELSH - Answering myself") {
		t.Fatal("built schema is not translated")
	}

	// The source text changes; the next init carries the translation over.
	edited := strings.Replace(string(src), `"label": "Answering myself"`, `"label": "Answering for myself"`, 1)
	if err := os.WriteFile(schemaPath, []byte(edited), 0644); err != nil {
		t.Fatal(err)
	}

	_, logs, err := run(t, "--root", dir, "status")
	if err != nil {
		t.Fatalf("status error: %v", err)
	}
	if !strings.Contains(logs, "schemas/census.json") || !strings.Contains(logs, "eqtrans init") {
		t.Fatalf("status should flag the changed schema: %q", logs)
	}

	if _, _, err := run(t, "--root", dir, "init"); err != nil {
		t.Fatalf("second init error: %v", err)
	}
	c, err := catalog.LoadPO(poPath)
	if err != nil {
		t.Fatal(err)
	}
	msg, ok := c.Get("Answering for myself")
	if !ok {
		t.Fatal("new message missing after init")
	}
	if msg.String != "WELSH - Answering myself" || !msg.IsFuzzy() {
		t.Fatalf("new message = %q fuzzy=%v, want inherited fuzzy translation", msg.String, msg.IsFuzzy())
	}
	if msg.PreviousID != "Answering myself" {
		t.Fatalf("PreviousID = %q", msg.PreviousID)
	}
	if old, ok := c.Get("Answering myself"); !ok || !old.Obsolete {
		t.Fatal("old message should be kept as obsolete")
	}

	// Fuzzy translations are not used by build.
	if _, _, err := run(t, "--root", dir, "build"); err != nil {
		t.Fatalf("second build error: %v", err)
	}
	built, _ = os.ReadFile(filepath.Join(dir, "build", "cy", "census.json"))
	if strings.Contains(string(built), "WELSH") {
		t.Fatal("fuzzy translation leaked into build output")
	}
}

func TestProjectCommandsNeedConfig(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"init", "build", "status"} {
		_, _, err := run(t, "--root", dir, name)
		if err == nil || !strings.Contains(err.Error(), ".eqtrans.yaml") {
			t.Fatalf("%s error = %v, want missing config", name, err)
		}
	}
}
