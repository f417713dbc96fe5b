// eqtrans: translation kit for survey schemas.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/eq-tools/eqtrans/catalog"
	"github.com/eq-tools/eqtrans/config"
	"github.com/eq-tools/eqtrans/i18n"
	"github.com/eq-tools/eqtrans/lockfile"
	"github.com/eq-tools/eqtrans/merge"
	"github.com/eq-tools/eqtrans/pofile"
	"github.com/eq-tools/eqtrans/schema"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// stderr receives log output and status tables.
var stderr io.Writer = color.Error

var (
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed)
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(stderr, "%s %s\n", infoColor.Sprint("[INFO]"), fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(stderr, "%s %s\n", successColor.Sprint("[OK]"), fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(stderr, "%s %s\n", warnColor.Sprint("[WARN]"), fmt.Sprintf(format, args...))
}

func logError(format string, args ...any) {
	fmt.Fprintf(stderr, "%s %s\n", errorColor.Sprint("[ERROR]"), fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "eqtrans",
		Short: i18n.T("Translation kit for survey schemas"),
		Long: i18n.T(`eqtrans extracts the display text of survey schemas into gettext
catalogs and builds translated schemas from them.

Single files:
  extract     Write the POT template of a schema
  pointers    List the translatable addresses of a schema
  translate   Translate a schema with a .po or .mo catalog
  patch       Apply a translation patch to a schema
  compile     Compile a .po catalog to .mo

Projects (.eqtrans.yaml):
  init        Extract templates and update every language catalog
  build       Write translated schemas for every language
  status      Show translation progress`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", i18n.T("Project root directory"))

	root.AddCommand(
		newExtractCmd(),
		newPointersCmd(),
		newTranslateCmd(),
		newPatchCmd(),
		newCompileCmd(),
		newInitCmd(),
		newBuildCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "eqtrans version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// extract
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	var output, project string

	cmd := &cobra.Command{
		Use:   "extract <schema>",
		Short: i18n.T("Write the POT template of a schema"),
		Long: i18n.T(`Extract every translatable string of a schema into a POT template.

Each message lists the addresses it was found at and is annotated with the id
of its answer and the title of its question.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			if project == "" {
				project = schemaName(args[0])
			}

			tmpl := s.Catalog()
			var buf bytes.Buffer
			if err := tmpl.PO(pofile.MakeHeader(project, version, "")).Write(&buf); err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, buf.Bytes()); err != nil {
				return err
			}
			if !isStdout(output) {
				logSuccess(i18n.T("Extracted %d strings to %s"), tmpl.Len(), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", i18n.T("Output .pot file (- for stdout)"))
	cmd.Flags().StringVar(&project, "project", "", i18n.T("Project name for the header (default: schema file name)"))

	return cmd
}

// ---------------------------------------------------------------------------
// pointers
// ---------------------------------------------------------------------------

var pointerKinds = map[string]func(*schema.Schema) []string{
	"all":     (*schema.Schema).Pointers,
	"titles":  (*schema.Schema).TitlePointers,
	"lists":   (*schema.Schema).ListPointers,
	"answers": (*schema.Schema).AnswerPointers,
}

func newPointersCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "pointers <schema>",
		Short: i18n.T("List the translatable addresses of a schema"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			find, ok := pointerKinds[kind]
			if !ok {
				return fmt.Errorf(i18n.T("unknown kind %q (valid: all, titles, lists, answers)"), kind)
			}
			s, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, addr := range find(s) {
				text, _ := s.Text(addr)
				fmt.Fprintf(out, "%s\t%s\n", addr, text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "all", i18n.T("Addresses to list: all, titles, lists, answers"))

	return cmd
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		output  string
		asPatch bool
		indent  int
	)

	cmd := &cobra.Command{
		Use:   "translate <schema> <catalog.po|catalog.mo>",
		Short: i18n.T("Translate a schema with a .po or .mo catalog"),
		Long: i18n.T(`Write the schema with every translatable string replaced by its
translation. Untranslated and fuzzy messages keep the source text.

With --patch the result is an RFC 6902 JSON Patch of replace operations
instead of the translated document.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			tr, err := loadTranslations(args[1])
			if err != nil {
				return err
			}

			prefix := strings.Repeat(" ", indent)
			var data []byte
			if asPatch {
				patch, err := s.TranslationPatch(tr)
				if err != nil {
					return err
				}
				if data, err = json.MarshalIndent(patch, "", prefix); err != nil {
					return fmt.Errorf("encoding patch: %w", err)
				}
				data = append(data, '\n')
			} else {
				if data, err = s.Translate(tr).MarshalIndent("", prefix); err != nil {
					return err
				}
			}

			if err := writeOutput(cmd.OutOrStdout(), output, data); err != nil {
				return err
			}
			total, translated := s.Coverage(tr)
			logInfo(i18n.T("Translated %d of %d strings"), translated, total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", i18n.T("Output file (- for stdout)"))
	cmd.Flags().BoolVar(&asPatch, "patch", false, i18n.T("Write a JSON Patch instead of the translated schema"))
	cmd.Flags().IntVar(&indent, "indent", config.DefaultIndent, i18n.T("Spaces per indentation level"))

	return cmd
}

// ---------------------------------------------------------------------------
// patch
// ---------------------------------------------------------------------------

func newPatchCmd() *cobra.Command {
	var (
		output string
		indent int
	)

	cmd := &cobra.Command{
		Use:   "patch <schema> <patch.json>",
		Short: i18n.T("Apply a translation patch to a schema"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := schema.LoadFile(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[1], err)
			}
			patch, err := jsonpatch.DecodePatch(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			patched, err := schema.ApplyPatch(doc, patch)
			if err != nil {
				return err
			}
			data, err := patched.MarshalIndent("", strings.Repeat(" ", indent))
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, data); err != nil {
				return err
			}
			logInfo(i18n.T("Applied %d operations"), len(patch))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", i18n.T("Output file (- for stdout)"))
	cmd.Flags().IntVar(&indent, "indent", config.DefaultIndent, i18n.T("Spaces per indentation level"))

	return cmd
}

// ---------------------------------------------------------------------------
// compile
// ---------------------------------------------------------------------------

func newCompileCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compile <catalog.po>",
		Short: i18n.T("Compile a .po catalog to .mo"),
		Long: i18n.T(`Compile a PO catalog into a GNU MO file. Only translated messages are
written; fuzzy and obsolete ones are left out.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.LoadPO(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".mo"
			}
			if err := c.WriteMO(output); err != nil {
				return err
			}
			total, translated, _, _ := c.Stats()
			logSuccess(i18n.T("Compiled %s (%d of %d messages)"), output, translated, total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", i18n.T("Output .mo file (default: next to the catalog)"))

	return cmd
}

// ---------------------------------------------------------------------------
// init (extract + create/update PO)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: i18n.T("Extract templates and update every language catalog"),
		Long: i18n.T(`Extract every schema listed in .eqtrans.yaml to a POT template, then
create or update the PO catalog of each language.

Existing translations are kept. When the text at an address changed since the
last run, its old translation is carried over and marked fuzzy. The source
text of every address is recorded in eqtrans.lock for the next run.

This command is idempotent: safe to run multiple times.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			return runInit(proj)
		},
	}
}

func runInit(proj *config.Project) error {
	logInfo(i18n.T("Initializing translations for %s..."), proj.ProjectName())

	lf, err := lockfile.Load(proj.Root)
	if err != nil {
		return err
	}

	var result *multierror.Error
	known := make(map[string]bool)
	for _, sc := range proj.Schemas {
		known[sc.Key] = true
		if err := initSchema(proj, lf, sc); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", sc.Key, err))
		}
	}
	for _, key := range lf.SchemaKeys() {
		if !known[key] {
			lf.RemoveSchema(key)
		}
	}

	if err := lf.Save(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func initSchema(proj *config.Project, lf *lockfile.LockFile, sc config.Schema) error {
	data, err := os.ReadFile(sc.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sc.Path, err)
	}
	root, err := schema.Decode(sc.Path, data)
	if err != nil {
		return err
	}
	s := schema.New(root)

	tmpl := s.Catalog()
	potPath := proj.POTPath(sc)
	if err := tmpl.WritePO(potPath, pofile.MakeHeader(proj.ProjectName(), version, "")); err != nil {
		return err
	}
	logSuccess(i18n.T("Extracted %d strings to %s"), tmpl.Len(), relPath(proj, potPath))

	sources := make(map[string]string)
	for _, addr := range s.Pointers() {
		if text, ok := s.Text(addr); ok {
			sources[addr] = text
		}
	}
	if changed := lf.Changed(sc.Key, sources); len(changed) > 0 {
		logInfo(i18n.T("%s: %d new or changed strings"), sc.Key, len(changed))
	}

	for _, lang := range proj.Languages {
		if err := mergeLanguage(proj, lf, sc, tmpl, lang); err != nil {
			return fmt.Errorf("%s: %w", lang, err)
		}
	}

	lf.Record(sc.Key, string(data), sources)
	return nil
}

func mergeLanguage(proj *config.Project, lf *lockfile.LockFile, sc config.Schema, tmpl *catalog.Catalog, lang string) error {
	poPath := proj.POPath(lang, sc)

	existing := catalog.New(lang)
	header := pofile.MakeHeader(proj.ProjectName(), version, lang)
	if fileExists(poPath) {
		f, err := pofile.ParseFile(poPath)
		if err != nil {
			return err
		}
		existing = catalog.FromPO(f)
		if f.Header != nil && f.Header.MsgStr != "" {
			header = f.Header
		}
	}
	existing.Locale = lang

	merged, st := merge.MergeStats(existing, tmpl, lf.For(sc.Key))
	out := merged.PO(header)
	out.SetHeaderField("POT-Creation-Date", time.Now().UTC().Format("2006-01-02 15:04-0700"))
	if err := out.WriteFile(poPath); err != nil {
		return err
	}

	logSuccess(i18n.T("Updated %s: %d kept, %d fuzzy, %d new, %d obsolete"),
		relPath(proj, poPath), st.Kept, st.Fuzzy, st.Added, st.Obsolete)
	return nil
}

// ---------------------------------------------------------------------------
// build
// ---------------------------------------------------------------------------

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: i18n.T("Write translated schemas for every language"),
		Long: i18n.T(`Translate every schema listed in .eqtrans.yaml with each language's PO
catalog and write the results to the output directory.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			return runBuild(proj)
		},
	}
}

func runBuild(proj *config.Project) error {
	if len(proj.Languages) == 0 {
		logWarning(i18n.T("No target languages. Add languages to %s or run 'eqtrans init'."), config.FileName)
		return nil
	}

	var result *multierror.Error
	for _, sc := range proj.Schemas {
		s, err := loadSchema(sc.Path)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		for _, lang := range proj.Languages {
			if err := buildLanguage(proj, s, sc, lang); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s (%s): %w", sc.Key, lang, err))
			}
		}
	}
	return result.ErrorOrNil()
}

func buildLanguage(proj *config.Project, s *schema.Schema, sc config.Schema, lang string) error {
	poPath := proj.POPath(lang, sc)
	if !fileExists(poPath) {
		logWarning(i18n.T("%s: no %s catalog, run 'eqtrans init'"), sc.Key, lang)
		return nil
	}
	c, err := catalog.LoadPO(poPath)
	if err != nil {
		return err
	}

	data, err := s.Translate(c).MarshalIndent("", proj.Indent())
	if err != nil {
		return err
	}
	outPath := proj.OutputPath(lang, sc)
	if err := writeOutput(nil, outPath, data); err != nil {
		return err
	}

	total, translated := s.Coverage(c)
	logSuccess(i18n.T("Built %s (%d of %d strings translated)"), relPath(proj, outPath), translated, total)
	return nil
}

// ---------------------------------------------------------------------------
// status (read-only: project info + translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show translation progress"),
		Long: i18n.T(`Show the project configuration and, per schema and language, how many
messages are translated, fuzzy and untranslated. Does not modify any files.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			return runStatus(proj)
		},
	}
}

func runStatus(proj *config.Project) error {
	lf, err := lockfile.Load(proj.Root)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "\n%s\n", infoColor.Sprint(i18n.T("Project")))
	fmt.Fprintln(stderr, strings.Repeat("─", 60))
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Name:"), proj.ProjectName())
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Root:"), proj.Root)
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Source:"), languageLabel(proj.File.SourceLang))
	if len(proj.Languages) > 0 {
		labels := make([]string, len(proj.Languages))
		for i, l := range proj.Languages {
			labels[i] = languageLabel(l)
		}
		fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Languages:"), strings.Join(labels, ", "))
	} else {
		fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Languages:"), i18n.T("none"))
	}
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Lock file:"), lf.Summary())
	fmt.Fprintln(stderr)

	var result *multierror.Error
	for _, sc := range proj.Schemas {
		if err := showSchemaStats(proj, lf, sc); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", sc.Key, err))
		}
	}
	return result.ErrorOrNil()
}

func showSchemaStats(proj *config.Project, lf *lockfile.LockFile, sc config.Schema) error {
	data, err := os.ReadFile(sc.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sc.Path, err)
	}
	root, err := schema.Decode(sc.Path, data)
	if err != nil {
		return err
	}
	total := schema.New(root).Catalog().Len()

	fmt.Fprintf(stderr, "%s %s\n", infoColor.Sprint(sc.Key), fmt.Sprintf(i18n.T("(%d strings)"), total))
	if lf.Stale(sc.Key, string(data)) {
		logWarning(i18n.T("%s changed since the catalogs were updated, run 'eqtrans init'"), sc.Key)
	}
	if total == 0 || len(proj.Languages) == 0 {
		fmt.Fprintln(stderr)
		return nil
	}

	fmt.Fprintf(stderr, "%-10s %-12s %-10s %-10s %s\n", i18n.T("Lang"), i18n.T("Translated"), i18n.T("Fuzzy"), i18n.T("Untrans."), i18n.T("Progress"))
	fmt.Fprintln(stderr, strings.Repeat("─", 60))
	for _, lang := range proj.Languages {
		poPath := proj.POPath(lang, sc)
		if !fileExists(poPath) {
			fmt.Fprintf(stderr, "%-10s %-12s %-10s %-10s %s\n", lang, i18n.T("missing"), "-", "-", "-")
			continue
		}
		c, err := catalog.LoadPO(poPath)
		if err != nil {
			return err
		}
		_, translated, fuzzy, untranslated := c.Stats()
		fmt.Fprintf(stderr, "%-10s %-12d %-10d %-10d %s\n", lang, translated, fuzzy, untranslated,
			progressBar(translated*100/total, 20))
	}
	fmt.Fprintln(stderr)
	return nil
}

// progressBar renders percent as a colored bar followed by the number.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	c := errorColor
	switch {
	case percent >= 100:
		c = successColor
	case percent >= 50:
		c = warnColor
	}
	return fmt.Sprintf("%s %3d%%", c.Sprint(bar), percent)
}

// languageLabel renders "cy (Cymraeg)".
func languageLabel(lang string) string {
	name := pofile.LanguageName(lang)
	if name == "" || name == lang {
		return lang
	}
	return fmt.Sprintf("%s (%s)", lang, name)
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// loadProject reads .eqtrans.yaml from the root directory.
func loadProject() (*config.Project, error) {
	f, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf(i18n.T("no %s found in %s"), config.FileName, rootDir)
	}
	proj, err := f.Resolve(rootDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.FileName, err)
	}
	return proj, nil
}

func loadSchema(path string) (*schema.Schema, error) {
	root, err := schema.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return schema.New(root), nil
}

// loadTranslations opens a .po or .mo catalog.
func loadTranslations(path string) (schema.Translations, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mo":
		mo, err := catalog.LoadMO(path)
		if err != nil {
			return nil, err
		}
		return mo, nil
	case ".po":
		c, err := catalog.LoadPO(path)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf(i18n.T("%s: unsupported catalog format (want .po or .mo)"), path)
}

func isStdout(path string) bool {
	return path == "" || path == "-"
}

// writeOutput writes data to path, or to w when path is "" or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if isStdout(path) {
		_, err := w.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// schemaName is the file name without directory and extension.
func schemaName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// relPath shortens path for log output.
func relPath(proj *config.Project, path string) string {
	if rel, err := filepath.Rel(proj.Root, path); err == nil {
		return rel
	}
	return path
}

// fileExists returns true if the file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
