// Package lockfile implements eqtrans.lock, a record of the source text every
// schema address held when its catalogs were last updated. Merging consults it
// to carry a translation over, marked fuzzy, when the text at an address
// changes.
//
// The lock file is stored alongside .eqtrans.yaml as eqtrans.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "eqtrans.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Entry is the state recorded for one schema.
type Entry struct {
	// Checksum is the MD5 of the schema file the sources were taken from.
	Checksum string `yaml:"checksum,omitempty"`
	// Sources maps schema address to source text.
	Sources map[string]string `yaml:"sources"`
}

// LockFile represents the eqtrans.lock file structure.
type LockFile struct {
	Version int               `yaml:"version"`
	Schemas map[string]*Entry `yaml:"schemas"` // schema key -> entry

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version: Version,
		Schemas: make(map[string]*Entry),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported lock file version %d", path, lf.Version)
	}

	if lf.Schemas == nil {
		lf.Schemas = make(map[string]*Entry)
	}
	for k, e := range lf.Schemas {
		// A schema key with no body decodes to a nil entry.
		if e == nil {
			lf.Schemas[k] = &Entry{Sources: make(map[string]string)}
			continue
		}
		if e.Sources == nil {
			e.Sources = make(map[string]string)
		}
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Source operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// SchemaKey builds the key a schema is recorded under: its path relative to
// the project root, with forward slashes.
func SchemaKey(relPath string) string {
	return filepath.ToSlash(relPath)
}

func (lf *LockFile) entry(schema string) *Entry {
	e := lf.Schemas[schema]
	if e == nil {
		e = &Entry{Sources: make(map[string]string)}
		lf.Schemas[schema] = e
	}
	return e
}

// Record replaces the sources recorded for schema with sources (address ->
// text) and stores the checksum of the schema file content.
func (lf *LockFile) Record(schema, content string, sources map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	e := lf.entry(schema)
	e.Checksum = Hash(content)
	e.Sources = make(map[string]string, len(sources))
	for addr, text := range sources {
		e.Sources[addr] = text
	}
}

// Previous returns the source text recorded for addr in schema.
func (lf *LockFile) Previous(schema, addr string) (string, bool) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	e := lf.Schemas[schema]
	if e == nil {
		return "", false
	}
	text, ok := e.Sources[addr]
	return text, ok
}

// Stale reports whether the schema file content differs from what was
// recorded. A schema never recorded is stale.
func (lf *LockFile) Stale(schema, content string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	e := lf.Schemas[schema]
	return e == nil || e.Checksum != Hash(content)
}

// Changed returns, sorted, the addresses of current (address -> text) that
// are new or whose text differs from the recorded one.
func (lf *LockFile) Changed(schema string, current map[string]string) []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	var recorded map[string]string
	if e := lf.Schemas[schema]; e != nil {
		recorded = e.Sources
	}

	var changed []string
	for addr, text := range current {
		if old, ok := recorded[addr]; !ok || old != text {
			changed = append(changed, addr)
		}
	}
	sort.Strings(changed)
	return changed
}

// Clean removes the addresses of schema not listed in keep. This prevents
// stale entries from accumulating.
func (lf *LockFile) Clean(schema string, keep []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	e := lf.Schemas[schema]
	if e == nil {
		return
	}

	valid := make(map[string]bool, len(keep))
	for _, k := range keep {
		valid[k] = true
	}
	for addr := range e.Sources {
		if !valid[addr] {
			delete(e.Sources, addr)
		}
	}
}

// RemoveSchema forgets everything recorded for schema.
func (lf *LockFile) RemoveSchema(schema string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Schemas, schema)
}

// ---------------------------------------------------------------------------
// Merge adapter
// ---------------------------------------------------------------------------

// View is the lock file seen from a single schema.
type View struct {
	lf     *LockFile
	schema string
}

// For returns the view of schema. It satisfies merge.Previous.
func (lf *LockFile) For(schema string) View {
	return View{lf: lf, schema: schema}
}

// Previous returns the source text recorded for addr.
func (v View) Previous(addr string) (string, bool) {
	return v.lf.Previous(v.schema, addr)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of schemas and total addresses in the lock file.
func (lf *LockFile) Stats() (schemas, addrs int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	schemas = len(lf.Schemas)
	for _, e := range lf.Schemas {
		addrs += len(e.Sources)
	}
	return
}

// SchemaKeys returns the sorted list of recorded schemas.
func (lf *LockFile) SchemaKeys() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys := make([]string, 0, len(lf.Schemas))
	for k := range lf.Schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	keys := lf.SchemaKeys()
	if len(keys) == 0 {
		return "empty"
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()

	total := 0
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		n := len(lf.Schemas[k].Sources)
		total += n
		parts = append(parts, fmt.Sprintf("%s: %d strings", k, n))
	}
	return fmt.Sprintf("%d schemas, %d strings (%s)", len(keys), total, strings.Join(parts, ", "))
}
