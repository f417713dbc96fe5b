package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/leonelquinteros/gotext"
)

// MO is a compiled gettext catalog.
type MO struct {
	translations map[string]string
}

// LoadMO reads a compiled .mo file.
func LoadMO(path string) (*MO, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseMO(data)
}

// ParseMO parses compiled catalog data.
func ParseMO(data []byte) (*MO, error) {
	if len(data) < 28 {
		return nil, fmt.Errorf("MO data too short (%d bytes)", len(data))
	}
	magic := binary.LittleEndian.Uint32(data)
	if magic != moMagic && binary.BigEndian.Uint32(data) != moMagic {
		return nil, fmt.Errorf("not a MO file (magic %#x)", magic)
	}
	mo := gotext.NewMo()
	mo.Parse(data)

	translations := make(map[string]string)
	for id, tr := range mo.GetDomain().GetTranslations() {
		if id != "" && tr.IsTranslated() {
			translations[id] = tr.Get()
		}
	}
	return &MO{translations: translations}, nil
}

// Lookup returns the translation of source.
func (m *MO) Lookup(source string) (string, bool) {
	if m == nil || source == "" {
		return "", false
	}
	t, ok := m.translations[source]
	return t, ok
}

// ---------------------------------------------------------------------------
// Compiling
// ---------------------------------------------------------------------------

const moMagic = 0x950412de

// MO compiles the translated messages into the GNU MO format, as msgfmt does.
// Fuzzy, obsolete and untranslated messages are left out.
func (c *Catalog) MO() []byte {
	type pair struct{ id, str string }

	header := "Content-Type: text/plain; charset=UTF-8\n"
	if c.Locale != "" {
		header += "Language: " + c.Locale + "\n"
	}
	pairs := []pair{{"", header}}
	for _, m := range c.Messages() {
		if m.IsTranslated() {
			pairs = append(pairs, pair{m.ID, m.String})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	n := uint32(len(pairs))
	origTable := uint32(28)
	transTable := origTable + 8*n
	data := transTable + 8*n

	var ids, strs bytes.Buffer
	idEntries := make([]uint32, 0, 2*n)
	for _, p := range pairs {
		idEntries = append(idEntries, uint32(len(p.id)), data+uint32(ids.Len()))
		ids.WriteString(p.id)
		ids.WriteByte(0)
	}
	strBase := data + uint32(ids.Len())
	strEntries := make([]uint32, 0, 2*n)
	for _, p := range pairs {
		strEntries = append(strEntries, uint32(len(p.str)), strBase+uint32(strs.Len()))
		strs.WriteString(p.str)
		strs.WriteByte(0)
	}

	var out bytes.Buffer
	for _, v := range []uint32{moMagic, 0, n, origTable, transTable, 0, data} {
		binary.Write(&out, binary.LittleEndian, v)
	}
	binary.Write(&out, binary.LittleEndian, idEntries)
	binary.Write(&out, binary.LittleEndian, strEntries)
	out.Write(ids.Bytes())
	out.Write(strs.Bytes())
	return out.Bytes()
}

// WriteMO compiles the catalog to path.
func (c *Catalog) WriteMO(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, c.MO(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
