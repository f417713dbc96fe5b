package catalog

import (
	"fmt"
	"slices"

	"github.com/eq-tools/eqtrans/pofile"
)

// FromPO converts a parsed PO/POT file. Extracted comments become
// AutoComments, translator comments become UserComments and references
// become Locations.
func FromPO(f *pofile.File) *Catalog {
	c := New(f.HeaderField("Language"))
	for _, e := range f.Entries {
		if e.MsgID == "" {
			continue
		}
		c.Add(Message{
			ID:           e.MsgID,
			String:       e.MsgStr,
			AutoComments: e.ExtractedComments,
			UserComments: e.TranslatorComments,
			Locations:    e.References,
			Flags:        e.Flags,
			PreviousID:   e.PreviousMsgID,
			Obsolete:     e.Obsolete,
		})
	}
	return c
}

// PO converts the catalog to a PO file with the given header. A nil header
// keeps the empty default.
func (c *Catalog) PO(header *pofile.Entry) *pofile.File {
	f := pofile.NewFile()
	if header != nil {
		f.Header = header
	}
	if c.Locale != "" {
		f.SetHeaderField("Language", c.Locale)
	}
	for _, m := range c.Messages() {
		f.Entries = append(f.Entries, &pofile.Entry{
			TranslatorComments: slices.Clone(m.UserComments),
			ExtractedComments:  slices.Clone(m.AutoComments),
			References:         slices.Clone(m.Locations),
			Flags:              slices.Clone(m.Flags),
			PreviousMsgID:      m.PreviousID,
			MsgID:              m.ID,
			MsgStr:             m.String,
			Obsolete:           m.Obsolete,
		})
	}
	return f
}

// LoadPO reads a PO or POT file into a catalog.
func LoadPO(path string) (*Catalog, error) {
	f, err := pofile.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return FromPO(f), nil
}

// WritePO writes the catalog as a PO file.
func (c *Catalog) WritePO(path string, header *pofile.Entry) error {
	return c.PO(header).WriteFile(path)
}
