package schema

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// Translations supplies translated text by source text. *catalog.Catalog,
// *catalog.MO and catalog.Map implement it.
type Translations interface {
	Lookup(source string) (string, bool)
}

// substitution is one translated string and where it goes.
type substitution struct {
	addr   string
	source string
	text   string
}

// substitutions lists the strings tr changes, in document order. A string is
// looked up as-is and then by its catalog id (SmartQuotes). A translation
// equal to the catalog id only restyles quotes and is skipped, so a catalog
// whose translations equal their ids leaves the document unchanged.
func (s *Schema) substitutions(tr Translations) []substitution {
	if tr == nil {
		return nil
	}
	var subs []substitution
	for _, addr := range s.pointers {
		source, ok := s.Text(addr)
		if !ok || source == "" {
			continue
		}
		text, ok := lookup(tr, source)
		if !ok {
			continue
		}
		subs = append(subs, substitution{addr: addr, source: source, text: text})
	}
	return subs
}

// lookup returns the text that replaces source, reporting false when tr has
// nothing that would change it.
func lookup(tr Translations, source string) (string, bool) {
	if t, ok := tr.Lookup(source); ok && t != "" {
		return t, t != source
	}
	id := SmartQuotes(source)
	if id == source {
		return "", false
	}
	t, ok := tr.Lookup(id)
	if !ok || t == "" || t == id {
		return "", false
	}
	return t, true
}

// Translate returns a copy of the document with every translatable string
// replaced by its translation. Strings tr does not know keep their source
// text. The wrapped document is not modified.
func (s *Schema) Translate(tr Translations) *Node {
	out := s.root.Clone()
	for _, sub := range s.substitutions(tr) {
		// Cannot fail: the address was found in an identical tree.
		_ = out.Set(sub.addr, NewString(sub.text))
	}
	return out
}

// Coverage reports how many non-empty translatable strings the document has
// and how many of them Translate would replace.
func (s *Schema) Coverage(tr Translations) (total, translated int) {
	for _, addr := range s.pointers {
		if source, ok := s.Text(addr); ok && source != "" {
			total++
		}
	}
	return total, len(s.substitutions(tr))
}

// ---------------------------------------------------------------------------
// JSON Patch
// ---------------------------------------------------------------------------

type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// TranslationPatch expresses Translate as an RFC 6902 patch of "replace"
// operations, one per changed string. Applying it to the source document
// yields the translated document.
func (s *Schema) TranslationPatch(tr Translations) (jsonpatch.Patch, error) {
	subs := s.substitutions(tr)
	ops := make([]patchOp, len(subs))
	for i, sub := range subs {
		ops[i] = patchOp{Op: "replace", Path: sub.addr, Value: sub.text}
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("encoding patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(data)
	if err != nil {
		return nil, fmt.Errorf("decoding patch: %w", err)
	}
	return patch, nil
}

// ApplyPatch applies patch to the JSON encoding of doc and returns the result
// as a new tree. Mapping keys of the result are sorted.
func ApplyPatch(doc *Node, patch jsonpatch.Patch) (*Node, error) {
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	out, err := patch.Apply(data)
	if err != nil {
		return nil, fmt.Errorf("applying patch: %w", err)
	}
	return Parse(out)
}
