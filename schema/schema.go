// Package schema finds the translatable text of a survey schema and rewrites
// it with translations.
//
// A survey schema is a JSON (or YAML) document describing questions, answers,
// options, guidance and content blocks. Every display string in it is
// identified by its address (see package pointer):
//
//	s := schema.New(tree)
//	for _, addr := range s.Pointers() {
//	    text, _ := s.Text(addr)
//	    ...
//	}
//
// Only fields that hold display text are considered translatable: titles,
// labels, descriptions, list entries and guidance toggles. Identifiers, types
// and option values are never touched.
package schema

import (
	"slices"

	"github.com/eq-tools/eqtrans/pointer"
)

// fallbackQuestionPointer is returned by ParentQuestionPointer for addresses
// outside any question.
const fallbackQuestionPointer = "/questions/0"

// Schema wraps a schema document. The document is never modified; the
// translatable addresses are computed once by New and may be read
// concurrently.
type Schema struct {
	root     *Node
	pointers []string
}

// New wraps root. A nil root behaves as an empty mapping.
func New(root *Node) *Schema {
	if root == nil {
		root = NewMapping()
	}
	s := &Schema{root: root}
	s.pointers = s.collectPointers()
	return s
}

// Root returns the wrapped document. Callers must not modify it.
func (s *Schema) Root() *Node { return s.root }

// ---------------------------------------------------------------------------
// Discovery
// ---------------------------------------------------------------------------

// TitlePointers returns the addresses of every titles/<i>/value string.
func (s *Schema) TitlePointers() []string {
	var set addressSet
	s.root.Walk(func(addr string, n *Node) bool {
		for i, item := range titlesSequence(n) {
			set.addText(pointer.Append(addr, pointer.Key("titles"), pointer.Index(i)), item, "value")
		}
		return true
	})
	return set.list
}

// ListPointers returns the addresses of every string in a content block's list.
func (s *Schema) ListPointers() []string {
	var set addressSet
	s.root.Walk(func(addr string, n *Node) bool {
		for i, block := range contentSequence(n) {
			for _, j := range stringList(block) {
				set.add(pointer.Append(addr, pointer.Key("content"), pointer.Index(i), pointer.Key("list"), pointer.Index(j)))
			}
		}
		return true
	})
	return set.list
}

// AnswerPointers returns the addresses of answer labels, option labels,
// detail answers and answer guidance text.
func (s *Schema) AnswerPointers() []string {
	var set addressSet
	s.root.Walk(func(addr string, n *Node) bool {
		for i, answer := range answersSequence(n) {
			collectAnswer(pointer.Append(addr, pointer.Key("answers"), pointer.Index(i)), answer, &set)
		}
		return true
	})
	return set.list
}

func collectAnswer(addr string, answer *Node, set *addressSet) {
	if !isAnswer(answer) {
		return
	}
	set.addText(addr, answer, "label")

	for i, option := range sequenceField(answer, "options") {
		optAddr := pointer.Append(addr, pointer.Key("options"), pointer.Index(i))
		set.addText(optAddr, option, "label")
		if detail := option.Field("detail_answer"); detail != nil {
			collectAnswer(pointer.Append(optAddr, pointer.Key("detail_answer")), detail, set)
		}
	}
	if detail := answer.Field("detail_answer"); detail != nil {
		collectAnswer(pointer.Append(addr, pointer.Key("detail_answer")), detail, set)
	}

	guidance := answer.Field("guidance")
	if guidance.Kind() != Mapping {
		return
	}
	guidanceAddr := pointer.Append(addr, pointer.Key("guidance"))
	for _, key := range guidanceTextFields {
		set.addText(guidanceAddr, guidance, key)
	}
	for i, block := range contentSequence(guidance) {
		blockAddr := pointer.Append(guidanceAddr, pointer.Key("content"), pointer.Index(i))
		set.addText(blockAddr, block, "title")
		set.addText(blockAddr, block, "description")
	}
}

// genericPointers returns every title, description and label string.
func (s *Schema) genericPointers() []string {
	var set addressSet
	s.root.Walk(func(addr string, n *Node) bool {
		if n.Kind() == Mapping {
			for _, key := range genericTextFields {
				set.addText(addr, n, key)
			}
		}
		return true
	})
	return set.list
}

// collectPointers unions every discovery rule and orders the result by
// position in the document.
func (s *Schema) collectPointers() []string {
	var union addressSet
	union.addAll(s.TitlePointers())
	union.addAll(s.ListPointers())
	union.addAll(s.AnswerPointers())
	union.addAll(s.genericPointers())

	ordered := make([]string, 0, len(union.list))
	s.root.Walk(func(addr string, n *Node) bool {
		if n.Kind() == String && union.has(addr) {
			ordered = append(ordered, addr)
		}
		return true
	})
	return ordered
}

// Pointers returns every translatable address in document order.
func (s *Schema) Pointers() []string {
	return slices.Clone(s.pointers)
}

// Text returns the string stored at addr.
func (s *Schema) Text(addr string) (string, bool) {
	n, ok := s.root.Get(addr)
	if !ok {
		return "", false
	}
	return n.Str()
}

// ---------------------------------------------------------------------------
// Relationships
// ---------------------------------------------------------------------------

// ParentID returns the id of the nearest enclosing node that has one. For an
// option label that is the id of the answer the option belongs to.
func (s *Schema) ParentID(addr string) (string, bool) {
	prefixes, err := pointer.ParentPrefixes(addr)
	if err != nil {
		return "", false
	}
	for _, p := range prefixes {
		n, ok := s.root.Get(p)
		if !ok {
			continue
		}
		if id, ok := n.FieldStr("id"); ok {
			return id, true
		}
	}
	return "", false
}

// ParentQuestionPointer returns the address of the question enclosing addr:
// the longest prefix ending in questions/<n>.
//
// Addresses outside any question get "/questions/0", whether or not the
// document has such a question. This mirrors the behaviour translators'
// catalogs were built with; it is wrong for multi-question documents where
// the text lives outside a question.
func (s *Schema) ParentQuestionPointer(addr string) string {
	segs, err := pointer.Parse(addr)
	if err != nil {
		return fallbackQuestionPointer
	}
	for n := len(segs); n >= 2; n-- {
		idx, key := segs[n-1], segs[n-2]
		if idx.IsIndex() && !key.IsIndex() && key.Key() == "questions" {
			return pointer.Render(segs[:n]...)
		}
	}
	return fallbackQuestionPointer
}

// ParentQuestion returns the question enclosing addr, if the document has it.
func (s *Schema) ParentQuestion(addr string) (*Node, bool) {
	return s.root.Get(s.ParentQuestionPointer(addr))
}
