package schema

import "github.com/eq-tools/eqtrans/pointer"

// Structural shapes the walker recognises. Each predicate looks at a single
// node and reports the children that match; the walker supplies addresses.

// genericTextFields are display-text keys collected wherever they appear.
var genericTextFields = []string{"title", "description", "label"}

// guidanceTextFields are the toggle labels of an answer's guidance panel.
var guidanceTextFields = []string{"hide_guidance", "show_guidance"}

// titlesSequence returns the "titles" entries of n when that field is a
// sequence. Calculated summaries use it for repeated titles.
func titlesSequence(n *Node) []*Node {
	return sequenceField(n, "titles")
}

// contentSequence returns the "content" blocks of n.
func contentSequence(n *Node) []*Node {
	return sequenceField(n, "content")
}

// answersSequence returns the "answers" of n.
func answersSequence(n *Node) []*Node {
	return sequenceField(n, "answers")
}

// stringList returns the indices of the string entries of a block's "list".
func stringList(block *Node) []int {
	var idx []int
	for i, item := range sequenceField(block, "list") {
		if item.Kind() == String {
			idx = append(idx, i)
		}
	}
	return idx
}

// isAnswer reports whether n can be treated as an answer definition.
func isAnswer(n *Node) bool {
	return n.Kind() == Mapping
}

// hasText reports whether n carries a string under key.
func hasText(n *Node, key string) bool {
	_, ok := n.FieldStr(key)
	return ok
}

func sequenceField(n *Node, key string) []*Node {
	f := n.Field(key)
	if f.Kind() != Sequence {
		return nil
	}
	return f.Items()
}

// addressSet keeps unique addresses in the order they were first added.
type addressSet struct {
	seen map[string]struct{}
	list []string
}

func (s *addressSet) add(addr string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[addr]; ok {
		return
	}
	s.seen[addr] = struct{}{}
	s.list = append(s.list, addr)
}

func (s *addressSet) addAll(addrs []string) {
	for _, a := range addrs {
		s.add(a)
	}
}

func (s *addressSet) has(addr string) bool {
	_, ok := s.seen[addr]
	return ok
}

// addText adds addr/key when n has a string under key.
func (s *addressSet) addText(addr string, n *Node, key string) {
	if hasText(n, key) {
		s.add(pointer.Append(addr, pointer.Key(key)))
	}
}
