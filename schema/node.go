package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/eq-tools/eqtrans/pointer"
)

// Kind identifies which variant a Node holds.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Node is one value of a schema document: a mapping, a sequence or a scalar.
// Mappings remember their key order so that documents written back out diff
// cleanly against their source.
type Node struct {
	kind Kind
	// scalar holds the string value, the number literal, or "true"/"false".
	scalar string
	keys   []string
	fields map[string]*Node
	items  []*Node
}

// NewNull returns a null node.
func NewNull() *Node { return &Node{kind: Null} }

// NewBool returns a boolean node.
func NewBool(b bool) *Node { return &Node{kind: Bool, scalar: strconv.FormatBool(b)} }

// NewNumber returns a number node holding the given JSON literal.
func NewNumber(literal string) *Node { return &Node{kind: Number, scalar: literal} }

// NewString returns a string node.
func NewString(s string) *Node { return &Node{kind: String, scalar: s} }

// NewMapping returns an empty mapping node.
func NewMapping() *Node { return &Node{kind: Mapping, fields: make(map[string]*Node)} }

// NewSequence returns a sequence node holding items.
func NewSequence(items ...*Node) *Node { return &Node{kind: Sequence, items: items} }

// Kind returns the node variant. A nil node reports Null.
func (n *Node) Kind() Kind {
	if n == nil {
		return Null
	}
	return n.kind
}

// Str returns the value of a string node.
func (n *Node) Str() (string, bool) {
	if n == nil || n.kind != String {
		return "", false
	}
	return n.scalar, true
}

// Field returns the child stored under key, or nil when n is not a mapping or
// has no such key.
func (n *Node) Field(key string) *Node {
	if n == nil || n.kind != Mapping {
		return nil
	}
	return n.fields[key]
}

// FieldStr is shorthand for Field(key).Str().
func (n *Node) FieldStr(key string) (string, bool) {
	return n.Field(key).Str()
}

// Keys returns the mapping keys in document order.
func (n *Node) Keys() []string {
	if n == nil || n.kind != Mapping {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Items returns the elements of a sequence node.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != Sequence {
		return nil
	}
	return n.items
}

// Len returns the number of keys or items; zero for scalars.
func (n *Node) Len() int {
	switch n.Kind() {
	case Mapping:
		return len(n.keys)
	case Sequence:
		return len(n.items)
	}
	return 0
}

// SetField stores v under key, keeping the key's original position if it is
// already present. It panics if n is not a mapping.
func (n *Node) SetField(key string, v *Node) {
	if n.kind != Mapping {
		panic("schema: SetField on " + n.kind.String())
	}
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = v
}

// Append adds v to the end of a sequence node. It panics if n is not a sequence.
func (n *Node) Append(v *Node) {
	if n.kind != Sequence {
		panic("schema: Append on " + n.kind.String())
	}
	n.items = append(n.items, v)
}

// Lookup follows segs from n. Index segments also select numeric mapping keys.
func (n *Node) Lookup(segs []pointer.Segment) (*Node, bool) {
	cur := n
	for _, s := range segs {
		switch cur.Kind() {
		case Mapping:
			child, ok := cur.fields[s.Key()]
			if !ok {
				return nil, false
			}
			cur = child
		case Sequence:
			i := s.Index()
			if i < 0 || i >= len(cur.items) {
				return nil, false
			}
			cur = cur.items[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// Get resolves an address against n. Missing nodes and malformed addresses
// both report false.
func (n *Node) Get(addr string) (*Node, bool) {
	segs, err := pointer.Parse(addr)
	if err != nil {
		return nil, false
	}
	return n.Lookup(segs)
}

// Set replaces the node at addr. The parent must exist; the root cannot be
// replaced.
func (n *Node) Set(addr string, v *Node) error {
	segs, err := pointer.Parse(addr)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		return errors.New("cannot replace the document root")
	}
	parent, ok := n.Lookup(segs[:len(segs)-1])
	if !ok {
		return fmt.Errorf("no parent node for %q", addr)
	}
	last := segs[len(segs)-1]
	switch parent.kind {
	case Mapping:
		parent.SetField(last.Key(), v)
	case Sequence:
		i := last.Index()
		if i < 0 || i >= len(parent.items) {
			return fmt.Errorf("index %s out of range at %q", last, addr)
		}
		parent.items[i] = v
	default:
		return fmt.Errorf("cannot set %q inside a %s", addr, parent.kind)
	}
	return nil
}

// Clone returns a structurally independent deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{kind: n.kind, scalar: n.scalar}
	switch n.kind {
	case Mapping:
		c.keys = append([]string(nil), n.keys...)
		c.fields = make(map[string]*Node, len(n.fields))
		for k, v := range n.fields {
			c.fields[k] = v.Clone()
		}
	case Sequence:
		c.items = make([]*Node, len(n.items))
		for i, v := range n.items {
			c.items[i] = v.Clone()
		}
	}
	return c
}

// Equal reports whether a and b hold the same document. Mapping key order is
// not significant and numbers compare by value.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Number:
		if a.scalar == b.scalar {
			return true
		}
		x, errA := strconv.ParseFloat(a.scalar, 64)
		y, errB := strconv.ParseFloat(b.scalar, 64)
		return errA == nil && errB == nil && x == y
	case Mapping:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for k, av := range a.fields {
			bv, ok := b.fields[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case Sequence:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	}
	return a.scalar == b.scalar
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the node just visited.
func (n *Node) Walk(fn func(addr string, n *Node) bool) {
	n.walk("", fn)
}

func (n *Node) walk(addr string, fn func(string, *Node) bool) {
	if n == nil || !fn(addr, n) {
		return
	}
	switch n.kind {
	case Mapping:
		for _, k := range n.keys {
			n.fields[k].walk(pointer.Append(addr, pointer.Key(k)), fn)
		}
	case Sequence:
		for i, item := range n.items {
			item.walk(pointer.Append(addr, pointer.Index(i)), fn)
		}
	}
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

// Parse decodes a JSON document, keeping mapping key order and number literals.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parsing JSON: unexpected data after document")
	}
	return n, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(data string) *Node {
	n, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return n
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			m := NewMapping()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("expected string key, got %T", kt)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				m.SetField(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			s := NewSequence()
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				s.Append(val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", v)
	case string:
		return NewString(v), nil
	case json.Number:
		return NewNumber(v.String()), nil
	case bool:
		return NewBool(v), nil
	case nil:
		return NewNull(), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// MarshalJSON encodes n in document key order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent is like MarshalJSON with indentation, ending in a newline.
func (n *Node) MarshalIndent(prefix, indent string) ([]byte, error) {
	compact, err := n.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, prefix, indent); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler so a Node can sit inside other
// decoded structures.
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	switch n.Kind() {
	case Null:
		buf.WriteString("null")
	case Bool, Number:
		buf.WriteString(n.scalar)
	case String:
		return encodeString(buf, n.scalar)
	case Mapping:
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := n.fields[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case Sequence:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}

// encodeString writes s as a JSON string without HTML escaping, so markup in
// survey text survives a round trip byte for byte.
func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// numberLiteral renders a float as a JSON number literal.
func numberLiteral(f float64) (string, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", fmt.Errorf("%v is not representable in JSON", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}
