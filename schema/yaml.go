package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML builds a Node tree from a YAML document. Schemas authored in YAML
// produce the same tree (and the same addresses) as their JSON equivalent.
// An empty document yields an empty mapping.
func ParseYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewMapping(), nil
	}
	n, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return n, nil
}

func fromYAML(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return NewNull(), nil
		}
		return fromYAML(y.Content[0])
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.MappingNode:
		m := NewMapping()
		for i := 0; i+1 < len(y.Content); i += 2 {
			keyNode, valNode := y.Content[i], y.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			val, err := fromYAML(valNode)
			if err != nil {
				return nil, err
			}
			m.SetField(keyNode.Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		s := NewSequence()
		for _, item := range y.Content {
			val, err := fromYAML(item)
			if err != nil {
				return nil, err
			}
			s.Append(val)
		}
		return s, nil
	case yaml.ScalarNode:
		return scalarFromYAML(y)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", y.Line, y.Kind)
}

func scalarFromYAML(y *yaml.Node) (*Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return NewNull(), nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return NewBool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(strings.ReplaceAll(y.Value, "_", ""), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid integer %q", y.Line, y.Value)
		}
		return NewNumber(strconv.FormatInt(i, 10)), nil
	case "!!float":
		var f float64
		if err := y.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		lit, err := numberLiteral(f)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", y.Line, err)
		}
		return NewNumber(lit), nil
	}
	return NewString(y.Value), nil
}

// LoadFile reads a schema document, as YAML when the file has a .yaml or
// .yml extension and as JSON otherwise.
func LoadFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(path, data)
}

// Decode parses data read from path, choosing the format by extension.
func Decode(path string, data []byte) (*Node, error) {
	var (
		n   *Node
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		n, err = ParseYAML(data)
	default:
		n, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
