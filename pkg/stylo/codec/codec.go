// Package codec converts feature tables to and from their persisted text form.
//
// A table is written as a single flow mapping, for example
//
//	{"the": 3, "cat": 1}
//	{1: 4, 3: 2}
//
// Decoding accepts only that shape: one mapping of scalar keys to positive
// integers. Dictionary literals written by older tooling ({'the': 3}) parse
// as well since they are valid flow mappings. Nothing in the input is ever
// evaluated.
package codec

import (
	"fmt"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/model"
)

const (
	tagStr = "!!str"
	tagInt = "!!int"
)

// Key returns the storage key of one table: {model}_{table}.
func Key(modelName string, ch model.Channel) string {
	return modelName + "_" + ch.String()
}

// Encode renders a table in deterministic key order.
func Encode(ch model.Channel, t model.Table) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	for _, k := range sortedKeys(ch, t) {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: k, Style: yaml.DoubleQuotedStyle}
		if ch.Numeric() {
			if _, err := strconv.Atoi(k); err != nil {
				return nil, fmt.Errorf("encode %s: key %q is not an integer: %w", ch, k, internalerr.ErrInvalidInput)
			}
			key = &yaml.Node{Kind: yaml.ScalarNode, Tag: tagInt, Value: k}
		}
		val := &yaml.Node{Kind: yaml.ScalarNode, Tag: tagInt, Value: strconv.Itoa(t[k])}
		root.Content = append(root.Content, key, val)
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ch, err)
	}
	return out, nil
}

func sortedKeys(ch model.Channel, t model.Table) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	if !ch.Numeric() {
		slices.Sort(keys)
		return keys
	}
	slices.SortFunc(keys, func(a, b string) int {
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		if errA != nil || errB != nil || na == nb {
			if a < b {
				return -1
			}
			if a > b {
				return 1
			}
			return 0
		}
		if na < nb {
			return -1
		}
		return 1
	})
	return keys
}

// Decode parses a persisted table. Any deviation from the expected shape
// yields an error wrapping internalerr.ErrMalformedModel.
func Decode(ch model.Channel, data []byte) (model.Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed(ch, "%v", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, malformed(ch, "expected a single mapping")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, malformed(ch, "expected a mapping, got %s", kindName(root.Kind))
	}

	t := make(model.Table, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]

		key, err := decodeKey(ch, k)
		if err != nil {
			return nil, err
		}
		if v.Kind != yaml.ScalarNode || v.ShortTag() != tagInt {
			return nil, malformed(ch, "line %d: count for %q is not an integer", v.Line, key)
		}
		n, err := strconv.Atoi(v.Value)
		if err != nil || n <= 0 {
			return nil, malformed(ch, "line %d: count for %q must be a positive integer, got %q", v.Line, key, v.Value)
		}
		if _, dup := t[key]; dup {
			return nil, malformed(ch, "line %d: duplicate key %q", k.Line, key)
		}
		t[key] = n
	}
	return t, nil
}

func decodeKey(ch model.Channel, k *yaml.Node) (string, error) {
	if k.Kind != yaml.ScalarNode {
		return "", malformed(ch, "line %d: key must be a scalar, got %s", k.Line, kindName(k.Kind))
	}
	if !ch.Numeric() {
		if k.ShortTag() != tagStr {
			return "", malformed(ch, "line %d: key %q must be a string", k.Line, k.Value)
		}
		return k.Value, nil
	}
	if k.ShortTag() != tagInt {
		return "", malformed(ch, "line %d: key %q must be an integer", k.Line, k.Value)
	}
	n, err := strconv.Atoi(k.Value)
	if err != nil || n <= 0 {
		return "", malformed(ch, "line %d: key %q must be a positive integer", k.Line, k.Value)
	}
	return model.LengthKey(n), nil
}

func malformed(ch model.Channel, format string, args ...any) error {
	return fmt.Errorf("decode %s: %s: %w", ch, fmt.Sprintf(format, args...), internalerr.ErrMalformedModel)
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "nothing"
	}
}
