// Package dataset decodes data files into a tagged payload shape that the
// filter and the aggregator switch on explicitly.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ekoatlas/data-api/internal/models"
)

// Shape is the structural class of a decoded document.
type Shape int

const (
	// ShapeScalar is anything that is neither an array nor an object.
	ShapeScalar Shape = iota
	// ShapeSequence is an array of rows.
	ShapeSequence
	// ShapeKeyedRecord is an object with at least one scalar value.
	ShapeKeyedRecord
	// ShapeNamedDatasetMap is a non-empty object whose values are all arrays or objects.
	ShapeNamedDatasetMap
)

func (s Shape) String() string {
	switch s {
	case ShapeSequence:
		return "sequence"
	case ShapeKeyedRecord:
		return "keyed_record"
	case ShapeNamedDatasetMap:
		return "named_dataset_map"
	default:
		return "scalar"
	}
}

// Payload is a decoded document tagged with its shape. Exactly one of Rows,
// Fields or Value is meaningful, selected by Shape.
type Payload struct {
	Shape  Shape
	Rows   []any
	Fields map[string]any
	Value  any
}

// Decode parses raw JSON. Numbers are kept as json.Number so re-encoding
// does not change their textual form.
func Decode(raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", models.ErrDecode, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Payload{}, fmt.Errorf("%w: trailing data after document", models.ErrDecode)
	}
	return FromValue(v), nil
}

// FromValue classifies an already decoded value.
func FromValue(v any) Payload {
	switch t := v.(type) {
	case []any:
		return Payload{Shape: ShapeSequence, Rows: t}
	case map[string]any:
		if isDatasetMap(t) {
			return Payload{Shape: ShapeNamedDatasetMap, Fields: t}
		}
		return Payload{Shape: ShapeKeyedRecord, Fields: t}
	default:
		return Payload{Shape: ShapeScalar, Value: t}
	}
}

func isDatasetMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for _, v := range m {
		switch v.(type) {
		case []any, map[string]any:
		default:
			return false
		}
	}
	return true
}

// IsMapping reports whether the payload is an object of either kind.
func (p Payload) IsMapping() bool {
	return p.Shape == ShapeKeyedRecord || p.Shape == ShapeNamedDatasetMap
}

// Raw returns the underlying JSON value.
func (p Payload) Raw() any {
	switch p.Shape {
	case ShapeSequence:
		return p.Rows
	case ShapeKeyedRecord, ShapeNamedDatasetMap:
		return p.Fields
	default:
		return p.Value
	}
}

// Encode marshals the payload back to JSON.
func (p Payload) Encode() ([]byte, error) {
	return Marshal(p.Raw())
}

// Marshal encodes v without HTML escaping, matching the source files.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Extract walks a dot-path into the payload. Array elements are addressed
// by their decimal index. An empty root returns the payload unchanged.
func (p Payload) Extract(root string) (Payload, error) {
	root = strings.Trim(strings.TrimSpace(root), ".")
	if root == "" {
		return p, nil
	}

	cur := p.Raw()
	for _, part := range strings.Split(root, ".") {
		switch t := cur.(type) {
		case map[string]any:
			next, ok := t[part]
			if !ok {
				return Payload{}, fmt.Errorf("%w: root %q: missing field %q", models.ErrRootNotFound, root, part)
			}
			cur = next
		case []any:
			idx, ok := parseIndex(part)
			if !ok || idx >= len(t) {
				return Payload{}, fmt.Errorf("%w: root %q: bad index %q", models.ErrRootNotFound, root, part)
			}
			cur = t[idx]
		default:
			return Payload{}, fmt.Errorf("%w: root %q: cannot descend into scalar at %q", models.ErrRootNotFound, root, part)
		}
	}
	return FromValue(cur), nil
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
