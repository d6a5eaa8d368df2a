package selection

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Kind uint8

const (
	// Absent is the zero value: no explicit selection, defer to the merge partner or the
	// default fetch behaviour.
	Absent Kind = iota
	// Everything selects the key and everything beneath it.
	Everything
	// Partial selects the listed sub-keys only.
	Partial
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Everything:
		return "everything"
	case Partial:
		return "partial"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Tree describes which fields and nested objects a handler needs. Trees are values and
// are never mutated once built.
type Tree struct {
	kind   Kind
	fields map[string]Tree
}

func All() Tree {
	return Tree{kind: Everything}
}

// Fields builds a partial tree. Absent entries are dropped.
func Fields(fields map[string]Tree) Tree {
	m := make(map[string]Tree, len(fields))
	for k, v := range fields {
		if v.kind != Absent {
			m[k] = v
		}
	}
	return Tree{kind: Partial, fields: m}
}

// Select is shorthand for a partial tree selecting every named key entirely.
func Select(keys ...string) Tree {
	m := make(map[string]Tree, len(keys))
	for _, k := range keys {
		m[k] = All()
	}
	return Tree{kind: Partial, fields: m}
}

func (t Tree) Kind() Kind {
	return t.kind
}

func (t Tree) IsAbsent() bool {
	return t.kind == Absent
}

// Field returns the sub-tree for key. It is Absent for non-partial trees and missing keys.
func (t Tree) Field(key string) Tree {
	if t.kind != Partial {
		return Tree{}
	}
	return t.fields[key]
}

func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t.fields))
	for k := range t.fields {
		keys = append(keys, k)
	}
	return keys
}

func (t Tree) Equal(o Tree) bool {
	if t.kind != o.kind {
		return false
	}
	if t.kind != Partial {
		return true
	}
	if len(t.fields) != len(o.fields) {
		return false
	}
	for k, v := range t.fields {
		ov, ok := o.fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes Everything as true, Absent as null and Partial as an object.
func (t Tree) MarshalJSON() ([]byte, error) {
	switch t.kind {
	case Everything:
		return []byte("true"), nil
	case Partial:
		return json.Marshal(t.fields)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false/null (both Absent) and nested objects.
func (t *Tree) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")):
		*t = All()
		return nil
	case bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("null")):
		*t = Tree{}
		return nil
	}

	var fields map[string]Tree
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("selection must be a boolean or an object: %w", err)
	}
	*t = Fields(fields)
	return nil
}
