package services

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Shape records which form a list response arrived in.
type Shape int

const (
	// ShapeBare is a top-level JSON array.
	ShapeBare Shape = iota
	// ShapeKeyed is an object carrying the list under a named field.
	ShapeKeyed
)

func (s Shape) String() string {
	if s == ShapeKeyed {
		return "keyed"
	}
	return "bare"
}

// Envelope normalizes a list response that is either `[...]` or `{"<Key>": [...], ...}`.
//
// Set Key before decoding. An object without Key, or a null body, yields an empty list.
type Envelope[T any] struct {
	Key   string
	Shape Shape
	Items []T
}

// NewEnvelope prepares an envelope that looks for key in object responses.
func NewEnvelope[T any](key string) *Envelope[T] {
	return &Envelope[T]{Key: key}
}

// UnmarshalJSON implements [json.Unmarshaler].
func (e *Envelope[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	e.Items = nil

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		e.Shape = ShapeBare
		return nil
	case data[0] == '[':
		e.Shape = ShapeBare
		return json.Unmarshal(data, &e.Items)
	case data[0] == '{':
		e.Shape = ShapeKeyed
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		raw, ok := fields[e.Key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil
		}
		if err := json.Unmarshal(raw, &e.Items); err != nil {
			return fmt.Errorf("field %q: %w", e.Key, err)
		}
		return nil
	default:
		return fmt.Errorf("expected array or object, got %q", truncateBody(data))
	}
}

// List returns the items, never nil.
func (e *Envelope[T]) List() []T {
	if e.Items == nil {
		return []T{}
	}
	return e.Items
}

func truncateBody(data []byte) string {
	if len(data) > 32 {
		return string(data[:32]) + "..."
	}
	return string(data)
}
