// Package schema holds the JSON-schema documents exchanged with the model and
// validates payloads against them.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalid = errors.New("schema violation")

type Document = map[string]any

type Schema struct {
	doc      Document
	compiled *gojsonschema.Schema
}

func Compile(doc Document) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{doc: doc, compiled: compiled}, nil
}

func MustCompile(doc Document) *Schema {
	s, err := Compile(doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks raw JSON.
func (s *Schema) Validate(data []byte) error {
	return s.check(gojsonschema.NewBytesLoader(data))
}

// ValidateValue checks an in-memory value (maps, slices, scalars).
func (s *Schema) ValidateValue(v any) error {
	return s.check(gojsonschema.NewGoLoader(v))
}

func (s *Schema) check(doc gojsonschema.JSONLoader) error {
	res, err := s.compiled.Validate(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func (s *Schema) Document() Document {
	return s.doc
}

// String is the indented document, suitable for a prompt.
func (s *Schema) String() string {
	b, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
