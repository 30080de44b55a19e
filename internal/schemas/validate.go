// Package schemas provides JSON Schema validation for configuration files.
package schemas

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ConfigSchema is the name of the embedded schema for config files
const ConfigSchema = "config.schema.json"

//go:embed *.schema.json
var schemaFiles embed.FS

// compiled caches embedded schemas by name
var compiled sync.Map

// FieldError is a single violation. Field is dotted ("notion.max_depth") or
// "(root)" for document-level violations.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation in a document, ordered by field.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError is returned when a schema or document cannot be parsed
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Schema returns the content of an embedded schema
func Schema(name string) (string, error) {
	data, err := schemaFiles.ReadFile(name)
	if err != nil {
		return "", &SchemaLoadError{Path: name, Message: "schema not embedded", Cause: err}
	}
	return string(data), nil
}

// Validate checks JSON content against the named embedded schema. The schema
// is compiled on first use.
func Validate(name string, jsonContent []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}
	return check(name, schema, gojsonschema.NewBytesLoader(jsonContent))
}

// ValidateJSONString checks JSON content against a schema given as a string
func ValidateJSONString(schemaContent, jsonContent string) error {
	const name = "(string schema)"
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
	}
	return check(name, schema, gojsonschema.NewStringLoader(jsonContent))
}

func load(name string) (*gojsonschema.Schema, error) {
	if s, ok := compiled.Load(name); ok {
		return s.(*gojsonschema.Schema), nil
	}
	content, err := Schema(name)
	if err != nil {
		return nil, err
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
	}
	actual, _ := compiled.LoadOrStore(name, schema)
	return actual.(*gojsonschema.Schema), nil
}

func check(name string, schema *gojsonschema.Schema, document gojsonschema.JSONLoader) error {
	result, err := schema.Validate(document)
	if err != nil {
		return &SchemaLoadError{Path: name, Message: "document could not be read", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{Field: desc.Field(), Message: desc.Description()})
	}
	sort.SliceStable(ve.Errors, func(i, j int) bool {
		return ve.Errors[i].Field < ve.Errors[j].Field
	})
	return ve
}
