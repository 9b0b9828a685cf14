// Package codec converts between the plugin's JSON wire format and Go values:
// tool arguments in, results out.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidArguments is matched by every argument decoding failure.
var ErrInvalidArguments = errors.New("invalid arguments")

// ArgumentError lists why a payload was rejected. It matches
// ErrInvalidArguments with errors.Is.
type ArgumentError struct {
	Problems []string
}

func (e *ArgumentError) Error() string {
	return "invalid arguments: " + strings.Join(e.Problems, "; ")
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArguments
}

// FolderContext is injected by the host under "_context".
type FolderContext struct {
	WorkingDirectory string `json:"working_directory"`
}

// Injected carries the host-provided fields present in every tool payload.
// Tool argument structs embed it.
type Injected struct {
	Context *FolderContext    `json:"_context,omitempty"`
	Secrets map[string]string `json:"_secrets,omitempty"`
}

// Folder returns the injected folder context, or nil.
func (i Injected) Folder() *FolderContext {
	return i.Context
}

// CompileSchema compiles a tool's parameter JSON Schema.
func CompileSchema(schema map[string]any) (*gojsonschema.Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile parameter schema: %w", err)
	}
	return compiled, nil
}

// Decode parses payload as a JSON object, validates it against schema and
// binds it into dst.
//
// dst should be pre-filled with defaults: fields absent from the payload keep
// their value. Fields dst does not declare are ignored. A nil schema skips
// validation. Every failure is an *ArgumentError.
func Decode(payload string, schema *gojsonschema.Schema, dst any) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return &ArgumentError{Problems: []string{fmt.Sprintf("payload is not a JSON object: %v", err)}}
	}
	if obj == nil {
		return &ArgumentError{Problems: []string{"payload is not a JSON object"}}
	}

	if schema != nil {
		result, err := schema.Validate(gojsonschema.NewStringLoader(payload))
		if err != nil {
			return &ArgumentError{Problems: []string{err.Error()}}
		}
		if !result.Valid() {
			problems := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				problems = append(problems, e.String())
			}
			return &ArgumentError{Problems: problems}
		}
	}

	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return &ArgumentError{Problems: []string{err.Error()}}
	}
	return nil
}
