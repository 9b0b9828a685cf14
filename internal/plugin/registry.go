package plugin

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ironsheep/vision-tools-plugin/internal/codec"
)

// HandlerFunc runs a tool on its raw JSON payload.
type HandlerFunc func(payload string) (interface{}, error)

// binder builds a tool's HandlerFunc once its parameter schema is compiled.
type binder func(schema *gojsonschema.Schema) HandlerFunc

// bind decodes the payload into a copy of defaults, validating it against
// the tool's schema, and passes the record to run.
func bind[A any](defaults A, run func(*A) (interface{}, error)) binder {
	return func(schema *gojsonschema.Schema) HandlerFunc {
		return func(payload string) (interface{}, error) {
			args := defaults
			if err := codec.Decode(payload, schema, &args); err != nil {
				return nil, invalidArguments(err)
			}
			return run(&args)
		}
	}
}

// Tool is a registered tool.
type Tool struct {
	Descriptor
	handler HandlerFunc
}

// Registry maps tool IDs to handlers. It is immutable once built.
type Registry struct {
	tools []*Tool
	byID  map[string]*Tool
}

// newRegistry pairs every descriptor with its binder. Duplicate IDs, a
// descriptor without a binder and a binder without a descriptor are errors.
func newRegistry(descriptors []Descriptor, binders map[string]binder) (*Registry, error) {
	r := &Registry{
		tools: make([]*Tool, 0, len(descriptors)),
		byID:  make(map[string]*Tool, len(descriptors)),
	}
	for _, d := range descriptors {
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate tool id %q", d.ID)
		}
		b, ok := binders[d.ID]
		if !ok {
			return nil, fmt.Errorf("tool %q has no handler", d.ID)
		}
		schema, err := codec.CompileSchema(d.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", d.ID, err)
		}
		t := &Tool{Descriptor: d, handler: b(schema)}
		r.tools = append(r.tools, t)
		r.byID[d.ID] = t
	}
	for id := range binders {
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("handler %q has no descriptor", id)
		}
	}
	return r, nil
}

// Lookup returns the tool registered under id.
func (r *Registry) Lookup(id string) (*Tool, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Descriptors returns the registered tools' descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.Descriptor
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
