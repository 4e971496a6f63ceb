package hydra

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type iriOptions struct {
	id        string
	operation string
	params    map[string]string
}

// IRIOption configures IRI generation.
type IRIOption func(*iriOptions)

// WithID appends "/<id>" to a collection IRI.
func WithID(id string) IRIOption {
	return func(o *iriOptions) { o.id = id }
}

// WithOperation selects the operation whose URI template is expanded (by name, e.g. "get").
func WithOperation(name string) IRIOption {
	return func(o *iriOptions) { o.operation = name }
}

// WithParams supplies values for template parameters.
func WithParams(params map[string]string) IRIOption {
	return func(o *iriOptions) { o.params = params }
}

// IRI returns the IRI of a resource class.
//
// By default this is the collection IRI (the URI template of the GET collection operation).
// WithID appends "/<id>" to it, and WithOperation expands the template of the named operation instead.
func (rt *Router) IRI(class string, opts ...IRIOption) (string, error) {
	o := &iriOptions{}
	for _, opt := range opts {
		opt(o)
	}

	rt.mu.RLock()
	op, ok := rt.find(class, func(op Operation) bool {
		if o.operation != "" {
			return op.Name == o.operation
		}
		return op.Collection && op.Method == http.MethodGet
	})
	rt.mu.RUnlock()

	if !ok {
		if o.operation != "" {
			return "", fmt.Errorf("%w: no operation %q for %s", ErrResourceNotFound, o.operation, class)
		}
		return "", fmt.Errorf("%w: no collection operation for %s", ErrResourceNotFound, class)
	}

	iri, err := expandTemplate(op.URITemplate, o.params)
	if err != nil {
		return "", err
	}
	if o.id != "" {
		iri = strings.TrimSuffix(iri, "/") + "/" + url.PathEscape(o.id)
	}
	return iri, nil
}

// IRIFromResource returns the item IRI of a resource, expanding {id} with its ResourceID.
// WithOperation selects a different operation.
func (rt *Router) IRIFromResource(res Resource, opts ...IRIOption) (string, error) {
	if res == nil {
		return "", fmt.Errorf("resource is nil")
	}

	o := &iriOptions{}
	for _, opt := range opts {
		opt(o)
	}

	params := map[string]string{"id": res.ResourceID()}
	if p, ok := res.(IRIParameters); ok {
		for k, v := range p.IRIParameters() {
			params[k] = v
		}
	}
	for k, v := range o.params {
		params[k] = v
	}

	class := res.ResourceClass()
	rt.mu.RLock()
	op, ok := rt.find(class, func(op Operation) bool {
		if o.operation != "" {
			return op.Name == o.operation
		}
		return !op.Collection && op.Method == http.MethodGet
	})
	rt.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: no item operation for %s", ErrResourceNotFound, class)
	}

	return expandTemplate(op.URITemplate, params)
}

// expandTemplate substitutes {name} and {name:regexp} segments of a chi pattern
func expandTemplate(template string, params map[string]string) (string, error) {
	var b strings.Builder
	rest := template
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := closingBrace(rest, start)
		if end < 0 {
			return "", fmt.Errorf("unbalanced braces in URI template %q", template)
		}

		name := rest[start+1 : end]
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[:i]
		}
		value, ok := params[name]
		if !ok || value == "" {
			return "", fmt.Errorf("missing value for parameter %q of URI template %q", name, template)
		}

		b.WriteString(rest[:start])
		b.WriteString(url.PathEscape(value))
		rest = rest[end+1:]
	}
}

// closingBrace finds the brace matching the one at start (regexps may contain braces)
func closingBrace(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// IRIFromJSON extracts an IRI from a decoded relation value:
// the @id of an embedded document, or the string itself.
func IRIFromJSON(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case map[string]any:
		id, ok := val["@id"].(string)
		return id, ok
	default:
		return "", false
	}
}
