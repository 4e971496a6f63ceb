package apitest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"sync"
)

// ErrKeyNotFound is returned by Response.Get and Response.Items for keys absent from the document.
var ErrKeyNotFound = errors.New("key not found")

// Response is a read-only view of an HTTP response with a JSON body.
type Response struct {
	raw  *http.Response
	body []byte

	once    sync.Once
	decoded any
	err     error
}

func newResponse(raw *http.Response, body []byte) *Response {
	return &Response{raw: raw, body: body}
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int { return r.raw.StatusCode }

// Headers returns the response headers.
func (r *Response) Headers() http.Header { return r.raw.Header }

// Header returns the first value of a response header.
func (r *Response) Header(name string) string { return r.raw.Header.Get(name) }

// ContentType returns the media type of the response, without parameters.
func (r *Response) ContentType() string {
	ct := r.raw.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}

// Content returns the raw response body.
func (r *Response) Content() string { return string(r.body) }

// Raw returns the underlying response. Its body can be read again.
func (r *Response) Raw() *http.Response { return r.raw }

// Document decodes the body as any JSON value. The result (or the error) is computed once.
// Integral numbers decode as int64, other numbers as float64.
func (r *Response) Document() (any, error) {
	r.once.Do(func() {
		dec := json.NewDecoder(bytes.NewReader(r.body))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			r.err = fmt.Errorf("response body is not JSON: %w", err)
			return
		}
		if v == nil {
			r.err = errors.New("response body is JSON null")
			return
		}
		r.decoded = normalizeNumbers(v)
	})
	return r.decoded, r.err
}

// JSON returns the decoded body when it is a JSON object.
func (r *Response) JSON() (map[string]any, error) {
	doc, err := r.Document()
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("response body is not a JSON object, got %s", jsonKind(doc))
	}
	return obj, nil
}

// List returns the decoded body when it is a JSON array.
func (r *Response) List() ([]any, error) {
	doc, err := r.Document()
	if err != nil {
		return nil, err
	}
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("response body is not a JSON array, got %s", jsonKind(doc))
	}
	return list, nil
}

// Decode decodes the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("could not decode response body: %w", err)
	}
	return nil
}

// Has reports whether the decoded document has a top level key.
// For a JSON array the key is a decimal index.
func (r *Response) Has(key string) bool {
	_, err := r.Get(key)
	return err == nil
}

// Get returns the value of a top level key, or of an element when the body is a JSON array
// and key is a decimal index.
// A missing key is an error wrapping ErrKeyNotFound ("Key <key> not found.").
func (r *Response) Get(key string) (any, error) {
	doc, err := r.Document()
	if err != nil {
		return nil, err
	}
	switch d := doc.(type) {
	case map[string]any:
		if v, ok := d[key]; ok {
			return v, nil
		}
	case []any:
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(d) {
			return d[i], nil
		}
	default:
		return nil, fmt.Errorf("response body is not a JSON object or array, got %s", jsonKind(doc))
	}
	return nil, &keyNotFoundError{key: key}
}

// Index returns the element at i of a JSON array body.
func (r *Response) Index(i int) (any, error) {
	if _, err := r.List(); err != nil {
		return nil, err
	}
	return r.Get(strconv.Itoa(i))
}

// Items returns the members of a hydra:Collection.
func (r *Response) Items() ([]any, error) {
	v, err := r.Get("hydra:member")
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("hydra:member is not an array, got %T", v)
	}
	return items, nil
}

type keyNotFoundError struct {
	key string
}

func (e *keyNotFoundError) Error() string { return fmt.Sprintf("Key %s not found.", e.key) }
func (e *keyNotFoundError) Unwrap() error { return ErrKeyNotFound }

// normalizeNumbers turns json.Number values into int64 when integral, float64 otherwise.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	default:
		return v
	}
}

// jsonKind names the JSON type of a decoded value
func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
