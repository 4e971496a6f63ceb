package apitest

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/information-sharing-networks/apitest/hydra"
	"github.com/information-sharing-networks/apitest/internal/crypto"
)

// TestingT is the subset of testing.TB used by expectations.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// Expectation holds a value under test. Failed assertions report through TestingT and stop the test.
type Expectation struct {
	t      TestingT
	value  any
	router *hydra.Router
}

// Expect starts assertions on value.
func Expect(t TestingT, value any) *Expectation {
	return &Expectation{t: t, value: value}
}

// WithRouter binds the routing table used by ToHaveRelation.
func (e *Expectation) WithRouter(r *hydra.Router) *Expectation {
	e.router = r
	return e
}

// Value returns the value under test.
func (e *Expectation) Value() any { return e.value }

func (e *Expectation) fail(format string, args ...any) {
	e.t.Helper()
	e.t.Errorf(format, args...)
	e.t.FailNow()
}

// response returns the value as a *Response, failing when it is anything else
func (e *Expectation) response() *Response {
	e.t.Helper()
	resp, ok := e.value.(*Response)
	if !ok || resp == nil {
		e.fail("Expected instance of *apitest.Response, %s given.", debugType(e.value))
		return nil
	}
	return resp
}

// document returns the decoded JSON of the response, failing when the body is not a JSON object
func (e *Expectation) document(resp *Response) map[string]any {
	e.t.Helper()
	doc, err := resp.JSON()
	if err != nil {
		e.fail("%v. Response body: %s", err, truncate(resp.Content()))
		return nil
	}
	return doc
}

// ToHaveStatusCode asserts the value is a *Response with the status code.
func (e *Expectation) ToHaveStatusCode(code int) *Expectation {
	e.t.Helper()
	resp := e.response()
	if resp == nil {
		return e
	}
	require.Equal(e.t, code, resp.StatusCode(), "Unexpected status code. Response body: %s", truncate(resp.Content()))
	return e
}

// ToHaveViolation asserts a constraint violation exists for the property path.
//
// The value is a *Response (which must then have status 422), a decoded document or a
// hydra.ConstraintViolationList.
func (e *Expectation) ToHaveViolation(propertyPath string) *Expectation {
	e.t.Helper()
	return e.toHaveViolation(propertyPath, nil)
}

// ToHaveViolationMessage is ToHaveViolation also checking the violation message.
func (e *Expectation) ToHaveViolationMessage(propertyPath, message string) *Expectation {
	e.t.Helper()
	return e.toHaveViolation(propertyPath, &message)
}

func (e *Expectation) toHaveViolation(propertyPath string, message *string) *Expectation {
	e.t.Helper()

	var violations []hydra.Violation
	switch v := e.value.(type) {
	case *Response:
		e.ToHaveStatusCode(422)
		violations = violationsFromDocument(e.document(v))
	case map[string]any:
		violations = violationsFromDocument(v)
	case hydra.ConstraintViolationList:
		violations = v.Violations
	case *hydra.ConstraintViolationList:
		if v != nil {
			violations = v.Violations
		}
	default:
		e.fail("Expected a response or a violation list, %s given.", debugType(e.value))
		return e
	}

	for _, violation := range violations {
		if violation.PropertyPath != propertyPath {
			continue
		}
		if message != nil {
			require.Equal(e.t, *message, violation.Message, "Failed asserting that %s was violated as expected.", propertyPath)
		}
		return e
	}

	e.fail("Failed asserting that %s was violated as expected.", propertyPath)
	return e
}

func violationsFromDocument(doc map[string]any) []hydra.Violation {
	items, _ := doc["violations"].([]any)
	violations := make([]hydra.Violation, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		path, _ := m["propertyPath"].(string)
		msg, _ := m["message"].(string)
		code, _ := m["code"].(string)
		violations = append(violations, hydra.Violation{PropertyPath: path, Message: msg, Code: code})
	}
	return violations
}

// ToHaveHydraType asserts the @type of the response document.
func (e *Expectation) ToHaveHydraType(hydraType string) *Expectation {
	e.t.Helper()
	resp := e.response()
	if resp == nil {
		return e
	}
	doc := e.document(resp)
	if doc == nil {
		return e
	}

	got, ok := doc["@type"]
	if !ok || got == nil {
		e.fail("Expecting Hydra type `%s`, got `null`", hydraType)
		return e
	}
	if got != hydraType {
		e.fail("Expecting Hydra type `%s`, got `%v`", hydraType, got)
	}
	return e
}

// ToHaveRelation asserts the value (an IRI string or an embedded document) references a resource.
//
// target is either
//   - a hydra.Resource: the value must be its IRI
//   - an IRI ("/books/1"): the value must be that IRI
//   - a resource class ("Book"): the value must resolve to a resource of that class
func (e *Expectation) ToHaveRelation(target any) *Expectation {
	e.t.Helper()
	return e.toHaveRelation(target, false)
}

// ToHaveNullableRelation is ToHaveRelation accepting a null value.
func (e *Expectation) ToHaveNullableRelation(target any) *Expectation {
	e.t.Helper()
	return e.toHaveRelation(target, true)
}

func (e *Expectation) toHaveRelation(target any, nullable bool) *Expectation {
	e.t.Helper()

	switch e.value.(type) {
	case nil, string, map[string]any:
	default:
		e.fail("Expecting array|null|string, got `%s`", debugType(e.value))
		return e
	}

	if e.value == nil {
		if !nullable {
			e.fail("This relation cannot be null.")
		}
		return e
	}

	if e.router == nil {
		e.fail("no router configured")
		return e
	}

	iri, ok := hydra.IRIFromJSON(e.value)
	if !ok {
		e.fail("The embedded document has no `@id`, cannot check it is a resource of type `%s`.", targetName(target))
		return e
	}

	route, err := e.router.Match(iri)
	if err != nil {
		e.fail("Failed asserting that `%s` is a resource of type `%s`.", iri, targetName(target))
		return e
	}

	switch tgt := target.(type) {
	case hydra.Resource:
		want, err := e.router.IRIFromResource(tgt)
		if err != nil {
			e.fail("Could not generate the IRI of %s: %v", targetName(target), err)
			return e
		}
		if want != iri {
			e.fail("Failed asserting that `%s` is `%s`.", iri, want)
		}
	case string:
		if strings.HasPrefix(tgt, "/") {
			require.Equal(e.t, tgt, iri, "Failed asserting that `%s` is `%s`.", iri, tgt)
			return e
		}
		if route.ResourceClass != tgt {
			e.fail("Failed asserting that `%s` is a resource of type `%s`.", iri, tgt)
		}
	default:
		e.fail("Expecting a resource, an IRI or a resource class, got `%s`", debugType(target))
	}
	return e
}

func targetName(target any) string {
	switch tgt := target.(type) {
	case hydra.Resource:
		return tgt.ResourceClass()
	case string:
		return tgt
	default:
		return debugType(target)
	}
}

// ToBeULIDString asserts the value is a string holding a valid ULID.
func (e *Expectation) ToBeULIDString() *Expectation {
	e.t.Helper()
	s, ok := e.value.(string)
	if !ok {
		e.fail("Expected valid ULID, got %s", debugType(e.value))
		return e
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		e.fail("`%s` is not a valid ULID.", s)
	}
	return e
}

// ToBeUUIDString asserts the value is a string holding a valid UUID.
func (e *Expectation) ToBeUUIDString() *Expectation {
	e.t.Helper()
	s, ok := e.value.(string)
	if !ok {
		e.fail("Expected valid UUID, got %s", debugType(e.value))
		return e
	}
	if err := uuid.Validate(s); err != nil {
		e.fail("`%s` is not a valid UUID.", s)
	}
	return e
}

// ToMatchJSON asserts the value and expected are the same JSON document, ignoring key order and whitespace.
// Strings, byte slices and responses are compared as JSON text, other values are encoded first.
func (e *Expectation) ToMatchJSON(expected any) *Expectation {
	e.t.Helper()

	want, err := jsonText(expected)
	if err != nil {
		e.fail("Could not encode the expected document: %v", err)
		return e
	}
	got, err := jsonText(e.value)
	if err != nil {
		e.fail("Could not encode the actual document: %v", err)
		return e
	}

	wantCanonical, err := crypto.CanonicalizeJSON(want)
	if err != nil {
		e.fail("Expected document is not valid JSON: %v", err)
		return e
	}
	gotCanonical, err := crypto.CanonicalizeJSON(got)
	if err != nil {
		e.fail("Actual document is not valid JSON: %v. Document: %s", err, truncate(string(got)))
		return e
	}
	if string(wantCanonical) == string(gotCanonical) {
		return e
	}

	var wantDoc, gotDoc any
	_ = json.Unmarshal(wantCanonical, &wantDoc)
	_ = json.Unmarshal(gotCanonical, &gotDoc)
	e.fail("JSON documents differ (-want +got):\n%s", cmp.Diff(wantDoc, gotDoc))
	return e
}

func jsonText(v any) ([]byte, error) {
	switch val := v.(type) {
	case *Response:
		return val.body, nil
	case string:
		return []byte(val), nil
	case []byte:
		return val, nil
	case json.RawMessage:
		return val, nil
	default:
		return json.Marshal(v)
	}
}

// ToHaveTotalItems asserts the hydra:totalItems of a collection response or document.
func (e *Expectation) ToHaveTotalItems(n int) *Expectation {
	e.t.Helper()

	var doc map[string]any
	switch v := e.value.(type) {
	case *Response:
		doc = e.document(v)
	case map[string]any:
		doc = v
	default:
		e.fail("Expected a response or a document, %s given.", debugType(e.value))
		return e
	}
	if doc == nil {
		return e
	}

	total, ok := doc["hydra:totalItems"]
	if !ok {
		e.fail("Key hydra:totalItems not found.")
		return e
	}

	var got int64
	switch v := total.(type) {
	case int64:
		got = v
	case float64:
		if v != math.Trunc(v) {
			e.fail("hydra:totalItems is not an integer, got %v", v)
			return e
		}
		got = int64(v)
	case int:
		got = int64(v)
	default:
		e.fail("hydra:totalItems is not a number, got %s", debugType(total))
		return e
	}
	require.Equal(e.t, int64(n), got, "Unexpected hydra:totalItems.")
	return e
}

// debugType names the type of v, "null" for nil
func debugType(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

func truncate(s string) string {
	const limit = 512
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
