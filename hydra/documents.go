package hydra

// documents.go defines the JSON-LD/Hydra response bodies

import (
	"fmt"
	"strings"
)

const (
	// ContentTypeJSONLD is the media type of every Hydra document
	ContentTypeJSONLD = "application/ld+json"

	// ContentTypeMergePatch is the media type of PATCH request bodies (RFC 7396)
	ContentTypeMergePatch = "application/merge-patch+json"
)

// Collection is a hydra:Collection document.
type Collection struct {
	Context    string `json:"@context"`
	ID         string `json:"@id"`
	Type       string `json:"@type"`
	TotalItems int    `json:"hydra:totalItems"`
	Member     []any  `json:"hydra:member"`
}

// NewCollection returns a hydra:Collection of members of the resource class, served at iri.
// Members are typically resource documents carrying their own @id.
func NewCollection(class, iri string, members []any) Collection {
	if members == nil {
		members = []any{}
	}
	return Collection{
		Context:    "/contexts/" + class,
		ID:         iri,
		Type:       "hydra:Collection",
		TotalItems: len(members),
		Member:     members,
	}
}

// Violation is a single failed constraint.
// PropertyPath uses the request document's field names (e.g. "title", "author.name").
type Violation struct {
	PropertyPath string `json:"propertyPath"`
	Message      string `json:"message"`
	Code         string `json:"code,omitempty"`
}

// ConstraintViolationList is the body of a 422 response.
type ConstraintViolationList struct {
	Context     string      `json:"@context"`
	Type        string      `json:"@type"`
	Title       string      `json:"hydra:title"`
	Description string      `json:"hydra:description"`
	Violations  []Violation `json:"violations"`
}

// NewConstraintViolationList wraps violations in a ConstraintViolationList document.
func NewConstraintViolationList(violations []Violation) ConstraintViolationList {
	if violations == nil {
		violations = []Violation{}
	}
	return ConstraintViolationList{
		Context:     "/contexts/ConstraintViolationList",
		Type:        "ConstraintViolationList",
		Title:       "An error occurred",
		Description: violationsDescription(violations),
		Violations:  violations,
	}
}

// Find returns the first violation of the property path.
func (l ConstraintViolationList) Find(propertyPath string) (Violation, bool) {
	for _, v := range l.Violations {
		if v.PropertyPath == propertyPath {
			return v, true
		}
	}
	return Violation{}, false
}

// ErrorDocument is a hydra:Error document, used for every non-validation error response.
type ErrorDocument struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Title       string `json:"hydra:title"`
	Description string `json:"hydra:description"`
	Status      int    `json:"status"`
	RequestID   string `json:"requestId,omitempty"`
}

// violationsDescription joins the violations one per line as "path: message"
func violationsDescription(violations []Violation) string {
	lines := make([]string, 0, len(violations))
	for _, v := range violations {
		if v.PropertyPath == "" {
			lines = append(lines, v.Message)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", v.PropertyPath, v.Message))
	}
	return strings.Join(lines, "\n")
}
