package hydra

import "net/http"

// Operation describes one HTTP operation on a resource class.
//
// URITemplate uses chi pattern syntax ("/books/{id}"). Collection operations
// (GetCollection, Post) are served at the collection IRI, item operations at the item IRI.
type Operation struct {
	Name        string
	Method      string
	URITemplate string
	Collection  bool
}

// Get is the item read operation.
func Get(uriTemplate string) Operation {
	return Operation{Name: "get", Method: http.MethodGet, URITemplate: uriTemplate}
}

// GetCollection is the collection read operation.
func GetCollection(uriTemplate string) Operation {
	return Operation{Name: "get_collection", Method: http.MethodGet, URITemplate: uriTemplate, Collection: true}
}

// Post creates a resource in the collection.
func Post(uriTemplate string) Operation {
	return Operation{Name: "post", Method: http.MethodPost, URITemplate: uriTemplate, Collection: true}
}

// Put replaces an item.
func Put(uriTemplate string) Operation {
	return Operation{Name: "put", Method: http.MethodPut, URITemplate: uriTemplate}
}

// Patch updates an item with a merge-patch document.
func Patch(uriTemplate string) Operation {
	return Operation{Name: "patch", Method: http.MethodPatch, URITemplate: uriTemplate}
}

// Delete removes an item.
func Delete(uriTemplate string) Operation {
	return Operation{Name: "delete", Method: http.MethodDelete, URITemplate: uriTemplate}
}

// Resource is implemented by domain objects exposed as API resources.
type Resource interface {
	// ResourceClass is the short class name, e.g. "Book"
	ResourceClass() string

	// ResourceID is the value of the {id} template parameter
	ResourceID() string
}

// IRIParameters is optionally implemented by resources whose item template has parameters other than {id}.
type IRIParameters interface {
	IRIParameters() map[string]string
}
