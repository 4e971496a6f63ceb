// hydra package holds the API metadata used by both the application under test and the apitest helpers.
//
// **routing table**
// Router wraps a chi mux. Every resource operation is registered with its resource class
// (e.g. "Book") and URI template (e.g. "/books/{id}"). The same table is used to
// serve requests, to generate IRIs (IRI, IRIFromResource) and to resolve an IRI back to
// its resource class (Match).
//
// **documents**
// the JSON-LD/Hydra response bodies: Collection, ConstraintViolationList and ErrorDocument.
//
// **error handling**
// handlers return *HydraError values (NewNotFoundError, NewValidationError, ...) and send
// them with RespondWithErrorResponse, which maps them to a status code and a Hydra document.
// Validation errors become 422 ConstraintViolationList responses.
package hydra
