package handlers

import (
	"net/http"

	"github.com/information-sharing-networks/apitest/auth"
	"github.com/information-sharing-networks/apitest/hydra"
)

// HandleMe returns the authenticated user (GET /me). Anonymous requests get 401.
func HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		hydra.RespondWithErrorResponse(w, r, hydra.NewUnauthorizedError("Full authentication is required to access this resource."))
		return
	}

	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	hydra.RespondWithJSONLD(w, http.StatusOK, UserDocument{
		Context:  "/contexts/User",
		IRI:      r.URL.Path,
		Type:     "User",
		Username: claims.Username,
		Roles:    roles,
	})
}
