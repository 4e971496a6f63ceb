package handlers

import (
	"net/http"
)

// HandleHealth is the liveness check. The store is in memory so there is no readiness check.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
