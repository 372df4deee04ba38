// Package response provides the JSON writer and error-kind-to-status
// mapping shared by every HTTP handler, split out of package api so
// pkg/api/handlers can depend on it without importing the router package.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/pkg/fstoreerr"
)

// JSON writes v as a JSON response body with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorBody is the generic envelope every non-2xx response carries, per
// spec.md §7: internal messages are never leaked to the client.
type errorBody struct {
	Error string `json:"error"`
}

// WriteError maps an fstoreerr.Kind to the HTTP status spec.md §7 assigns
// it and writes a JSON error body. Kinds other than NotFound/WriteLock/
// InProgress surface a generic message; their detail is only ever logged.
func WriteError(w http.ResponseWriter, err error) {
	kind := fstoreerr.KindOf(err)

	status := http.StatusInternalServerError
	message := "Something went wrong"

	switch kind {
	case fstoreerr.KindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case fstoreerr.KindWriteLock:
		status = http.StatusConflict
		message = "part is locked by another writer"
	case fstoreerr.KindInProgress:
		status = http.StatusConflict
		message = err.Error()
	case fstoreerr.KindSQL, fstoreerr.KindInternal:
		logger.Error("internal API error", "error", err, "error_kind", kind.String())
	}

	JSON(w, status, errorBody{Error: message})
}

// WriteBadRequest writes a 400 with message as the body, used for
// malformed ids/bodies that never reach the core.
func WriteBadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, errorBody{Error: message})
}

// WriteNoContent writes a 204 with no body.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
