package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/hpungsan/sift/internal/errors"
)

// maxBodyBytes caps request bodies. Captures are conversational text, not files.
const maxBodyBytes = 4 << 20

// renderJSON writes data as a JSON response with the given status.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes the error envelope used by every surface:
// {"error": {"code", "message", "status", "details"?}}.
func renderError(w http.ResponseWriter, err error) {
	siftErr, ok := errors.As(err)
	if !ok {
		renderJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{
				"code":    string(errors.ErrInternal),
				"message": "an internal error occurred",
				"status":  http.StatusInternalServerError,
			},
		})
		return
	}

	errorObj := map[string]any{
		"code":    string(siftErr.Code),
		"message": siftErr.Message,
		"status":  siftErr.Status,
	}
	if siftErr.Code != errors.ErrInternal && siftErr.Details != nil {
		errorObj["details"] = siftErr.Details
	}
	renderJSON(w, siftErr.Status, map[string]any{"error": errorObj})
}

// decodeBody reads a JSON request body into a T.
func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var result T
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		if err == io.EOF {
			return result, errors.NewInvalidRequest("request body is required")
		}
		return result, errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return result, nil
}
