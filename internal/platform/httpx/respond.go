package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/georgemunganga/fulfillment-engine/internal/platform/apperr"
)

// Respond writes body as JSON with the given status.
func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Error writes err as {"error": ..., "code": ...} with a status derived from its apperr code.
func Error(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	Respond(w, StatusFor(code), map[string]string{"error": err.Error(), "code": string(code)})
}

// BadRequest writes a 400 for malformed payloads.
func BadRequest(w http.ResponseWriter, err error) {
	Respond(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "code": string(apperr.CodeInvalidInput)})
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidInput:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInvalidState:
		return http.StatusConflict
	case apperr.CodeNoPartner:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
