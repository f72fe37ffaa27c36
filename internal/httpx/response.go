package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorResponse is the uniform error envelope. Error carries a stable
// snake_case code; Details is optional structured context (a field map or a
// message list).
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload with the given status. Encoding failures degrade to a
// plain 500 envelope instead of emitting partial JSON.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// client went away; nothing left to do
		_ = err
	}
}

// JSONError writes the error envelope.
func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields so
// typos in client payloads surface as errors instead of silent drops.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// WantsJSON reports whether the client asked for JSON rather than HTML.
// Handlers use it to pick between the API envelope and a rendered page.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
