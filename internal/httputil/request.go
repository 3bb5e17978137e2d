package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxRequestBody caps JSON request bodies. Uploads register metadata only,
// so nothing legitimate comes close.
const maxRequestBody = 1 << 20 // 1MB

// ParseJSON decodes JSON from the request body into the given destination.
// It limits the request body size and provides clear error messages.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
