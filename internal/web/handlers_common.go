package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/telepoint/emi-portal/internal/logging"
)

// multipartMemory is how much of a multipart upload is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

// writeJSON encodes v with status. Encoding errors are logged since headers
// are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	defer io.Copy(io.Discard, body)
	return json.NewDecoder(body).Decode(dst)
}
