package http

import "net/http"

// NotFound replies with the JSON 404 envelope for routes no other handler
// claims.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, codeNotFound, "not found")
}
