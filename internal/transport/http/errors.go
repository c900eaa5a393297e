package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeClientIDRequired   = "client_id_required"
	codeInvalidID          = "invalid_id"
	codeResourceNotFound   = "resource_not_found"
	codeClientNotFound     = "client_not_found"
	codeCodeRequired       = "code_required"
	codeExternalIDRequired = "external_id_required"
	codeResourceExists     = "resource_already_exists"
	codeClientExists       = "client_already_exists"
	codeStreamUnsupported  = "stream_unsupported"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
