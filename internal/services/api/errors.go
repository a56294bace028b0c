package api

import (
	"encoding/json"
	"net/http"

	"chow-down/internal/chow"
)

type errorOptions struct {
	Code string `json:"code"`
}

type errorDetail struct {
	Message string       `json:"message"`
	Options errorOptions `json:"options"`
}

type errorBody struct {
	Status int           `json:"status"`
	Errors []errorDetail `json:"errors"`
}

// statusFor maps a domain error list to an HTTP status.  The first
// recognized code wins, except that an internal/storage failure
// anywhere in the batch dominates the whole response.  Unrecognized
// codes map to 400.
func statusFor(errs chow.Errors) int {
	status := 0
	for _, e := range errs {
		var mapped int
		switch e.Code {
		case chow.CodeNotFound:
			mapped = http.StatusNotFound
		case chow.CodeDB, chow.CodeInternal:
			mapped = http.StatusInternalServerError
		}
		if status == 0 {
			status = mapped
		}
		if mapped == http.StatusInternalServerError {
			status = mapped
		}
	}
	if status == 0 {
		status = http.StatusBadRequest
	}
	return status
}

// writeErrors renders a domain error list as the standard JSON error
// body with its mapped HTTP status.
func (h *Handler) writeErrors(w http.ResponseWriter, requestID string, errs chow.Errors) {
	status := statusFor(errs)
	body := errorBody{Status: status, Errors: make([]errorDetail, len(errs))}
	for i, e := range errs {
		body.Errors[i] = errorDetail{Message: e.Message, Options: errorOptions{Code: e.Code}}
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request_failed", "Request failed with server error", requestID, errs, nil)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode error response", requestID, err, nil)
	}
}
