package httpapi

import (
	"encoding/json"
	"net/http"

	"amsd/internal/ams"
	"amsd/pkg/types"
)

// statusForResult maps a backend outcome code to an HTTP status.
func statusForResult(code ams.Result) int {
	switch code {
	case ams.ResultInvalidGate, ams.ResultInvalidTool:
		return http.StatusBadRequest
	case ams.ResultBusy, ams.ResultWrongState,
		ams.ResultGateNotAvailable, ams.ResultGateBlocked:
		return http.StatusConflict
	case ams.ResultNotConnected:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeOpError maps a backend operation error to the JSON error payload,
// carrying the domain code and remedy through.
func writeOpError(w http.ResponseWriter, err error) {
	resp := types.ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError
	if ae := ams.AsError(err); ae != nil {
		status = statusForResult(ae.Code)
		resp.Result = string(ae.Code)
		resp.UserMessage = ae.User
		resp.Remedy = ae.Remedy
	}
	resp.Code = status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
