package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type errorResponse struct {
	Error     string  `json:"error"`
	Detail    string  `json:"detail"`
	Code      int     `json:"code"`
	Timestamp float64 `json:"timestamp"`
}

func writeJSONError(w http.ResponseWriter, statusCode int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     http.StatusText(statusCode),
		Detail:    detail,
		Code:      statusCode,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
