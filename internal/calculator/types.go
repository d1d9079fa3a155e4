package calculator

import "calc-history/internal/history"

// CalculateRequest is the JSON body for POST /calculate.
type CalculateRequest struct {
	Numbers   []float64 `json:"numbers"`
	Operation string    `json:"operation"` // "SUM", "AVG", "MAX", "MIN", "MULTIPLY", "MOD"
}

// CalculateResponse is the JSON response for a successful POST /calculate.
type CalculateResponse struct {
	Result  float64 `json:"result"`
	Message string  `json:"message"`
}

// HistoryResponse is the JSON response for GET /history, newest first.
type HistoryResponse []history.Record
