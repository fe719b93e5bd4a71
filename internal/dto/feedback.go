package dto

import "exposureserver/internal/model"

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	SessionID    string `json:"session_id"`
	ISO          int    `json:"iso"`
	ShutterSpeed string `json:"shutter_speed"`
	NDFilter     string `json:"nd_filter"`
}

// Record returns the ledger entry carried by the request.
func (r FeedbackRequest) Record() model.FeedbackRecord {
	return model.FeedbackRecord{
		ISO:          r.ISO,
		ShutterSpeed: r.ShutterSpeed,
		NDFilter:     r.NDFilter,
	}
}

// FeedbackSummary is the response of GET /api/feedback/summary.
type FeedbackSummary struct {
	Count      int `json:"count"`
	AverageISO int `json:"average_iso"`
}

// FeedbackAck confirms a stored submission.
type FeedbackAck struct {
	Stored  bool   `json:"stored"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
}
