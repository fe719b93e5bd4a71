package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"exposureserver/internal/dto"
	"exposureserver/internal/logger"
	"exposureserver/internal/service"
	"exposureserver/internal/service/feedback"
)

// SubmitFeedbackHandler handles POST /api/feedback.
func SubmitFeedbackHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req dto.FeedbackRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, logger, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		err := manager.SubmitFeedback(req)
		var perr *feedback.PersistenceError
		switch {
		case err == nil:
			writeJSON(w, logger, http.StatusCreated, dto.FeedbackAck{Stored: true, Message: "Thanks, your settings were saved."})
		case errors.Is(err, feedback.ErrInvalidFeedback):
			writeError(w, logger, http.StatusBadRequest, strings.TrimPrefix(err.Error(), feedback.ErrInvalidFeedback.Error()+": "))
		case errors.Is(err, service.ErrUnknownSession):
			writeError(w, logger, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrFeedbackAlreadySubmitted), errors.Is(err, service.ErrNoAnalysis):
			writeError(w, logger, http.StatusConflict, err.Error())
		case errors.As(err, &perr):
			writeError(w, logger, http.StatusServiceUnavailable, "Your feedback could not be saved. Please try again later.")
		default:
			logger.Error("Feedback submission failed: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Feedback submission failed")
		}
	}
}

// FeedbackSummaryHandler handles GET /api/feedback/summary.
func FeedbackSummaryHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		summary, err := manager.FeedbackSummary()
		if err != nil {
			logger.Error("Error reading feedback summary: %v", err)
			writeError(w, logger, http.StatusServiceUnavailable, "Feedback history is unavailable")
			return
		}
		writeJSON(w, logger, http.StatusOK, summary)
	}
}
