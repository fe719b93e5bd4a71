package handler

import (
	"errors"
	"io"
	"net/http"

	"exposureserver/internal/config"
	"exposureserver/internal/logger"
	"exposureserver/internal/service"
	"exposureserver/internal/service/exposure"
)

// AnalyzeHandler handles POST /api/analyze. The multipart form carries the
// photo in "image", an optional fixed "aperture" and the "session" ID.
func AnalyzeHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	maxBytes := int64(cfg.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if r.ContentLength > maxBytes {
			writeError(w, logger, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, logger, http.StatusRequestEntityTooLarge, "Upload is too large")
				return
			}
			writeError(w, logger, http.StatusBadRequest, "Expected a multipart form with an image")
			return
		}

		file, _, err := r.FormFile("image")
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "Image field is required")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.Error("Error reading upload: %v", err)
			writeError(w, logger, http.StatusBadRequest, "Unable to read image")
			return
		}

		result, err := manager.Analyze(data, r.FormValue("aperture"), r.FormValue("session"))
		if err != nil {
			if errors.Is(err, exposure.ErrInvalidImage) {
				logger.Warning("Rejected upload: %v", err)
				writeError(w, logger, http.StatusUnprocessableEntity, "The uploaded file is not a usable image")
				return
			}
			logger.Error("Analysis failed: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "Analysis failed")
			return
		}

		writeJSON(w, logger, http.StatusOK, result)
	}
}
