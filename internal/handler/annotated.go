package handler

import (
	"net/http"

	"exposureserver/internal/logger"
	"exposureserver/internal/service"
)

// ListAnnotatedHandler returns one page of archived highlight images.
func ListAnnotatedHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		list, err := manager.GetBufferService().List(page, limit)
		if err != nil {
			logger.Error("Error listing annotated images: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// ViewAnnotatedHandler serves a single archived image specified via the "image" query parameter.
func ViewAnnotatedHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image := r.URL.Query().Get("image")
		if image == "" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}

		path, err := manager.GetBufferService().Path(image)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		http.ServeFile(w, r, path)
	}
}

// ClearAnnotatedHandler deletes every archived image.
func ClearAnnotatedHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := manager.GetBufferService().Clear(); err != nil {
			logger.Error("Error clearing annotated images: %v", err)
			http.Error(w, "Unable to clear annotated images", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
