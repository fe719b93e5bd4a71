package route

import (
	"net/http"
	"os"
	"path/filepath"

	"exposureserver/internal/config"
	"exposureserver/internal/handler"
	"exposureserver/internal/logger"
	"exposureserver/internal/middleware"
	"exposureserver/internal/service"
)

// logFiles maps the /logs/{level} path segment to its file.
var logFiles = map[string]string{
	"info":    logger.InfoFile,
	"warning": logger.WarningFile,
	"error":   logger.ErrorFile,
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(manager *service.Manager, tokens *service.AuthTokens, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// API endpoints
	mux.HandleFunc("/api/analyze", handler.AnalyzeHandler(manager, cfg, logger))
	mux.HandleFunc("/api/feedback", handler.SubmitFeedbackHandler(manager, logger))
	mux.HandleFunc("/api/feedback/summary", handler.FeedbackSummaryHandler(manager, logger))
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(manager, logger))

	if manager.GetBufferService() != nil {
		mux.HandleFunc("/api/annotated", handler.ListAnnotatedHandler(manager, logger))
		mux.HandleFunc("/api/annotated/view", handler.ViewAnnotatedHandler(manager))
		mux.HandleFunc("/api/annotated/clear", handler.ClearAnnotatedHandler(manager, logger))
	}

	// Log endpoints
	for level, file := range logFiles {
		mux.HandleFunc("/logs/"+level, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+level+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, tokens, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler(tokens))

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	return middleware.AuthMiddleware(cfg.Password, tokens, mux)
}
