package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	highlightHandler *HighlightHandler,
	contentHandler *ContentHandler,
	authMiddleware func(http.Handler) http.Handler,
	allowedOrigins []string,
) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "study-highlights"})
	}).Methods(http.MethodGet)

	// Protected routes (require authentication)
	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/highlights", highlightHandler.ListHighlights).Methods(http.MethodGet)
	protected.HandleFunc("/highlights", highlightHandler.CreateHighlight).Methods(http.MethodPost)
	protected.HandleFunc("/highlights/{id}", highlightHandler.DeleteHighlight).Methods(http.MethodDelete)

	protected.HandleFunc("/content/{kind}/{id}", contentHandler.GetContent).Methods(http.MethodGet)
	protected.HandleFunc("/content/{kind}/{id}/sentences", contentHandler.ListSentences).Methods(http.MethodGet)
	protected.HandleFunc("/content/{kind}/{id}/highlights/sentence", contentHandler.HighlightSentence).Methods(http.MethodPost)
	protected.HandleFunc("/content/{kind}/{id}/highlights/selection", contentHandler.HighlightSelection).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
