package discovery

import (
	"github.com/gorilla/mux"

	"github.com/amoryn-app/amoryn-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/discovery").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Discovery
	api.HandleFunc("/candidates", handler.GetCandidates).Methods("GET")
	api.HandleFunc("/candidates/filtered", handler.GetFilteredCandidates).Methods("POST")
	api.HandleFunc("/top-picks", handler.GetTopPicks).Methods("GET")

	// Swipes
	api.HandleFunc("/like/{targetId}", handler.Like).Methods("POST")
	api.HandleFunc("/pass/{targetId}", handler.Pass).Methods("POST")
	api.HandleFunc("/super-like/{targetId}", handler.SuperLike).Methods("POST")
	api.HandleFunc("/rewind", handler.Rewind).Methods("POST")

	// Access gate
	api.HandleFunc("/access/{itemType}/{targetId}", handler.CanAccess).Methods("GET")
	api.HandleFunc("/unlock", handler.Unlock).Methods("POST")
}
