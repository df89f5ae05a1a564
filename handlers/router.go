package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/CrowderSoup/lists-app/database"
	"github.com/CrowderSoup/lists-app/services"
)

// NewRouter wires every API route. allowedOrigins limits which browser
// origins may open the snapshot socket.
func NewRouter(authService *services.AuthService, itemStore *database.ItemStore, hub *services.Hub, allowedOrigins ...string) *mux.Router {
	return newRouter(authService, NewItemHandler(itemStore, hub, allowedOrigins))
}

func newRouter(authService *services.AuthService, itemHandler *ItemHandler) *mux.Router {
	authHandler := NewAuthHandler(authService)
	authMiddleware := NewAuthMiddleware(authService)

	r := mux.NewRouter()

	// Auth routes
	r.HandleFunc("/api/auth/signup", authHandler.SignUp).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/signin", authHandler.SignIn).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/verify", authHandler.VerifyToken).Methods(http.MethodGet)

	// Item routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)
	api.HandleFunc("/items", itemHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/items", itemHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/items/{id}", itemHandler.Update).Methods(http.MethodPatch)
	api.HandleFunc("/items/{id}", itemHandler.Delete).Methods(http.MethodDelete)

	// WebSocket route for snapshot pushes
	api.HandleFunc("/ws", itemHandler.HandleWebSocket)

	return r
}
