package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/CrowderSoup/lists-app/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeToken(w http.ResponseWriter, status int, token string, claims services.Claims) {
	writeJSON(w, status, map[string]string{
		"status": "success",
		"token":  token,
		"uid":    claims.UID,
		"email":  claims.Email,
	})
}

// SignUp creates an account and signs it in
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	token, claims, err := h.authService.SignUp(req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrAccountExists):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, services.ErrWeakPassword), errors.Is(err, services.ErrInvalidEmail):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("Error signing up: %v", err)
		http.Error(w, "Authentication error", http.StatusInternalServerError)
		return
	}

	log.Printf("Account created: %s", claims.Email)
	writeToken(w, http.StatusCreated, token, claims)
}

// SignIn exchanges email and password for a token
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	token, claims, err := h.authService.SignIn(req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("Error signing in: %v", err)
		http.Error(w, "Authentication error", http.StatusInternalServerError)
		return
	}
	writeToken(w, http.StatusOK, token, claims)
}

// VerifyToken checks if a JWT token is valid
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	tokenString, ok := bearerToken(r)
	if !ok {
		http.Error(w, "Missing authorization header", http.StatusUnauthorized)
		return
	}

	claims, err := h.authService.VerifyJWT(tokenString)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "valid",
		"uid":    claims.UID,
		"email":  claims.Email,
	})
}
