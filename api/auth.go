package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler exchanges the shared HR access key for a short-lived JWT that
// unlocks the document-management endpoints.
type AuthHandler struct {
	accessKeyHash string
	jwtSecret     string
	tokenDuration time.Duration
}

func NewAuthHandler(accessKeyHash, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{accessKeyHash: accessKeyHash, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type signinRequest struct {
	AccessKey string `json:"access_key"`
}

type authResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.AccessKey == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	if h.accessKeyHash == "" {
		http.Error(w, "HR access not configured", http.StatusServiceUnavailable)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(h.accessKeyHash), []byte(req.AccessKey)) != nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "hr",
		"exp":  time.Now().Add(h.tokenDuration).Unix(),
	})
	tokenStr, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr}, http.StatusOK)
}
