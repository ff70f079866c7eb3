package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"unifm/core/auth"
	"unifm/logger"
	"unifm/model"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterHandler creates a new API account.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "username, email and a password of at least 6 characters are required")
		return
	}

	if existing, err := h.userRepo.GetUserByUsername(req.Username); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to check username")
		return
	} else if existing != nil {
		respondError(w, http.StatusConflict, "username already taken")
		return
	}
	if existing, err := h.userRepo.GetUserByEmail(req.Email); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to check email")
		return
	} else if existing != nil {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := &model.User{Username: req.Username, Email: req.Email, PasswordHash: hash}
	id, err := h.userRepo.CreateUser(user)
	if err != nil {
		logger.Error("Failed to create user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := auth.GenerateToken(id, user.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	logger.Info("User registered", logger.String("username", user.Username))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  map[string]interface{}{"id": id, "username": user.Username, "email": user.Email},
	})
}

// LoginHandler authenticates an API account and issues a JWT.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userRepo.GetUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  map[string]interface{}{"id": user.ID, "username": user.Username, "email": user.Email},
	})
}

// AuthMiddleware validates the Bearer token and rejects unauthenticated
// requests.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		r.Header.Set("X-User-ID", strconv.FormatInt(claims.UserID, 10))
		next(w, r)
	}
}
