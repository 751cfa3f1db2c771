package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/auth"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/store"
)

// badCredentials is returned for both unknown email and wrong password
// so signin never reveals which accounts exist.
const badCredentials = "invalid email or password"

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing password", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if store.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		s.logger.Error("creating user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error("issuing token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	respondJSON(w, http.StatusCreated, authResponse{
		Token:  token,
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, badCredentials)
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		respondError(w, http.StatusUnauthorized, badCredentials)
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error("issuing token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("user signed in", zap.String("user_id", user.ID))
	respondJSON(w, http.StatusOK, authResponse{
		Token:  token,
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
}

// handleSignout acknowledges the request. Tokens are stateless, so the
// client simply discards its copy; nothing is revoked server-side.
func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
