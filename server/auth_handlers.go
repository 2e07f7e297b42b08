package server

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/29rl/task-manager-fullstack/internal/errors"
	"github.com/29rl/task-manager-fullstack/users"
)

type tokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// TokenHandler issues an access/refresh token pair for valid credentials.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDetailError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeValidationError(w, validationErrorFrom(err))
			return
		}

		pair, err := s.tokens.Issue(req.Username, req.Password)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
				writeDetailError(w, http.StatusUnauthorized, "invalid username or password")
				return
			}
			s.logger.Error().Err(err).Msg("token issue failed")
			writeDetailError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, pair)
	}
}

// TokenRefreshHandler exchanges a valid refresh token for a new access
// token. The refresh token itself is not rotated.
func (s *Server) TokenRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDetailError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeValidationError(w, validationErrorFrom(err))
			return
		}

		access, err := s.tokens.Refresh(req.Refresh)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrInvalidRefreshToken) || apperrors.Is(err, apperrors.ErrRefreshTokenExpired) {
				writeDetailError(w, http.StatusUnauthorized, "refresh token is invalid or expired")
				return
			}
			s.logger.Error().Err(err).Msg("token refresh failed")
			writeDetailError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusOK, refreshResponse{Access: access})
	}
}

// RegisterHandler creates a new account. Registration never auto-logs-in:
// the caller is expected to follow with an explicit token request.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg users.Registration
		if err := decodeJSON(r, &reg); err != nil {
			writeDetailError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := users.Register(s.repos.Users, reg, time.Now())
		if err != nil {
			var verr *apperrors.ValidationError
			if apperrors.As(err, &verr) {
				writeValidationError(w, verr)
				return
			}
			s.logger.Error().Err(err).Msg("registration failed")
			writeDetailError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "user created successfully",
			"user":    user,
		})
	}
}

type profileUpdateRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// MeHandler returns the profile of the bearer identity.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.repos.Users.GetByID(userIDFromContext(r.Context()))
		if err != nil {
			writeDetailError(w, http.StatusUnauthorized, "user no longer exists")
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// UpdateMeHandler applies a partial profile update.
func (s *Server) UpdateMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.repos.Users.GetByID(userIDFromContext(r.Context()))
		if err != nil {
			writeDetailError(w, http.StatusUnauthorized, "user no longer exists")
			return
		}

		var req profileUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDetailError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeValidationError(w, validationErrorFrom(err))
			return
		}

		if req.Email != nil && strings.TrimSpace(*req.Email) != "" && *req.Email != user.Email {
			if existing, err := s.repos.Users.GetByEmail(*req.Email); err == nil && existing != nil && existing.ID != user.ID {
				writeValidationError(w, apperrors.NewValidationError("email", "a user with that email already exists"))
				return
			}
			user.Email = *req.Email
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}

		if err := s.repos.Users.Upsert(user); err != nil {
			s.logger.Error().Err(err).Msg("profile update failed")
			writeDetailError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
