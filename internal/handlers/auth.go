package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"smartbin-backend/internal/middleware"
	"smartbin-backend/internal/models"
	"smartbin-backend/pkg/utils"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserStore looks up operator accounts.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Login verifies operator credentials and issues a JWT. Both JSON and form
// bodies are accepted.
func Login(users UserStore, auth *middleware.Authenticator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeLogin(r)
		if !ok || req.Username == "" || req.Password == "" {
			utils.RespondError(w, http.StatusBadRequest, "Missing username or password.")
			return
		}

		logger.Info().Str("username", req.Username).Msg("🔐 login attempt")

		user, err := users.GetUserByUsername(r.Context(), req.Username)
		if err != nil {
			logger.Warn().Err(err).Str("username", req.Username).Msg("❌ user lookup failed")
			utils.RespondError(w, http.StatusUnauthorized, "Invalid username or password.")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			logger.Warn().Str("username", req.Username).Msg("❌ invalid password")
			utils.RespondError(w, http.StatusUnauthorized, "Invalid username or password.")
			return
		}

		token, err := auth.IssueToken(middleware.UserClaims{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		}, time.Now())
		if err != nil {
			respondAppError(w, logger, err, "Failed to create token.")
			return
		}

		logger.Info().Str("username", user.Username).Str("role", user.Role).Msg("✅ login successful")
		utils.RespondSuccess(w, http.StatusOK, "Login successful.", utils.Envelope{
			"token": token,
			"user":  user.ToUserResponse(),
		})
	}
}

func decodeLogin(r *http.Request) (LoginRequest, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return LoginRequest{}, false
		}
		return LoginRequest{Username: r.PostForm.Get("username"), Password: r.PostForm.Get("password")}, true
	}
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return LoginRequest{}, false
	}
	return req, true
}
