package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"smartbin-backend/internal/errors"
	"smartbin-backend/pkg/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

type UserClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Authenticator issues and validates operator JWTs.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger
}

// NewAuthenticator creates an Authenticator signing with HMAC-SHA256.
func NewAuthenticator(secret string, ttl time.Duration, logger zerolog.Logger) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// IssueToken signs a token for the given claims.
func (a *Authenticator) IssueToken(claims UserClaims, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(a.ttl).Unix(),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(errors.ErrInternal, err)
	}
	return signed, nil
}

// ParseToken validates a token and returns its claims.
func (a *Authenticator) ParseToken(tokenString string) (UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return UserClaims{}, errors.Wrap(errors.ErrInvalidArgument, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return UserClaims{}, errors.WithMessage(errors.ErrInvalidArgument, "unexpected claims type")
	}

	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || role == "" {
		return UserClaims{}, errors.WithMessage(errors.ErrInvalidArgument, "token is missing user claims")
	}
	return UserClaims{UserID: userID, Username: username, Role: role}, nil
}

// Middleware validates the bearer token and adds user claims to context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := a.logger.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Debug().Msg("❌ no authorization header")
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || tokenString == "" {
			log.Debug().Msg("❌ invalid authorization header format")
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userClaims, err := a.ParseToken(tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("❌ invalid token")
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		log.Debug().Str("username", userClaims.Username).Str("role", userClaims.Role).Msg("✅ authenticated")
		ctx := context.WithValue(r.Context(), UserContextKey, userClaims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole middleware checks if user has required role (must be used after Auth)
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userClaims, ok := GetUserFromContext(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if userClaims.Role != role && userClaims.Role != "admin" {
				utils.RespondError(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) (UserClaims, bool) {
	userClaims, ok := r.Context().Value(UserContextKey).(UserClaims)
	return userClaims, ok
}
