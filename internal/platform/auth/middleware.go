package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
)

// Messages returned with 401 responses.
const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgBadFormat     = "Authorization header must contain two space-delimited values"
	msgInvalidToken  = "Given token not valid for any token type"
)

// JWTConfig configures JWTMiddleware.
type JWTConfig struct {
	Tokens *TokenIssuer
	// CookieName, when set, is consulted if the Authorization header is absent.
	CookieName string
	// Skipper bypasses authentication for matching requests.
	Skipper func(c echo.Context) bool
}

// JWTMiddleware authenticates requests with an access token taken from the
// Authorization header (Bearer scheme) or, failing that, the session cookie.
// Refresh tokens and blacklisted tokens are rejected.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			tokenStr, err := extractToken(c, cfg.CookieName)
			if err != nil {
				return err
			}

			claims, err := cfg.Tokens.Parse(c.Request().Context(), tokenStr, AccessToken)
			if err != nil {
				if errors.Is(err, ErrTokenBlacklisted) {
					return echo.NewHTTPError(http.StatusUnauthorized, ErrTokenBlacklisted.Error())
				}
				return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
			}

			userID, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
			}

			c.Set("user_id", userID.String())
			ctx := WithUser(c.Request().Context(), userID, claims.Username)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func extractToken(c echo.Context, cookieName string) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if cookieName != "" {
			if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
				return ck.Value, nil
			}
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, msgNoCredentials)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, msgBadFormat)
	}
	return strings.TrimSpace(parts[1]), nil
}

// WithUser stores the authenticated identity on ctx.
func WithUser(ctx context.Context, userID uuid.UUID, username string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UsernameKey, username)
}

// UserIDFromContext returns the authenticated user's id, or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	uid, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return uid
}

func UsernameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(UsernameKey).(string)
	return name
}
