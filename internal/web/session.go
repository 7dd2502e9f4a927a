package web

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/platform/auth"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	flashCookie   = "flash"
)

// SessionTokens validates the session cookies and renews an expired access
// token from the refresh token.
type SessionTokens interface {
	Parse(ctx context.Context, token string, want auth.TokenType) (*auth.Claims, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

func (h *Handler) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) setSession(c echo.Context, pair auth.TokenPair) {
	c.SetCookie(h.cookie(AccessCookie, pair.Access, h.cfg.AccessTTL))
	c.SetCookie(h.cookie(RefreshCookie, pair.Refresh, h.cfg.RefreshTTL))
}

func (h *Handler) clearSession(c echo.Context) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := h.cookie(name, "", 0)
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

// loadSession resolves the user behind the session cookies. An expired
// access cookie is replaced when the refresh cookie is still good.
func (h *Handler) loadSession(c echo.Context) (uuid.UUID, string, bool) {
	ctx := c.Request().Context()
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		if id, name, ok := h.claimsUser(ctx, ck.Value); ok {
			return id, name, true
		}
	}

	ck, err := c.Cookie(RefreshCookie)
	if err != nil || ck.Value == "" {
		return uuid.Nil, "", false
	}
	access, err := h.tokens.Refresh(ctx, ck.Value)
	if err != nil {
		return uuid.Nil, "", false
	}
	id, name, ok := h.claimsUser(ctx, access)
	if ok {
		c.SetCookie(h.cookie(AccessCookie, access, h.cfg.AccessTTL))
	}
	return id, name, ok
}

func (h *Handler) claimsUser(ctx context.Context, token string) (uuid.UUID, string, bool) {
	claims, err := h.tokens.Parse(ctx, token, auth.AccessToken)
	if err != nil {
		return uuid.Nil, "", false
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, claims.Username, true
}

// RequireLogin redirects to /login unless the request carries a valid
// session. The user is stored on the request context like the API does.
func (h *Handler) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, name, ok := h.loadSession(c)
		if !ok {
			h.clearSession(c)
			target := "/login?next=" + url.QueryEscape(c.Request().URL.RequestURI())
			return c.Redirect(http.StatusFound, target)
		}
		c.SetRequest(c.Request().WithContext(auth.WithUser(c.Request().Context(), id, name)))
		return next(c)
	}
}

// safeNext accepts only local absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard"
	}
	return next
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

func (h *Handler) setFlash(c echo.Context, kind, message string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(kind + "|" + message))
	c.SetCookie(h.cookie(flashCookie, value, time.Minute))
}

// popFlash reads and clears the flash cookie.
func (h *Handler) popFlash(c echo.Context) *Flash {
	ck, err := c.Cookie(flashCookie)
	if err != nil || ck.Value == "" {
		return nil
	}
	expired := h.cookie(flashCookie, "", 0)
	expired.MaxAge = -1
	c.SetCookie(expired)

	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}
