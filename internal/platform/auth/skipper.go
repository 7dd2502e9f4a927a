package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths lists route patterns reachable without credentials: health
// checks, the API index, registration, login, token refresh, the public
// doctor directory and the guest web pages.
var publicPaths = map[string]bool{
	"/":                       true,
	"/health":                 true,
	"/health/db":              true,
	"/api":                    true,
	"/api/":                   true,
	"/api/auth/register":      true,
	"/api/auth/login":         true,
	"/api/auth/token/refresh": true,
	"/api/doctors/public":     true,
	"/login":                  true,
	"/register":               true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

// IsPublicPath reports whether path needs no credentials. Static assets
// under /static/ are always public.
func IsPublicPath(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, "/static/")
}
