package account

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/validation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the auth endpoints on api (the /api group). limit
// wraps the unauthenticated credential endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group, limit ...echo.MiddlewareFunc) {
	g := api.Group("/auth")

	public := g.Group("", limit...)
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/token/refresh", h.RefreshToken)

	g.POST("/logout", h.Logout)
	g.GET("/profile", h.Profile)
}

type authResponse struct {
	Message string         `json:"message"`
	User    *User          `json:"user"`
	Tokens  auth.TokenPair `json:"tokens"`
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	u, pair, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		if verrs, ok := validation.As(err); ok {
			return validation.HTTPError(verrs)
		}
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    u,
		Tokens:  pair,
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	u, pair, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountDisabled):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
			"error":   err.Error(),
			"details": validation.Field(validation.NonField, err.Error()),
		})
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, authResponse{
		Message: "Login successful",
		User:    u,
		Tokens:  pair,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	userID := auth.UserIDFromContext(c.Request().Context())
	err := h.svc.Logout(c.Request().Context(), userID, req.RefreshToken)
	switch {
	case errors.Is(err, ErrRefreshRequired), errors.Is(err, ErrInvalidRefresh):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *Handler) RefreshToken(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Refresh == "" {
		return validation.HTTPError(validation.Field("refresh", validation.MsgRequired))
	}

	access, err := h.svc.Refresh(c.Request().Context(), req.Refresh)
	switch {
	case errors.Is(err, auth.ErrTokenBlacklisted), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrWrongTokenType):
		return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
			"detail": err.Error(),
			"code":   "token_not_valid",
		})
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"access": access})
}

func (h *Handler) Profile(c echo.Context) error {
	u, err := h.svc.Profile(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*User{"user": u})
}
