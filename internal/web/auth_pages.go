package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/account"
)

// Registration through the pages uses a lighter password rule than the API.
const webMinPasswordLength = 4

const (
	msgLoginRequired    = "Username and password are required"
	msgLoginInvalid     = "Invalid username or password"
	msgRegisterRequired = "All fields are required"
	msgPasswordMismatch = "Passwords do not match"
	msgUsernameTaken    = "Username already exists"
	msgPasswordShort    = "Password must be at least 4 characters"
)

func (h *Handler) LoginPage(c echo.Context) error {
	if _, _, ok := h.loadSession(c); ok {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.Render(http.StatusOK, "login", h.page(c, "Login", echo.Map{
		"Next": c.QueryParam("next"),
	}))
}

func (h *Handler) Login(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	next := c.FormValue("next")

	fail := func(msg string) error {
		data := h.page(c, "Login", echo.Map{"Next": next, "Error": msg})
		data["LoginUsername"] = username
		return c.Render(http.StatusOK, "login", data)
	}

	if username == "" || password == "" {
		return fail(msgLoginRequired)
	}
	u, pair, err := h.accounts.Login(c.Request().Context(), username, password)
	switch {
	case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrAccountDisabled):
		return fail(msgLoginInvalid)
	case err != nil:
		return err
	}

	h.setSession(c, pair)
	h.setFlash(c, "success", "Welcome back, "+u.DisplayName()+"!")
	return c.Redirect(http.StatusFound, safeNext(next))
}

func (h *Handler) RegisterPage(c echo.Context) error {
	if _, _, ok := h.loadSession(c); ok {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.Render(http.StatusOK, "register", h.page(c, "Register", echo.Map{
		"Form": map[string]string{},
	}))
}

func (h *Handler) Register(c echo.Context) error {
	form := map[string]string{
		"username":   strings.TrimSpace(c.FormValue("username")),
		"email":      strings.TrimSpace(c.FormValue("email")),
		"first_name": strings.TrimSpace(c.FormValue("first_name")),
		"last_name":  strings.TrimSpace(c.FormValue("last_name")),
	}
	password := c.FormValue("password")
	confirm := c.FormValue("password_confirm")

	fail := func(msg string) error {
		return c.Render(http.StatusOK, "register", h.page(c, "Register", echo.Map{
			"Form":  form,
			"Error": msg,
		}))
	}

	switch {
	case form["username"] == "" || password == "" || confirm == "":
		return fail(msgRegisterRequired)
	case password != confirm:
		return fail(msgPasswordMismatch)
	case len([]rune(password)) < webMinPasswordLength:
		return fail(msgPasswordShort)
	}

	ctx := c.Request().Context()
	exists, err := h.accounts.UsernameExists(ctx, form["username"])
	if err != nil {
		return err
	}
	if exists {
		return fail(msgUsernameTaken)
	}

	u, err := h.accounts.CreateUser(ctx, account.NewUser{
		Username:  form["username"],
		Email:     form["email"],
		Password:  password,
		FirstName: form["first_name"],
		LastName:  form["last_name"],
	})
	if errors.Is(err, account.ErrUsernameTaken) {
		return fail(msgUsernameTaken)
	}
	if err != nil {
		return err
	}

	pair, err := h.accounts.IssueTokens(ctx, u)
	if err != nil {
		return err
	}
	h.setSession(c, pair)
	h.setFlash(c, "success", "Account created successfully!")
	return c.Redirect(http.StatusFound, "/dashboard")
}

// Logout blacklists the session's refresh token and drops the cookies. A
// refresh token that is already invalid does not stop the logout.
func (h *Handler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(RefreshCookie); err == nil && ck.Value != "" {
		if err := h.accounts.Logout(c.Request().Context(), currentUser(c), ck.Value); err != nil {
			h.logger.Warn().Err(err).Msg("web logout: refresh token not revoked")
		}
	}
	h.clearSession(c)
	h.setFlash(c, "success", "You have been logged out successfully.")
	return c.Redirect(http.StatusFound, "/")
}
