package doctor

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/validation"
	"github.com/medlink/medlink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the doctor API. /doctors/public is let through by
// the auth skipper.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/public", h.PublicDoctors)
	api.POST("/doctors", h.CreateDoctor)
	api.POST("/doctors/create", h.CreateDoctor)
	api.GET("/doctors/:id", h.GetDoctor)
	api.PUT("/doctors/:id", h.UpdateDoctor)
	api.PATCH("/doctors/:id", h.PatchDoctor)
	api.PUT("/doctors/:id/update", h.UpdateDoctor)
	api.PATCH("/doctors/:id/update", h.PatchDoctor)
	api.DELETE("/doctors/:id", h.DeleteDoctor)
	api.DELETE("/doctors/:id/delete", h.DeleteDoctor)
}

func notFound() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, "Not found.")
}

func doctorID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, notFound()
	}
	return id, nil
}

func mapError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return notFound()
	}
	if verrs, ok := validation.As(err); ok {
		return validation.HTTPError(verrs)
	}
	return err
}

// ParseAvailable reads "true" or "false"; anything else means no filter.
func ParseAvailable(v string) *bool {
	switch strings.ToLower(v) {
	case "true":
		t := true
		return &t
	case "false":
		f := false
		return &f
	}
	return nil
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{
		Search:         c.QueryParam("search"),
		Specialization: c.QueryParam("specialization"),
		Available:      ParseAvailable(c.QueryParam("available")),
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Doctor{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) PublicDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Public(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	out := make([]ListItem, 0, len(items))
	for _, d := range items {
		out = append(out, d.ListItem())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(out, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	owner := auth.UserIDFromContext(c.Request().Context())
	d, err := h.svc.Create(c.Request().Context(), owner, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Doctor created successfully",
		"doctor":  d,
	})
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := doctorID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	return h.update(c, false)
}

func (h *Handler) PatchDoctor(c echo.Context) error {
	return h.update(c, true)
}

func (h *Handler) update(c echo.Context, partial bool) error {
	id, err := doctorID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	owner := auth.UserIDFromContext(c.Request().Context())
	d, err := h.svc.Update(c.Request().Context(), owner, id, in, partial)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Doctor updated successfully",
		"doctor":  d,
	})
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := doctorID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Doctor deleted successfully"})
}
