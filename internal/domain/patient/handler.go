package patient

import (
	"errors"
	"net/http"

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.PATCH("/patients/:id", h.PatchPatient)
	api.DELETE("/patients/:id", h.DeletePatient)
}

func notFound() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, "Not found.")
}

func patientID(c echo.Context) (uuid.UUID, error) {
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

func (h *Handler) ListPatients(c echo.Context) error {
	owner := auth.UserIDFromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	f := ListFilter{
		Search:    c.QueryParam("search"),
		Gender:    c.QueryParam("gender"),
		City:      c.QueryParam("city"),
		BloodType: c.QueryParam("blood_type"),
	}
	items, total, err := h.svc.List(c.Request().Context(), owner, f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	owner := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.Create(c.Request().Context(), owner, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Patient created successfully",
		"patient": p,
	})
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	return h.update(c, false)
}

func (h *Handler) PatchPatient(c echo.Context) error {
	return h.update(c, true)
}

func (h *Handler) update(c echo.Context, partial bool) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	owner := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.Update(c.Request().Context(), owner, id, in, partial)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Patient updated successfully",
		"patient": p,
	})
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Patient deleted successfully"})
}
