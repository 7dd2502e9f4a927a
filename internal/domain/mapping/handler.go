package mapping

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
	api.GET("/mappings", h.ListMappings)
	api.POST("/mappings", h.CreateMapping)
	api.GET("/mappings/patient/:patient_id", h.PatientDoctors)
	api.GET("/mappings/:id", h.GetMapping)
	api.PUT("/mappings/:id", h.UpdateMapping)
	api.PATCH("/mappings/:id", h.UpdateMapping)
	api.PUT("/mappings/:id/update", h.UpdateMapping)
	api.PATCH("/mappings/:id/update", h.UpdateMapping)
	api.DELETE("/mappings/:id", h.DeleteMapping)
	api.DELETE("/mappings/:id/delete", h.DeleteMapping)
}

func notFound() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, "Not found.")
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, notFound()
	}
	return id, nil
}

func mapError(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPatientNotFound) {
		return notFound()
	}
	if verrs, ok := validation.As(err); ok {
		return validation.HTTPError(verrs)
	}
	return err
}

func (h *Handler) ListMappings(c echo.Context) error {
	pg := pagination.FromContext(c)
	owner := auth.UserIDFromContext(c.Request().Context())
	items, total, err := h.svc.List(c.Request().Context(), owner, c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Mapping{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateMapping(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	owner := auth.UserIDFromContext(c.Request().Context())
	m, err := h.svc.Create(c.Request().Context(), owner, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Patient assigned to doctor successfully",
		"mapping": m,
	})
}

func (h *Handler) GetMapping(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.Get(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateMapping(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	m, err := h.svc.Update(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Mapping updated successfully",
		"mapping": m,
	})
}

func (h *Handler) DeleteMapping(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.Delete(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": RemovedMessage(m),
	})
}

// RemovedMessage describes a deleted mapping.
func RemovedMessage(m *Mapping) string {
	return "Successfully removed " + m.DoctorName + " from " + m.PatientName
}

func (h *Handler) PatientDoctors(c echo.Context) error {
	patientID, err := pathID(c, "patient_id")
	if err != nil {
		return err
	}
	p, items, err := h.svc.ListForPatient(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), patientID)
	if err != nil {
		return mapError(err)
	}
	doctors := make([]AssignedDoctor, 0, len(items))
	for _, m := range items {
		doctors = append(doctors, m.AssignedDoctor())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient": map[string]interface{}{
			"id":    p.ID,
			"name":  p.FullName(),
			"email": p.Email,
		},
		"doctors": doctors,
	})
}
