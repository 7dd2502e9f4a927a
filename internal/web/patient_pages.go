package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/patient"
	"github.com/medlink/medlink/internal/platform/validation"
	"github.com/medlink/medlink/pkg/pagination"
)

func (h *Handler) PatientList(c echo.Context) error {
	f := patient.ListFilter{
		Search:    c.QueryParam("search"),
		Gender:    c.QueryParam("gender"),
		City:      c.QueryParam("city"),
		BloodType: c.QueryParam("blood_type"),
	}
	pg := pagination.PageFromContext(c, patientsPerPage)
	params := pg.Params()
	items, total, err := h.patients.List(c.Request().Context(), currentUser(c), f, params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "patients", h.page(c, "Patients", echo.Map{
		"Patients": items,
		"Filter":   f,
		"Page":     pg.Result(total),
	}))
}

func (h *Handler) PatientNew(c echo.Context) error {
	return h.patientFormPage(c, http.StatusOK, "", map[string]string{}, nil)
}

func (h *Handler) patientFormPage(c echo.Context, code int, id string, form map[string]string, errs validation.Errors) error {
	title, action := "Add Patient", "/patients"
	if id != "" {
		title, action = "Edit Patient", "/patients/"+id+"/edit"
	}
	return c.Render(code, "patient_form", h.page(c, title, echo.Map{
		"Action": action,
		"Form":   form,
		"Errors": errs,
	}))
}

func (h *Handler) PatientCreate(c echo.Context) error {
	form := readForm(c, patientFields)
	p, err := h.patients.Create(c.Request().Context(), currentUser(c), patientInput(form))
	if verrs, ok := validation.As(err); ok {
		return h.patientFormPage(c, http.StatusBadRequest, "", form, verrs)
	}
	if err != nil {
		return err
	}
	h.setFlash(c, "success", "Patient created successfully")
	return c.Redirect(http.StatusFound, "/patients/"+p.ID.String())
}

// PatientDetail shows the patient with the doctors the caller assigned.
func (h *Handler) PatientDetail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, mappings, err := h.mappings.ListForPatient(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return lookupError(err)
	}
	return c.Render(http.StatusOK, "patient_detail", h.page(c, p.FullName(), echo.Map{
		"Patient":  p,
		"Mappings": mappings,
	}))
}

func (h *Handler) PatientEdit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.patients.Get(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return lookupError(err)
	}
	return h.patientFormPage(c, http.StatusOK, id.String(), patientForm(p), nil)
}

func (h *Handler) PatientUpdate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	form := readForm(c, patientFields)
	_, err = h.patients.Update(c.Request().Context(), currentUser(c), id, patientInput(form), false)
	if verrs, ok := validation.As(err); ok {
		return h.patientFormPage(c, http.StatusBadRequest, id.String(), form, verrs)
	}
	if err != nil {
		return lookupError(err)
	}
	h.setFlash(c, "success", "Patient updated successfully")
	return c.Redirect(http.StatusFound, "/patients/"+id.String())
}

func (h *Handler) PatientDelete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.patients.Delete(c.Request().Context(), currentUser(c), id); err != nil {
		return lookupError(err)
	}
	h.setFlash(c, "success", "Patient deleted successfully")
	return c.Redirect(http.StatusFound, "/patients")
}

// lookupError turns the domain not-found errors into a 404 page.
func lookupError(err error) error {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return notFound()
		}
	}
	return err
}
