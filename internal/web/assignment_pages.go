package web

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
	"github.com/medlink/medlink/internal/platform/validation"
	"github.com/medlink/medlink/pkg/pagination"
)

var notFoundErrors = []error{
	patient.ErrNotFound,
	doctor.ErrNotFound,
	mapping.ErrNotFound,
	mapping.ErrPatientNotFound,
}

func (h *Handler) AssignmentList(c echo.Context) error {
	status := c.QueryParam("status")
	pg := pagination.PageFromContext(c, assignmentsPerPage)
	params := pg.Params()
	items, total, err := h.mappings.List(c.Request().Context(), currentUser(c), status, params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "assignments", h.page(c, "Assignments", echo.Map{
		"Mappings": items,
		"Status":   status,
		"Page":     pg.Result(total),
	}))
}

func (h *Handler) AssignmentNew(c echo.Context) error {
	form := map[string]string{
		"patient": c.QueryParam("patient"),
		"doctor":  c.QueryParam("doctor"),
		"status":  mapping.StatusActive,
	}
	return h.assignmentFormPage(c, http.StatusOK, form, nil)
}

// assignmentFormPage offers the caller's patients and every available doctor.
func (h *Handler) assignmentFormPage(c echo.Context, code int, form map[string]string, errs validation.Errors) error {
	ctx := c.Request().Context()
	patients, _, err := h.patients.List(ctx, currentUser(c), patient.ListFilter{}, selectLimit, 0)
	if err != nil {
		return err
	}
	available := true
	doctors, _, err := h.doctors.List(ctx, doctor.ListFilter{Available: &available}, selectLimit, 0)
	if err != nil {
		return err
	}
	return c.Render(code, "assignment_form", h.page(c, "Assign Doctor", echo.Map{
		"Form":     form,
		"Errors":   errs,
		"Patients": patients,
		"Doctors":  doctors,
	}))
}

func (h *Handler) AssignmentCreate(c echo.Context) error {
	form := readForm(c, []string{"patient", "doctor", "status", "notes"})
	in := mapping.CreateInput{
		Patient: strp(form, "patient"),
		Doctor:  strp(form, "doctor"),
		Notes:   strp(form, "notes"),
	}
	if form["status"] != "" {
		in.Status = strp(form, "status")
	}
	_, err := h.mappings.Create(c.Request().Context(), currentUser(c), in)
	if verrs, ok := validation.As(err); ok {
		return h.assignmentFormPage(c, http.StatusBadRequest, form, verrs)
	}
	if err != nil {
		return err
	}
	h.setFlash(c, "success", "Patient assigned to doctor successfully")
	return c.Redirect(http.StatusFound, "/assignments")
}

// AssignmentUpdate changes status and notes from the inline list form.
func (h *Handler) AssignmentUpdate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	form := readForm(c, []string{"status", "notes"})
	_, err = h.mappings.Update(c.Request().Context(), currentUser(c), id, mapping.UpdateInput{
		Status: strp(form, "status"),
		Notes:  strp(form, "notes"),
	})
	if verrs, ok := validation.As(err); ok {
		h.setFlash(c, "error", flattenErrors(verrs))
		return c.Redirect(http.StatusFound, "/assignments")
	}
	if err != nil {
		return lookupError(err)
	}
	h.setFlash(c, "success", "Assignment updated successfully")
	return c.Redirect(http.StatusFound, "/assignments")
}

func (h *Handler) AssignmentDelete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	m, err := h.mappings.Delete(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return lookupError(err)
	}
	h.setFlash(c, "success", mapping.RemovedMessage(m))
	return c.Redirect(http.StatusFound, "/assignments")
}

func flattenErrors(verrs validation.Errors) string {
	var msgs []string
	for _, field := range []string{"status", "notes", validation.NonField} {
		msgs = append(msgs, verrs[field]...)
	}
	return strings.Join(msgs, " ")
}
