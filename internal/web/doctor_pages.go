package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/platform/validation"
	"github.com/medlink/medlink/pkg/pagination"
)

// DoctorList shows every doctor, not only the caller's.
func (h *Handler) DoctorList(c echo.Context) error {
	f := doctor.ListFilter{
		Search:         c.QueryParam("search"),
		Specialization: c.QueryParam("specialization"),
		Available:      doctor.ParseAvailable(c.QueryParam("available")),
	}
	pg := pagination.PageFromContext(c, doctorsPerPage)
	params := pg.Params()
	items, total, err := h.doctors.List(c.Request().Context(), f, params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "doctors", h.page(c, "Doctors", echo.Map{
		"Doctors":   items,
		"Filter":    f,
		"Available": c.QueryParam("available"),
		"Page":      pg.Result(total),
	}))
}

func (h *Handler) DoctorNew(c echo.Context) error {
	return h.doctorFormPage(c, http.StatusOK, "", map[string]string{"is_available": "on"}, nil)
}

func (h *Handler) doctorFormPage(c echo.Context, code int, id string, form map[string]string, errs validation.Errors) error {
	title, action := "Add Doctor", "/doctors"
	if id != "" {
		title, action = "Edit Doctor", "/doctors/"+id+"/edit"
	}
	return c.Render(code, "doctor_form", h.page(c, title, echo.Map{
		"Action": action,
		"Form":   form,
		"Errors": errs,
	}))
}

func (h *Handler) DoctorCreate(c echo.Context) error {
	form := readForm(c, doctorFields)
	form["is_available"] = c.FormValue("is_available")
	d, err := h.doctors.Create(c.Request().Context(), currentUser(c), doctorInput(form, form["is_available"] != ""))
	if verrs, ok := validation.As(err); ok {
		return h.doctorFormPage(c, http.StatusBadRequest, "", form, verrs)
	}
	if err != nil {
		return err
	}
	h.setFlash(c, "success", "Doctor created successfully")
	return c.Redirect(http.StatusFound, "/doctors/"+d.ID.String())
}

func (h *Handler) DoctorDetail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.doctors.Get(c.Request().Context(), id)
	if err != nil {
		return lookupError(err)
	}
	return c.Render(http.StatusOK, "doctor_detail", h.page(c, d.FullName(), echo.Map{
		"Doctor":  d,
		"IsOwner": d.CreatedBy == currentUser(c),
	}))
}

func (h *Handler) DoctorEdit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.doctors.GetOwned(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return lookupError(err)
	}
	return h.doctorFormPage(c, http.StatusOK, id.String(), doctorForm(d), nil)
}

func (h *Handler) DoctorUpdate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	form := readForm(c, doctorFields)
	form["is_available"] = c.FormValue("is_available")
	_, err = h.doctors.Update(c.Request().Context(), currentUser(c), id, doctorInput(form, form["is_available"] != ""), false)
	if verrs, ok := validation.As(err); ok {
		return h.doctorFormPage(c, http.StatusBadRequest, id.String(), form, verrs)
	}
	if err != nil {
		return lookupError(err)
	}
	h.setFlash(c, "success", "Doctor updated successfully")
	return c.Redirect(http.StatusFound, "/doctors/"+id.String())
}

func (h *Handler) DoctorDelete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.doctors.Delete(c.Request().Context(), currentUser(c), id); err != nil {
		return lookupError(err)
	}
	h.setFlash(c, "success", "Doctor deleted successfully")
	return c.Redirect(http.StatusFound, "/doctors")
}
