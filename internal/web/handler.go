package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medlink/medlink/internal/domain/account"
	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
	"github.com/medlink/medlink/internal/platform/auth"
)

// Accounts is what the pages need from the account service.
type Accounts interface {
	Login(ctx context.Context, username, password string) (*account.User, auth.TokenPair, error)
	CreateUser(ctx context.Context, nu account.NewUser) (*account.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	IssueTokens(ctx context.Context, u *account.User) (auth.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error
	Profile(ctx context.Context, id uuid.UUID) (*account.User, error)
}

type Patients interface {
	Create(ctx context.Context, owner uuid.UUID, in patient.Input) (*patient.Patient, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*patient.Patient, error)
	Update(ctx context.Context, owner, id uuid.UUID, in patient.Input, partial bool) (*patient.Patient, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
	List(ctx context.Context, owner uuid.UUID, f patient.ListFilter, limit, offset int) ([]*patient.Patient, int, error)
	Count(ctx context.Context, owner uuid.UUID) (int, error)
	Recent(ctx context.Context, owner uuid.UUID, n int) ([]*patient.Patient, error)
}

type Doctors interface {
	Create(ctx context.Context, owner uuid.UUID, in doctor.Input) (*doctor.Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	GetOwned(ctx context.Context, owner, id uuid.UUID) (*doctor.Doctor, error)
	Update(ctx context.Context, owner, id uuid.UUID, in doctor.Input, partial bool) (*doctor.Doctor, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
	List(ctx context.Context, f doctor.ListFilter, limit, offset int) ([]*doctor.Doctor, int, error)
	Count(ctx context.Context, owner uuid.UUID) (int, error)
	Recent(ctx context.Context, owner uuid.UUID, n int) ([]*doctor.Doctor, error)
}

type Mappings interface {
	Create(ctx context.Context, owner uuid.UUID, in mapping.CreateInput) (*mapping.Mapping, error)
	Update(ctx context.Context, owner, id uuid.UUID, in mapping.UpdateInput) (*mapping.Mapping, error)
	Delete(ctx context.Context, owner, id uuid.UUID) (*mapping.Mapping, error)
	List(ctx context.Context, owner uuid.UUID, status string, limit, offset int) ([]*mapping.Mapping, int, error)
	ListForPatient(ctx context.Context, owner, patientID uuid.UUID) (*patient.Patient, []*mapping.Mapping, error)
	CountActive(ctx context.Context, owner uuid.UUID) (int, error)
	Recent(ctx context.Context, owner uuid.UUID, n int) ([]*mapping.Mapping, error)
}

type Config struct {
	CookieSecure bool
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Deps bundles what NewHandler wires together.
type Deps struct {
	Accounts Accounts
	Patients Patients
	Doctors  Doctors
	Mappings Mappings
	Tokens   SessionTokens
	Config   Config
	Logger   zerolog.Logger
}

// Handler serves the server-rendered pages.
type Handler struct {
	accounts Accounts
	patients Patients
	doctors  Doctors
	mappings Mappings
	tokens   SessionTokens
	cfg      Config
	logger   zerolog.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		accounts: d.Accounts,
		patients: d.Patients,
		doctors:  d.Doctors,
		mappings: d.Mappings,
		tokens:   d.Tokens,
		cfg:      d.Config,
		logger:   d.Logger.With().Str("component", "web").Logger(),
	}
}

// Page sizes of the list pages.
const (
	patientsPerPage    = 12
	doctorsPerPage     = 12
	assignmentsPerPage = 20
	dashboardRecent    = 5
	selectLimit        = 500
)

// RegisterRoutes mounts every page on e. Forms are CSRF-protected; all
// pages except home, login and register need a session.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.StaticFS("/static", echo.MustSubFS(staticFS, "static"))

	csrf := echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "form:csrf_token",
		CookieName:     "csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   h.cfg.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	})
	guest := []echo.MiddlewareFunc{csrf}
	member := []echo.MiddlewareFunc{csrf, h.RequireLogin}

	e.GET("/", h.Home, guest...)
	e.GET("/login", h.LoginPage, guest...)
	e.POST("/login", h.Login, guest...)
	e.GET("/register", h.RegisterPage, guest...)
	e.POST("/register", h.Register, guest...)

	e.POST("/logout", h.Logout, member...)
	e.GET("/profile", h.Profile, member...)
	e.GET("/dashboard", h.Dashboard, member...)

	e.GET("/patients", h.PatientList, member...)
	e.GET("/patients/new", h.PatientNew, member...)
	e.POST("/patients", h.PatientCreate, member...)
	e.GET("/patients/:id", h.PatientDetail, member...)
	e.GET("/patients/:id/edit", h.PatientEdit, member...)
	e.POST("/patients/:id/edit", h.PatientUpdate, member...)
	e.POST("/patients/:id/delete", h.PatientDelete, member...)

	e.GET("/doctors", h.DoctorList, member...)
	e.GET("/doctors/new", h.DoctorNew, member...)
	e.POST("/doctors", h.DoctorCreate, member...)
	e.GET("/doctors/:id", h.DoctorDetail, member...)
	e.GET("/doctors/:id/edit", h.DoctorEdit, member...)
	e.POST("/doctors/:id/edit", h.DoctorUpdate, member...)
	e.POST("/doctors/:id/delete", h.DoctorDelete, member...)

	e.GET("/assignments", h.AssignmentList, member...)
	e.GET("/assignments/new", h.AssignmentNew, member...)
	e.POST("/assignments", h.AssignmentCreate, member...)
	e.POST("/assignments/:id/edit", h.AssignmentUpdate, member...)
	e.POST("/assignments/:id/delete", h.AssignmentDelete, member...)
}

// page adds the layout's common values to data.
func (h *Handler) page(c echo.Context, title string, data echo.Map) echo.Map {
	if data == nil {
		data = echo.Map{}
	}
	data["Title"] = title
	data["Username"] = auth.UsernameFromContext(c.Request().Context())
	data["Flash"] = h.popFlash(c)
	data["CSRF"], _ = c.Get(echomw.DefaultCSRFConfig.ContextKey).(string)
	return data
}

func currentUser(c echo.Context) uuid.UUID {
	return auth.UserIDFromContext(c.Request().Context())
}

func notFound() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, "Not found.")
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, notFound()
	}
	return id, nil
}

// Home sends signed-in users to their dashboard.
func (h *Handler) Home(c echo.Context) error {
	if _, _, ok := h.loadSession(c); ok {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.Render(http.StatusOK, "home", h.page(c, "Welcome", nil))
}

func (h *Handler) Profile(c echo.Context) error {
	u, err := h.accounts.Profile(c.Request().Context(), currentUser(c))
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "profile", h.page(c, "Profile", echo.Map{"User": u}))
}

// Dashboard shows the caller's counts and most recent records.
func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	owner := currentUser(c)

	patientCount, err := h.patients.Count(ctx, owner)
	if err != nil {
		return err
	}
	doctorCount, err := h.doctors.Count(ctx, owner)
	if err != nil {
		return err
	}
	mappingCount, err := h.mappings.CountActive(ctx, owner)
	if err != nil {
		return err
	}
	recentPatients, err := h.patients.Recent(ctx, owner, dashboardRecent)
	if err != nil {
		return err
	}
	recentDoctors, err := h.doctors.Recent(ctx, owner, dashboardRecent)
	if err != nil {
		return err
	}
	recentMappings, err := h.mappings.Recent(ctx, owner, dashboardRecent)
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "dashboard", h.page(c, "Dashboard", echo.Map{
		"PatientCount":   patientCount,
		"DoctorCount":    doctorCount,
		"MappingCount":   mappingCount,
		"RecentPatients": recentPatients,
		"RecentDoctors":  recentDoctors,
		"RecentMappings": recentMappings,
	}))
}
