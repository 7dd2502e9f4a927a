package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlink/medlink/internal/domain/account"
	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
	"github.com/medlink/medlink/internal/platform/auth"
)

// The fakes embed the interfaces so each test only implements what the
// handler under test calls.

type fakeAccounts struct {
	Accounts
	users   map[string]*account.User
	pass    string
	tokens  *auth.TokenIssuer
	revoked []string
}

func (f *fakeAccounts) Login(_ context.Context, username, password string) (*account.User, auth.TokenPair, error) {
	u, ok := f.users[username]
	if !ok || password != f.pass {
		return nil, auth.TokenPair{}, account.ErrInvalidCredentials
	}
	pair, err := f.tokens.IssuePair(u.ID, u.Username)
	return u, pair, err
}

func (f *fakeAccounts) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeAccounts) CreateUser(_ context.Context, nu account.NewUser) (*account.User, error) {
	u := &account.User{ID: uuid.New(), Username: nu.Username, Email: nu.Email, FirstName: nu.FirstName, LastName: nu.LastName, IsActive: true}
	f.users[u.Username] = u
	return u, nil
}

func (f *fakeAccounts) IssueTokens(_ context.Context, u *account.User) (auth.TokenPair, error) {
	return f.tokens.IssuePair(u.ID, u.Username)
}

func (f *fakeAccounts) Logout(_ context.Context, _ uuid.UUID, refresh string) error {
	f.revoked = append(f.revoked, refresh)
	return nil
}

type fakePatients struct {
	Patients
	items []*patient.Patient
}

func (f *fakePatients) Count(context.Context, uuid.UUID) (int, error) { return len(f.items), nil }

func (f *fakePatients) Recent(_ context.Context, _ uuid.UUID, n int) ([]*patient.Patient, error) {
	if n > len(f.items) {
		n = len(f.items)
	}
	return f.items[:n], nil
}

func (f *fakePatients) List(_ context.Context, _ uuid.UUID, _ patient.ListFilter, _, _ int) ([]*patient.Patient, int, error) {
	return f.items, len(f.items), nil
}

func (f *fakePatients) Create(_ context.Context, owner uuid.UUID, in patient.Input) (*patient.Patient, error) {
	p := &patient.Patient{ID: uuid.New(), CreatedBy: owner}
	if errs := in.Apply(p, false); len(errs) > 0 {
		return nil, errs
	}
	f.items = append(f.items, p)
	return p, nil
}

func (f *fakePatients) Get(_ context.Context, owner, id uuid.UUID) (*patient.Patient, error) {
	for _, p := range f.items {
		if p.ID == id && p.CreatedBy == owner {
			return p, nil
		}
	}
	return nil, patient.ErrNotFound
}

type fakeDoctors struct {
	Doctors
	items []*doctor.Doctor
}

func (f *fakeDoctors) Count(context.Context, uuid.UUID) (int, error) { return len(f.items), nil }

func (f *fakeDoctors) Recent(context.Context, uuid.UUID, int) ([]*doctor.Doctor, error) {
	return f.items, nil
}

func (f *fakeDoctors) Get(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	for _, d := range f.items {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, doctor.ErrNotFound
}

type fakeMappings struct {
	Mappings
	items []*mapping.Mapping
}

func (f *fakeMappings) CountActive(context.Context, uuid.UUID) (int, error) {
	n := 0
	for _, m := range f.items {
		if m.Status == mapping.StatusActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeMappings) Recent(context.Context, uuid.UUID, int) ([]*mapping.Mapping, error) {
	return f.items, nil
}

func (f *fakeMappings) Delete(_ context.Context, _, id uuid.UUID) (*mapping.Mapping, error) {
	for i, m := range f.items {
		if m.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return m, nil
		}
	}
	return nil, mapping.ErrNotFound
}

type testEnv struct {
	h        *Handler
	e        *echo.Echo
	tokens   *auth.TokenIssuer
	accounts *fakeAccounts
	patients *fakePatients
	doctors  *fakeDoctors
	mappings *fakeMappings
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := auth.NewTokenRevocationStore()
	t.Cleanup(store.Close)
	tokens := auth.NewTokenIssuer(auth.TokenConfig{
		SigningKey: []byte(strings.Repeat("k", 32)),
		Issuer:     "medlink-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}, store)

	env := &testEnv{
		tokens:   tokens,
		accounts: &fakeAccounts{users: map[string]*account.User{}, pass: "secret", tokens: tokens},
		patients: &fakePatients{},
		doctors:  &fakeDoctors{},
		mappings: &fakeMappings{},
	}
	env.h = NewHandler(Deps{
		Accounts: env.accounts,
		Patients: env.patients,
		Doctors:  env.doctors,
		Mappings: env.mappings,
		Tokens:   tokens,
		Config:   Config{AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour},
		Logger:   zerolog.Nop(),
	})

	renderer, err := NewRenderer()
	require.NoError(t, err)
	env.e = echo.New()
	env.e.Renderer = renderer
	return env
}

func (env *testEnv) form(method, target string, values url.Values) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return env.e.NewContext(req, rec), rec
}

// member returns a context for a signed-in user.
func (env *testEnv) member(c echo.Context, id uuid.UUID) echo.Context {
	c.SetRequest(c.Request().WithContext(auth.WithUser(c.Request().Context(), id, "alice")))
	return c
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestNewRenderer_ParsesEveryPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, name := range []string{
		"home", "login", "register", "profile", "dashboard", "error",
		"patients", "patient_form", "patient_detail",
		"doctors", "doctor_form", "doctor_detail",
		"assignments", "assignment_form",
	} {
		assert.Contains(t, r.pages, name)
	}
	assert.NotContains(t, r.pages, "layout")
}

func TestRenderer_ErrorPage(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.form(http.MethodGet, "/missing", nil)

	require.NoError(t, env.e.Renderer.(*Renderer).ErrorPage(c, http.StatusNotFound, ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                 "/dashboard",
		"/patients?page=2": "/patients?page=2",
		"//evil.test":      "/dashboard",
		"/\\evil.test":     "/dashboard",
		"http://evil.test": "/dashboard",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), "next=%q", in)
	}
}

func TestFlash_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.form(http.MethodGet, "/", nil)
	env.h.setFlash(c, "success", "Saved | twice")

	ck := cookieNamed(rec, flashCookie)
	require.NotNil(t, ck)

	c, rec = env.form(http.MethodGet, "/", nil)
	c.Request().AddCookie(ck)
	f := env.h.popFlash(c)
	require.NotNil(t, f)
	assert.Equal(t, "success", f.Kind)
	assert.Equal(t, "Saved | twice", f.Message)

	expired := cookieNamed(rec, flashCookie)
	require.NotNil(t, expired)
	assert.Negative(t, expired.MaxAge)
}

func TestRequireLogin_RedirectsWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.form(http.MethodGet, "/patients?page=2", nil)

	called := false
	err := env.h.RequireLogin(func(echo.Context) error { called = true; return nil })(c)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/patients?page=2"), rec.Header().Get(echo.HeaderLocation))
}

func TestRequireLogin_AcceptsAccessCookie(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	pair, err := env.tokens.IssuePair(id, "alice")
	require.NoError(t, err)

	c, _ := env.form(http.MethodGet, "/dashboard", nil)
	c.Request().AddCookie(&http.Cookie{Name: AccessCookie, Value: pair.Access})

	var seen uuid.UUID
	err = env.h.RequireLogin(func(c echo.Context) error {
		seen = currentUser(c)
		return nil
	})(c)
	require.NoError(t, err)
	assert.Equal(t, id, seen)
}

func TestRequireLogin_RenewsFromRefreshCookie(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	pair, err := env.tokens.IssuePair(id, "alice")
	require.NoError(t, err)

	c, rec := env.form(http.MethodGet, "/dashboard", nil)
	c.Request().AddCookie(&http.Cookie{Name: AccessCookie, Value: "garbage"})
	c.Request().AddCookie(&http.Cookie{Name: RefreshCookie, Value: pair.Refresh})

	var seen uuid.UUID
	err = env.h.RequireLogin(func(c echo.Context) error {
		seen = currentUser(c)
		return nil
	})(c)
	require.NoError(t, err)
	assert.Equal(t, id, seen)
	assert.NotNil(t, cookieNamed(rec, AccessCookie))
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	env.accounts.users["alice"] = &account.User{ID: uuid.New(), Username: "alice", FirstName: "Alice", LastName: "Smith"}

	c, rec := env.form(http.MethodPost, "/login", url.Values{
		"username": {"alice"}, "password": {"secret"}, "next": {"/patients"},
	})
	require.NoError(t, env.h.Login(c))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/patients", rec.Header().Get(echo.HeaderLocation))
	assert.NotNil(t, cookieNamed(rec, AccessCookie))
	assert.NotNil(t, cookieNamed(rec, RefreshCookie))

	c, _ = env.form(http.MethodGet, "/", nil)
	c.Request().AddCookie(cookieNamed(rec, flashCookie))
	f := env.h.popFlash(c)
	require.NotNil(t, f)
	assert.Equal(t, "Welcome back, Alice Smith!", f.Message)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.accounts.users["alice"] = &account.User{ID: uuid.New(), Username: "alice"}

	c, rec := env.form(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	require.NoError(t, env.h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), msgLoginInvalid)
	assert.Contains(t, rec.Body.String(), `value="alice"`)

	c, rec = env.form(http.MethodPost, "/login", url.Values{"username": {"alice"}})
	require.NoError(t, env.h.Login(c))
	assert.Contains(t, rec.Body.String(), msgLoginRequired)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.accounts.users["taken"] = &account.User{ID: uuid.New(), Username: "taken"}

	cases := []struct {
		name   string
		values url.Values
		want   string
	}{
		{"missing", url.Values{"username": {"bob"}}, msgRegisterRequired},
		{"mismatch", url.Values{"username": {"bob"}, "email": {"b@x.com"}, "password": {"abcd"}, "password_confirm": {"abce"}}, msgPasswordMismatch},
		{"short", url.Values{"username": {"bob"}, "email": {"b@x.com"}, "password": {"abc"}, "password_confirm": {"abc"}}, msgPasswordShort},
		{"taken", url.Values{"username": {"taken"}, "email": {"b@x.com"}, "password": {"abcd"}, "password_confirm": {"abcd"}}, msgUsernameTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := env.form(http.MethodPost, "/register", tc.values)
			require.NoError(t, env.h.Register(c))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestRegister_SignsIn(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.form(http.MethodPost, "/register", url.Values{
		"username": {"bob"}, "email": {"b@x.com"}, "password": {"abcd"}, "password_confirm": {"abcd"},
	})
	require.NoError(t, env.h.Register(c))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))
	assert.NotNil(t, cookieNamed(rec, AccessCookie))
	assert.Contains(t, env.accounts.users, "bob")
}

func TestRegister_EmailOptional(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.form(http.MethodPost, "/register", url.Values{
		"username": {"carol"}, "password": {"abcd"}, "password_confirm": {"abcd"},
	})
	require.NoError(t, env.h.Register(c))

	assert.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, env.accounts.users, "carol")
	assert.Empty(t, env.accounts.users["carol"].Email)
}

func TestLogout_RevokesRefreshCookie(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.form(http.MethodPost, "/logout", nil)
	c.Request().AddCookie(&http.Cookie{Name: RefreshCookie, Value: "refresh-token"})
	c = env.member(c, uuid.New())

	require.NoError(t, env.h.Logout(c))
	assert.Equal(t, []string{"refresh-token"}, env.accounts.revoked)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.Negative(t, cookieNamed(rec, AccessCookie).MaxAge)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	env.patients.items = []*patient.Patient{{ID: uuid.New(), FirstName: "Jo", LastName: "Doe"}}
	env.doctors.items = []*doctor.Doctor{{ID: uuid.New(), FirstName: "Ann", LastName: "Lee", Specialization: "CARDIOLOGY"}}
	env.mappings.items = []*mapping.Mapping{
		{ID: uuid.New(), PatientName: "Jo Doe", DoctorName: "Dr. Ann Lee", Status: mapping.StatusActive},
		{ID: uuid.New(), PatientName: "Jo Doe", DoctorName: "Dr. Ann Lee", Status: mapping.StatusCompleted},
	}

	c, rec := env.form(http.MethodGet, "/dashboard", nil)
	require.NoError(t, env.h.Dashboard(env.member(c, owner)))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "<strong>1</strong> Active assignments")
	assert.Contains(t, body, "Jo Doe")
	assert.Contains(t, body, "Dr. Ann Lee")
	assert.Contains(t, body, "Cardiology")
}

func TestPatientCreate_ReRendersErrors(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.form(http.MethodPost, "/patients", url.Values{"first_name": {"Jo"}})
	require.NoError(t, env.h.PatientCreate(env.member(c, uuid.New())))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field may not be blank.")
	assert.Contains(t, rec.Body.String(), `value="Jo"`)
	assert.Empty(t, env.patients.items)
}

func TestPatientCreate_Redirects(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.form(http.MethodPost, "/patients", url.Values{
		"first_name": {"Jo"}, "last_name": {"Doe"}, "email": {"jo@x.com"}, "phone_number": {"5551234"},
		"date_of_birth": {"1990-04-12"}, "gender": {"F"}, "address": {"1 Main St"}, "city": {"Springfield"},
		"state": {"IL"}, "zip_code": {"62701"}, "blood_type": {""},
	})
	require.NoError(t, env.h.PatientCreate(env.member(c, uuid.New())))

	require.Len(t, env.patients.items, 1)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/patients/"+env.patients.items[0].ID.String(), rec.Header().Get(echo.HeaderLocation))
}

func TestPatientEdit_OtherOwnerIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	p := &patient.Patient{ID: uuid.New(), CreatedBy: uuid.New()}
	env.patients.items = append(env.patients.items, p)

	c, _ := env.form(http.MethodGet, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := env.h.PatientEdit(env.member(c, uuid.New()))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestDoctorDetail_OwnerControls(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	d := &doctor.Doctor{ID: uuid.New(), CreatedBy: owner, FirstName: "Ann", LastName: "Lee", Specialization: "NEUROLOGY", ConsultationFee: "150.00"}
	env.doctors.items = append(env.doctors.items, d)

	render := func(user uuid.UUID) string {
		c, rec := env.form(http.MethodGet, "/", nil)
		c.SetParamNames("id")
		c.SetParamValues(d.ID.String())
		require.NoError(t, env.h.DoctorDetail(env.member(c, user)))
		return rec.Body.String()
	}

	assert.Contains(t, render(owner), "/doctors/"+d.ID.String()+"/edit")
	other := render(uuid.New())
	assert.NotContains(t, other, "/doctors/"+d.ID.String()+"/edit")
	assert.Contains(t, other, "$150.00")
}

func TestAssignmentDelete_FlashesRemoval(t *testing.T) {
	env := newTestEnv(t)
	m := &mapping.Mapping{ID: uuid.New(), PatientName: "Jo Doe", DoctorName: "Dr. Ann Lee"}
	env.mappings.items = append(env.mappings.items, m)

	c, rec := env.form(http.MethodPost, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(m.ID.String())
	require.NoError(t, env.h.AssignmentDelete(env.member(c, uuid.New())))

	assert.Equal(t, "/assignments", rec.Header().Get(echo.HeaderLocation))
	c, _ = env.form(http.MethodGet, "/", nil)
	c.Request().AddCookie(cookieNamed(rec, flashCookie))
	assert.Equal(t, "Successfully removed Dr. Ann Lee from Jo Doe", env.h.popFlash(c).Message)
}
