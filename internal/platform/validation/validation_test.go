package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_ErrNilWhenEmpty(t *testing.T) {
	e := Errors{}
	assert.NoError(t, e.Err())

	e.Add("email", MsgEmail)
	require.Error(t, e.Err())
	assert.Contains(t, e.Err().Error(), "email: Enter a valid email address.")
}

func TestErrors_AsThroughWrap(t *testing.T) {
	wrapped := fmt.Errorf("create patient: %w", Field("email", "taken"))

	verrs, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "taken", verrs.First("email"))

	_, ok = As(errors.New("boom"))
	assert.False(t, ok)
}

func TestErrors_Checks(t *testing.T) {
	e := Errors{}
	e.Required("first_name", "  ")
	e.MaxLength("zip_code", strings.Repeat("9", 11), 10)
	e.Email("email", "not-an-email")
	e.Email("other_email", "")
	e.Choice("gender", "X", "M", "F", "O")
	e.ParseDate("date_of_birth", "01/02/1990")

	assert.Equal(t, MsgBlank, e.First("first_name"))
	assert.Equal(t, "Ensure this field has no more than 10 characters.", e.First("zip_code"))
	assert.Equal(t, MsgEmail, e.First("email"))
	assert.False(t, e.Has("other_email"))
	assert.Equal(t, `"X" is not a valid choice.`, e.First("gender"))
	assert.Equal(t, MsgDate, e.First("date_of_birth"))
}

func TestErrors_EmailAccepted(t *testing.T) {
	for _, addr := range []string{"jo@x.com", "first.last+tag@example.co.uk"} {
		e := Errors{}
		e.Email("email", addr)
		assert.False(t, e.Has("email"), addr)
	}
	for _, addr := range []string{"Jo <jo@x.com>", "jo@localhost", "@x.com"} {
		e := Errors{}
		e.Email("email", addr)
		assert.True(t, e.Has("email"), addr)
	}
}

func TestParseDate(t *testing.T) {
	e := Errors{}
	d := e.ParseDate("date_of_birth", "1990-04-12")
	assert.Empty(t, e)
	assert.Equal(t, 1990, d.Year())

	e.ParseDate("date_of_birth", "")
	assert.Equal(t, MsgRequired, e.First("date_of_birth"))
}

func TestHTTPError(t *testing.T) {
	he := HTTPError(Field("doctor", "Doctor not found."))
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, map[string][]string{"doctor": {"Doctor not found."}}, he.Message)
}
