package validation

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
)

// NonField is the key for failures that concern the request as a whole.
const NonField = "non_field_errors"

const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
	MsgEmail    = "Enter a valid email address."
	MsgDate     = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
)

// Errors collects field-keyed validation messages. It renders as the 400 body
// {"field": ["message", ...]}.
type Errors map[string][]string

// Field returns Errors holding a single message.
func Field(field, msg string) Errors {
	return Errors{field: {msg}}
}

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Err returns e as an error, or nil when nothing was added.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the first message for field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// As extracts Errors from err.
func As(err error) (Errors, bool) {
	var verrs Errors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// HTTPError converts err into a 400 carrying the field map.
func HTTPError(verrs Errors) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, map[string][]string(verrs))
}

// Required adds MsgBlank when value is empty after trimming.
func (e Errors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, MsgBlank)
	}
}

func (e Errors) MaxLength(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		e.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
}

// Email checks value is a bare address, skipping empty values.
func (e Errors) Email(field, value string) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@"):], ".") {
		e.Add(field, MsgEmail)
	}
}

// Choice checks value is one of choices, skipping empty values.
func (e Errors) Choice(field, value string, choices ...string) {
	if value == "" {
		return
	}
	for _, c := range choices {
		if value == c {
			return
		}
	}
	e.Add(field, fmt.Sprintf("%q is not a valid choice.", value))
}

// ParseDate parses a YYYY-MM-DD date, recording MsgDate on failure.
func (e Errors) ParseDate(field, value string) time.Time {
	if value == "" {
		e.Add(field, MsgRequired)
		return time.Time{}
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		e.Add(field, MsgDate)
		return time.Time{}
	}
	return t
}
