// This file holds helpers for reading draft edits out of HTMX and plain
// form requests.

package http

import (
	"net/http"
	"net/url"
	"strings"

	"gastos/internal/core"
)

// DraftEdit is one input-panel change.
type DraftEdit struct {
	Field string
	Value string
}

// ParseDraftEdit reads a single field change. Explicit field/value form
// parameters win; otherwise the field is the name of the input that fired
// the HTMX request (HX-Trigger-Name) and the value is read under that name.
func ParseDraftEdit(r *http.Request) (DraftEdit, bool) {
	field := sanitizeInput(r.Form.Get("field"))
	if field != "" {
		return DraftEdit{Field: field, Value: sanitizeInput(r.Form.Get("value"))}, true
	}

	field = sanitizeInput(r.Header.Get("HX-Trigger-Name"))
	if field == "" {
		return DraftEdit{}, false
	}
	return DraftEdit{Field: field, Value: sanitizeInput(r.Form.Get(field))}, true
}

// SubmittedFields returns the category inputs present in a submitted form,
// in display order. A blank input is kept so the draft stores it as missing.
// Unknown keys are ignored.
func SubmittedFields(form url.Values) []DraftEdit {
	var edits []DraftEdit
	for _, c := range core.Categories {
		key := string(c)
		if _, ok := form[key]; !ok {
			continue
		}
		edits = append(edits, DraftEdit{Field: key, Value: sanitizeInput(form.Get(key))})
	}
	return edits
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
