package academia

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
)

var (
	// ErrSessionExpired maps any upstream 401 to one fixed message; clients
	// key on it to force a re-login instead of retrying.
	ErrSessionExpired = errors.New("Your session has expired. Please log in again.")
	ErrForbidden      = errors.New("You do not have permission to perform this action.")
)

// apiError decodes the upstream's DRF-style error bodies:
// {"detail": "..."} or {"field": ["msg", ...], ...}.
func decodeError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrSessionExpired
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return catalog.ErrNotFound
	}

	if status == http.StatusBadRequest {
		if verr := decodeFieldErrors(body); verr != nil {
			return verr
		}
	}

	detail := strings.TrimSpace(string(body))
	var d struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &d); err == nil && d.Detail != "" {
		detail = d.Detail
	}
	return errors.Errorf("upstream returned %d: %s", status, detail)
}

func decodeFieldErrors(body []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return nil
	}

	var fldErrs []core.FieldError
	for field, raw := range fields {
		var msgs []string
		if err := json.Unmarshal(raw, &msgs); err == nil && len(msgs) > 0 {
			fldErrs = append(fldErrs, core.FieldError{Field: field, Error: strings.Join(msgs, "; ")})
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
			fldErrs = append(fldErrs, core.FieldError{Field: field, Error: msg})
		}
	}
	if len(fldErrs) == 0 {
		return nil
	}
	return core.NewValidationError(fmt.Errorf("upstream rejected the request"), fldErrs...)
}
