package account

import (
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// MaxFreezeDays caps how far out a freeze may run.
const MaxFreezeDays = 60

var errInvalidFreeze = errors.New("invalid freeze request")

type FreezeRequest struct {
	Reason  string    `json:"reason" validate:"required,notblank"`
	EndDate time.Time `json:"end_date" validate:"required"`
}

// Validate rejects a freeze request locally before anything reaches the
// upstream: blank reason, missing end date, past end date, or an end date
// further out than MaxFreezeDays.
func (fr *FreezeRequest) Validate(validate *validator.Validate) error {
	fr.Reason = core.CleanString(fr.Reason)
	if err := validate.Struct(fr); err != nil {
		return err
	}

	now := time.Now()
	if !fr.EndDate.After(now) {
		return core.NewValidationError(errInvalidFreeze, core.FieldError{
			Field: "end_date", Error: "end date must be in the future",
		})
	}
	if fr.EndDate.After(now.AddDate(0, 0, MaxFreezeDays)) {
		return core.NewValidationError(errInvalidFreeze, core.FieldError{
			Field: "end_date", Error: "freeze cannot exceed 60 days",
		})
	}
	return nil
}
