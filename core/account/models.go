package account

import (
	"github.com/volatiletech/null/v8"
)

type (
	// FreezeStatus is the account-freeze state held upstream. A frozen
	// account keeps its enrollments but pauses access until the end date.
	FreezeStatus struct {
		IsFrozen      bool        `json:"is_frozen"`
		HasUsedFreeze bool        `json:"has_used_freeze"`
		Reason        null.String `json:"freeze_reason"`
		StartDate     null.Time   `json:"freeze_start_date"`
		EndDate       null.Time   `json:"freeze_end_date"`
		FrozenByAdmin bool        `json:"frozen_by_admin"`
		AdminNotes    null.String `json:"admin_notes"`
		RemainingDays null.Int    `json:"remaining_days"`
	}

	// KindEnrollment is one content kind's slice of the enrollment payload.
	// Enrollments are sold per kind, so the flags never collapse into one.
	KindEnrollment struct {
		IsEnrolled bool      `json:"is_enrolled"`
		Products   []int     `json:"enrolled_products"`
		ExpiresAt  null.Time `json:"expires_at"`
	}

	EnrollmentStatus struct {
		QuestionBank KindEnrollment `json:"question_bank"`
		Flashcards   KindEnrollment `json:"flashcards"`
	}
)
