package account

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/trezcool/darasa/core"
)

type (
	// Repository is the upstream account API.
	Repository interface {
		GetFreezeStatus(ctx context.Context, token string) (FreezeStatus, error)
		RequestFreeze(ctx context.Context, token string, req FreezeRequest) (FreezeStatus, error)
		CancelFreeze(ctx context.Context, token string) (FreezeStatus, error)
		UnfreezeUser(ctx context.Context, token, userID string) (FreezeStatus, error)
		GetEnrollmentStatus(ctx context.Context, token string) (EnrollmentStatus, error)
	}

	Service struct {
		repo        Repository
		mailSvc     core.EmailService
		appName     string
		frontendURL string
	}
)

func NewService(repo Repository, mailSvc core.EmailService, appName, frontendURL string) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, appName: appName, frontendURL: frontendURL}
}

func (svc *Service) FreezeStatus(ctx context.Context, token string) (FreezeStatus, error) {
	return svc.repo.GetFreezeStatus(ctx, token)
}

// RequestFreeze forwards a locally validated freeze request upstream and
// emails the student a confirmation. Validation happens in the handler
// before this is called; the upstream may still reject on its own rules.
func (svc *Service) RequestFreeze(ctx context.Context, token, email string, req FreezeRequest) (FreezeStatus, error) {
	status, err := svc.repo.RequestFreeze(ctx, token, req)
	if err != nil {
		return FreezeStatus{}, err
	}
	svc.sendFreezeConfirmationMail(email, status)
	return status, nil
}

func (svc *Service) CancelFreeze(ctx context.Context, token string) (FreezeStatus, error) {
	return svc.repo.CancelFreeze(ctx, token)
}

// Unfreeze lifts a freeze on another user's account. Callers must hold the
// admin role; the handler enforces that.
func (svc *Service) Unfreeze(ctx context.Context, token, userID string) (FreezeStatus, error) {
	return svc.repo.UnfreezeUser(ctx, token, userID)
}

func (svc *Service) EnrollmentStatus(ctx context.Context, token string) (EnrollmentStatus, error) {
	return svc.repo.GetEnrollmentStatus(ctx, token)
}

func (svc *Service) sendFreezeConfirmationMail(email string, status FreezeStatus) {
	if email == "" {
		return
	}
	body := fmt.Sprintf(
		"Your %s account freeze has been requested.\n\nReason: %s\nEnd date: %s\n\n"+
			"You can cancel the freeze from your account page at any time: %s/account",
		svc.appName, status.Reason.String, status.EndDate.Time.Format("02 Jan 2006"), svc.frontendURL,
	)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: email}},
		Subject: "Account freeze requested",
		BodyStr: body,
	})
}
