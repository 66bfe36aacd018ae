package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/account"
)

type accountApi struct {
	svc      *account.Service
	validate *validator.Validate
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *account.Service, validate *validator.Validate) {
	api := accountApi{svc: svc, validate: validate}

	g.GET("/enrollment", api.enrollmentStatus, jwt)

	ag := g.Group("/account", jwt)
	ag.GET("/freeze/status", api.freezeStatus)
	ag.POST("/freeze", api.requestFreeze)
	ag.POST("/freeze/cancel", api.cancelFreeze)
	ag.POST("/unfreeze", api.unfreeze, adminMiddleware())
}

func (api *accountApi) enrollmentStatus(ctx echo.Context) error {
	status, err := api.svc.EnrollmentStatus(ctx.Request().Context(), getRawToken(ctx))
	if err != nil {
		return errors.Wrap(err, "fetching enrollment status")
	}
	return respond(ctx, http.StatusOK, status)
}

func (api *accountApi) freezeStatus(ctx echo.Context) error {
	status, err := api.svc.FreezeStatus(ctx.Request().Context(), getRawToken(ctx))
	if err != nil {
		return errors.Wrap(err, "fetching freeze status")
	}
	return respond(ctx, http.StatusOK, status)
}

// requestFreeze validates entirely locally before anything goes upstream; a
// rejected request must not produce a single upstream call.
func (api *accountApi) requestFreeze(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data account.FreezeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FreezeRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	status, err := api.svc.RequestFreeze(ctx.Request().Context(), getRawToken(ctx), claims.Email, data)
	if err != nil {
		return errors.Wrap(err, "requesting freeze")
	}
	return respond(ctx, http.StatusOK, status)
}

func (api *accountApi) cancelFreeze(ctx echo.Context) error {
	status, err := api.svc.CancelFreeze(ctx.Request().Context(), getRawToken(ctx))
	if err != nil {
		return errors.Wrap(err, "cancelling freeze")
	}
	return respond(ctx, http.StatusOK, status)
}

type unfreezeRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (api *accountApi) unfreeze(ctx echo.Context) error {
	var data unfreezeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to unfreezeRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	status, err := api.svc.Unfreeze(ctx.Request().Context(), getRawToken(ctx), data.UserID)
	if err != nil {
		return errors.Wrap(err, "unfreezing user")
	}
	return respond(ctx, http.StatusOK, status)
}
