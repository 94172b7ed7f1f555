package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinex-booking/api"
	"github.com/metinatakli/cinex-booking/internal/domain"
	appvalidator "github.com/metinatakli/cinex-booking/internal/validator"
)

const ErrInternalServer = "The server encountered a problem and could not process your request"

var conflictErrors = []error{
	domain.ErrSeatUnavailable,
	domain.ErrScreeningClosed,
	domain.ErrPaymentFinalized,
	domain.ErrVoucherAlreadyUsed,
	domain.ErrVoucherInactive,
	domain.ErrVoucherNotStarted,
	domain.ErrVoucherExpired,
	domain.ErrVoucherExhausted,
	domain.ErrRefundAlreadyProcessed,
	domain.ErrRefundAmountExceeded,
	domain.ErrInvoiceNotPaid,
}

// fieldErrors are business rule failures reported like field validation,
// keyed by the request field they concern.
var fieldErrors = []struct {
	target error
	field  string
}{
	{domain.ErrVoucherMinimumNotMet, "voucherRedemptionIds"},
}

var badRequestErrors = []error{
	domain.ErrInvalidCheckout,
	domain.ErrMixedScreenings,
	domain.ErrMissingHolder,
	domain.ErrInvalidOutcome,
}

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "The requested resource not found"
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) editConflictResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		app.badRequestResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          "One or more fields are invalid",
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: make([]api.ValidationError, 0, len(validationErrs)),
	}

	for _, fieldErr := range validationErrs {
		resp.ValidationErrors = append(resp.ValidationErrors, api.ValidationError{
			Field: fieldErr.Field(),
			Issue: appvalidator.ValidationMessage(fieldErr),
		})
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) fieldErrorResponse(w http.ResponseWriter, r *http.Request, field string, err error) {
	resp := api.ValidationErrorResponse{
		Message:          "One or more fields are invalid",
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: []api.ValidationError{{Field: field, Issue: err.Error()}},
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// bookingErrorResponse maps booking failures onto their HTTP status. Conflict
// messages keep the wrapped seat or voucher detail.
func (app *Application) bookingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrRecordNotFound) {
		app.notFoundResponse(w, r)
		return
	}

	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			app.contextGetLogger(r).Warn("request rejected by booking rules", "error", err)
			app.editConflictResponseWithErr(w, r, err)
			return
		}
	}

	for _, fe := range fieldErrors {
		if errors.Is(err, fe.target) {
			app.fieldErrorResponse(w, r, fe.field, err)
			return
		}
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	app.serverErrorResponse(w, r, err)
}
