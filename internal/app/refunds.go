package app

import (
	"net/http"

	"github.com/metinatakli/cinex-booking/api"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

func (app *Application) DecideRefundRequestHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	requestID, err := app.readIDParam(r, "requestId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.RefundDecisionRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	var req *domain.RefundRequest

	switch input.Decision {
	case api.RefundDecisionApprove:
		req, err = app.refunds.Approve(r.Context(), requestID)
	default:
		req, err = app.refunds.Reject(r.Context(), requestID, input.Note)
	}

	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	logger.Info("refund request decided", "refund_request_id", req.ID, "status", req.Status)

	resp := api.RefundRequestResponse{
		Id:          req.ID,
		InvoiceId:   req.InvoiceID,
		Amount:      req.Amount,
		Status:      string(req.Status),
		Note:        req.Note,
		ProcessedAt: req.ProcessedAt,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
