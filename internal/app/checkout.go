package app

import (
	"net/http"

	"github.com/metinatakli/cinex-booking/api"
	"github.com/metinatakli/cinex-booking/internal/booking"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

func (app *Application) readCheckoutRequest(w http.ResponseWriter, r *http.Request) (*booking.CheckoutRequest, bool) {
	var input api.CheckoutRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return nil, false
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return nil, false
	}

	req := &booking.CheckoutRequest{
		BuyerEmail:           string(input.BuyerEmail),
		Holder:               app.contextGetHolder(r),
		ScreeningSeatIDs:     input.ScreeningSeatIds,
		VoucherRedemptionIDs: input.VoucherRedemptionIds,
	}

	for _, c := range input.Combos {
		req.Combos = append(req.Combos, booking.ComboSelection{ComboID: c.ComboId, Quantity: c.Quantity})
	}

	return req, true
}

func (app *Application) QuoteCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := app.readCheckoutRequest(w, r)
	if !ok {
		return
	}

	quote, err := app.checkout.Quote(r.Context(), *req)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toQuoteResponse(quote), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	req, ok := app.readCheckoutRequest(w, r)
	if !ok {
		return
	}

	result, err := app.checkout.CreateInvoice(r.Context(), *req)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	logger.Info("invoice created",
		"invoice_id", result.Invoice.ID,
		"transaction_id", result.Invoice.TransactionID,
		"seat_count", len(result.Invoice.Tickets))

	resp := api.CheckoutResponse{
		InvoiceId:     result.Invoice.ID,
		InvoiceCode:   result.Invoice.Code,
		TransactionId: result.Invoice.TransactionID,
		Status:        string(result.Status),
		TotalAmount:   result.Invoice.TotalAmount,
		RedirectUrl:   result.RedirectURL,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toQuoteResponse(quote *domain.Quote) api.QuoteResponse {
	resp := api.QuoteResponse{
		TicketSubtotal:  quote.TicketSubtotal,
		ComboSubtotal:   quote.ComboSubtotal,
		DiscountTotal:   quote.DiscountTotal,
		Total:           quote.Total,
		AppliedVouchers: make([]api.AppliedVoucher, len(quote.Applied)),
	}

	for i, v := range quote.Applied {
		resp.AppliedVouchers[i] = api.AppliedVoucher{
			RedemptionId: v.RedemptionID,
			Code:         v.Code,
			Target:       string(v.Target),
			Discount:     v.Discount,
		}
	}

	return resp
}
