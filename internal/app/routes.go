package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(app.requestLogger)
	r.Use(app.recoverPanic)

	r.Get("/healthcheck", app.GetHealth)

	r.Post("/payments/callback", app.PaymentCallbackHandler)
	r.Post("/webhook/stripe", app.StripeWebhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(app.ensureGuestSession)

		r.Get("/screenings/{screeningId}/seats", app.GetSeatMapHandler)

		r.Route("/screening-seats/{screeningSeatId}/hold", func(r chi.Router) {
			r.Post("/", app.HoldSeatHandler)
			r.Delete("/", app.ReleaseSeatHoldHandler)
		})

		r.Post("/checkout/quote", app.QuoteCheckoutHandler)
		r.Post("/checkout", app.CheckoutHandler)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/refund-requests/{requestId}/decision", app.DecideRefundRequestHandler)
		r.Post("/screenings/reconcile", app.ReconcileScreeningsHandler)
	})

	return r
}
