package booking

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/metinatakli/cinex-booking/internal/booking"

type metrics struct {
	holdsGranted       metric.Int64Counter
	holdsRejected      metric.Int64Counter
	holdsReleased      metric.Int64Counter
	invoicesCreated    metric.Int64Counter
	paymentsSettled    metric.Int64Counter
	screeningsAdvanced metric.Int64Counter
	refundsDecided     metric.Int64Counter
	payoutsDispatched  metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(instrumentationName)

	return &metrics{
		holdsGranted:       counter(meter, "booking.holds.granted", "Seat holds granted"),
		holdsRejected:      counter(meter, "booking.holds.rejected", "Seat hold attempts that lost the seat"),
		holdsReleased:      counter(meter, "booking.holds.released", "Expired seat holds returned to availability"),
		invoicesCreated:    counter(meter, "booking.invoices.created", "Invoices created at checkout"),
		paymentsSettled:    counter(meter, "booking.payments.settled", "Payment transactions settled by outcome"),
		screeningsAdvanced: counter(meter, "booking.screenings.advanced", "Screening status transitions applied"),
		refundsDecided:     counter(meter, "booking.refunds.decided", "Refund requests approved or rejected"),
		payoutsDispatched:  counter(meter, "booking.payouts.dispatched", "Payout instructions handed to the payout topic"),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}

	return c
}
