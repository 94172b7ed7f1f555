package integration_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/app"
	"github.com/metinatakli/cinex-booking/internal/booking"
	"github.com/metinatakli/cinex-booking/internal/clock"
	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/metinatakli/cinex-booking/internal/mailer"
	"github.com/metinatakli/cinex-booking/internal/payment"
	"github.com/metinatakli/cinex-booking/internal/repository"
	"github.com/metinatakli/cinex-booking/internal/scheduler"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App       *app.Application
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Clock     *clock.Fake
	Seats     *booking.SeatService
	Checkout  *booking.CheckoutService
	Showtimes *booking.ShowtimeLifecycle
	Refunds   *booking.RefundWorkflow
	Provider  *payment.MockPaymentProvider
	Publisher *recordingPublisher
	Mailer    *mailer.MockMailer
}

func newTestApp(cfg app.Config, now time.Time) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	clk := clock.NewFake(now)
	holds := scheduler.NewRedisHoldScheduler(redisClient)
	provider := payment.NewMockPaymentProvider()
	publisher := &recordingPublisher{}
	mockMailer := mailer.NewMockMailer()

	seatRepo := repository.NewPostgresSeatRepository(db)

	seats := booking.NewSeatService(
		seatRepo,
		repository.NewPostgresParameterRepository(db),
		holds,
		clk,
		logger)

	checkout := booking.NewCheckoutService(
		seatRepo,
		repository.NewPostgresComboRepository(db),
		repository.NewPostgresVoucherRepository(db),
		repository.NewPostgresInvoiceRepository(db),
		repository.NewPostgresPaymentRepository(db),
		provider,
		holds,
		publisher,
		clk,
		logger)

	showtimes := booking.NewShowtimeLifecycle(repository.NewPostgresScreeningRepository(db), clk, logger)

	refunds := booking.NewRefundWorkflow(
		repository.NewPostgresRefundRepository(db),
		publisher,
		mockMailer,
		clk,
		logger)

	application := app.NewApp(
		cfg,
		logger,
		app.NewSessionManager(redisClient),
		seats,
		checkout,
		showtimes,
		refunds,
	)

	return &TestApp{
		App:       application,
		DB:        db,
		Redis:     redisClient,
		Clock:     clk,
		Seats:     seats,
		Checkout:  checkout,
		Showtimes: showtimes,
		Refunds:   refunds,
		Provider:  provider,
		Publisher: publisher,
		Mailer:    mockMailer,
	}, nil
}

func (t *TestApp) Close() {
	t.Refunds.Wait()
	t.Redis.Close()
	t.DB.Close()
}

// recordingPublisher stands in for the Kafka publisher and keeps everything
// it was handed.
type recordingPublisher struct {
	mu      sync.Mutex
	events  []domain.InvoiceEvent
	payouts []domain.PayoutInstruction
}

func (p *recordingPublisher) PublishInvoiceEvent(ctx context.Context, event domain.InvoiceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) PublishPayout(ctx context.Context, payout domain.PayoutInstruction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.payouts = append(p.payouts, payout)
	return nil
}

func (p *recordingPublisher) Events() []domain.InvoiceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]domain.InvoiceEvent(nil), p.events...)
}

func (p *recordingPublisher) Payouts() []domain.PayoutInstruction {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]domain.PayoutInstruction(nil), p.payouts...)
}

func (p *recordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = nil
	p.payouts = nil
}
