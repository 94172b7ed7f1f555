package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinex-booking/internal/booking"
	"github.com/metinatakli/cinex-booking/internal/clock"
	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/metinatakli/cinex-booking/internal/events"
	"github.com/metinatakli/cinex-booking/internal/mailer"
	"github.com/metinatakli/cinex-booking/internal/payment"
	"github.com/metinatakli/cinex-booking/internal/repository"
	"github.com/metinatakli/cinex-booking/internal/scheduler"
	appvalidator "github.com/metinatakli/cinex-booking/internal/validator"
	"github.com/metinatakli/cinex-booking/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const serviceName = "cinex-booking"

var (
	version = vcs.Version()
)

type seatService interface {
	TryHold(ctx context.Context, screeningSeatID int, holder string) (*domain.SeatHold, error)
	ReleaseHold(ctx context.Context, screeningSeatID int, holder string) error
	SeatMap(ctx context.Context, screeningID int) (*domain.SeatMap, error)
	ProcessDueReleases(ctx context.Context) (int, error)
	SweepExpiredHolds(ctx context.Context) (int, error)
	HoldDuration(ctx context.Context) time.Duration
	Now() time.Time
}

type checkoutService interface {
	Quote(ctx context.Context, req booking.CheckoutRequest) (*domain.Quote, error)
	CreateInvoice(ctx context.Context, req booking.CheckoutRequest) (*booking.CheckoutResult, error)
	FinalizePayment(ctx context.Context, transactionID int, outcome domain.PaymentStatus, reason string) error
}

type showtimeLifecycle interface {
	Reconcile(ctx context.Context) (booking.ReconcileResult, error)
}

type refundWorkflow interface {
	Approve(ctx context.Context, id int) (*domain.RefundRequest, error)
	Reject(ctx context.Context, id int, note string) (*domain.RefundRequest, error)
	DispatchPayouts(ctx context.Context) (int, error)
	Wait()
}

type Application struct {
	config         Config
	logger         *slog.Logger
	validator      *validator.Validate
	sessionManager *scs.SessionManager

	seats     seatService
	checkout  checkoutService
	showtimes showtimeLifecycle
	refunds   refundWorkflow

	workers sync.WaitGroup
}

type Config struct {
	Port int
	Env  string
	DB   struct {
		Dsn          string
		MaxOpenConns int
		MaxIdleTime  time.Duration
	}
	Redis struct {
		Url          string
		MaxOpenConns int
		MaxIdleConns int
		MaxIdleTime  time.Duration
	}
	Smtp struct {
		Host     string
		Port     int
		Username string
		Password string
		Sender   string
	}
	Stripe struct {
		SecretKey     string
		WebhookSecret string
		SuccessUrl    string
		FailureUrl    string
		Currency      string
	}
	Kafka struct {
		Brokers      string
		PayoutTopic  string
		InvoiceTopic string
	}
	Workers struct {
		HoldPollInterval          time.Duration
		HoldSweepInterval         time.Duration
		ShowtimeReconcileInterval time.Duration
		PayoutDispatchInterval    time.Duration
	}
	HoldScheduler    string
	OtelCollectorUrl string
}

func parseConfig() Config {
	var cfg Config

	flag.IntVar(&cfg.Port, "port", 3000, "server port")
	flag.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.DB.Dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.Redis.Url, "redis-url", os.Getenv("REDIS_URL"), "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.Smtp.Host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.Smtp.Port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.Smtp.Username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.Smtp.Password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.Smtp.Sender, "smtp-sender", "CineX <no-reply@cinex.metinatakli.net>", "SMTP sender")

	flag.StringVar(&cfg.Stripe.SecretKey, "stripe-key", os.Getenv("STRIPE_SECRET_KEY"), "Stripe secret key")
	flag.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", os.Getenv("STRIPE_WEBHOOK_SECRET"), "Stripe webhook secret")
	flag.StringVar(&cfg.Stripe.SuccessUrl, "stripe-success-url", "https://example.com/success.html", "Stripe payment success page")
	flag.StringVar(&cfg.Stripe.FailureUrl, "stripe-failure-url", "https://example.com/failure.html", "Stripe payment failure page")
	flag.StringVar(&cfg.Stripe.Currency, "stripe-currency", "vnd", "Stripe checkout currency")

	flag.StringVar(&cfg.Kafka.Brokers, "kafka-brokers", "localhost:9092", "Comma separated Kafka brokers")
	flag.StringVar(&cfg.Kafka.PayoutTopic, "kafka-payout-topic", events.DefaultPayoutTopic, "Kafka topic for refund payouts")
	flag.StringVar(&cfg.Kafka.InvoiceTopic, "kafka-invoice-topic", events.DefaultInvoiceTopic, "Kafka topic for invoice events")

	flag.DurationVar(&cfg.Workers.HoldPollInterval, "hold-poll-interval", time.Second, "Interval between hold release polls")
	flag.DurationVar(&cfg.Workers.HoldSweepInterval, "hold-sweep-interval", time.Minute, "Interval between expired hold sweeps")
	flag.DurationVar(&cfg.Workers.ShowtimeReconcileInterval, "showtime-reconcile-interval", time.Minute, "Interval between showtime status passes")
	flag.DurationVar(&cfg.Workers.PayoutDispatchInterval, "payout-dispatch-interval", 30*time.Second, "Interval between payout dispatch passes")

	flag.StringVar(&cfg.HoldScheduler, "hold-scheduler", "redis", "Hold release scheduler (redis|memory)")
	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", os.Getenv("OTEL_COLLECTOR_URL"), "OpenTelemetry collector gRPC endpoint")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	return cfg
}

func Run() error {
	cfg := parseConfig()

	app := &Application{
		config: cfg,
		logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		app.logger = slog.New(NewMultiHandler(
			slog.NewTextHandler(os.Stdout, nil),
			otelslog.NewHandler(serviceName),
		))
	}

	stripe.Key = cfg.Stripe.SecretKey

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	brokers := strings.Split(cfg.Kafka.Brokers, ",")

	ensureCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = events.EnsureTopics(ensureCtx, brokers, cfg.Kafka.PayoutTopic, cfg.Kafka.InvoiceTopic)
	cancel()
	if err != nil {
		app.logger.Warn("kafka topics could not be ensured", "error", err)
	}

	publisher := events.NewKafkaPublisher(brokers, cfg.Kafka.PayoutTopic, cfg.Kafka.InvoiceTopic)
	defer publisher.Close()

	var holdScheduler domain.HoldScheduler
	switch cfg.HoldScheduler {
	case "memory":
		holdScheduler = scheduler.NewMemoryHoldScheduler()
	default:
		holdScheduler = scheduler.NewRedisHoldScheduler(redisClient)
	}

	clk := clock.Real{}

	seatRepo := repository.NewPostgresSeatRepository(db)
	paymentRepo := repository.NewPostgresPaymentRepository(db)

	app = NewApp(
		cfg,
		app.logger,
		NewSessionManager(redisClient),
		booking.NewSeatService(
			seatRepo,
			repository.NewPostgresParameterRepository(db),
			holdScheduler,
			clk,
			app.logger),
		booking.NewCheckoutService(
			seatRepo,
			repository.NewPostgresComboRepository(db),
			repository.NewPostgresVoucherRepository(db),
			repository.NewPostgresInvoiceRepository(db),
			paymentRepo,
			payment.NewStripePaymentProvider(cfg.Stripe.FailureUrl, cfg.Stripe.SuccessUrl, cfg.Stripe.Currency),
			holdScheduler,
			publisher,
			clk,
			app.logger),
		booking.NewShowtimeLifecycle(repository.NewPostgresScreeningRepository(db), clk, app.logger),
		booking.NewRefundWorkflow(
			repository.NewPostgresRefundRepository(db),
			publisher,
			mailer.NewSMTPMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.Sender),
			clk,
			app.logger),
	)

	return app.run()
}

// NewApp wires the booking services into the HTTP application.
func NewApp(
	cfg Config,
	logger *slog.Logger,
	sessionManager *scs.SessionManager,
	seats seatService,
	checkout checkoutService,
	showtimes showtimeLifecycle,
	refunds refundWorkflow) *Application {

	return &Application{
		config:         cfg,
		logger:         logger,
		validator:      appvalidator.NewValidator(),
		sessionManager: sessionManager,
		seats:          seats,
		checkout:       checkout,
		showtimes:      showtimes,
		refunds:        refunds,
	}
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.Url,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return nil, err
	}

	if err := redisotel.InstrumentMetrics(rdb); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.Dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	app.startWorkers(workerCtx)

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		stopWorkers()
		app.workers.Wait()
		app.refunds.Wait()

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
