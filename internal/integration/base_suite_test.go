package integration_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metinatakli/cinex-booking/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	dbName         = "cinex_booking"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
)

const (
	buyerEmail = "buyer@example.com"
	otherEmail = "other@example.com"
)

type BaseSuite struct {
	suite.Suite
	app            *TestApp
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer
	startedAt      time.Time
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	s.Require().NoError(err, "failed to start postgres container")
	s.dbContainer = postgresContainer

	redisContainer, err := getCacheContainer(ctx)
	s.Require().NoError(err, "failed to start redis container")
	s.cacheContainer = redisContainer

	var cfg app.Config
	cfg.Port = 3000
	cfg.Env = "test"
	cfg.DB.Dsn = postgresContainer.ConnectionString
	cfg.DB.MaxOpenConns = 25
	cfg.DB.MaxIdleTime = 2 * time.Minute
	cfg.Redis.Url = redisContainer.ConnectionString
	cfg.Redis.MaxOpenConns = 10
	cfg.Redis.MaxIdleConns = 10
	cfg.Redis.MaxIdleTime = 2 * time.Minute

	s.startedAt = time.Now().UTC().Truncate(time.Second)

	testApp, err := newTestApp(cfg, s.startedAt)
	s.Require().NoError(err, "cannot initialize app")

	s.app = testApp
}

func (s *BaseSuite) SetupTest() {
	s.app.Clock.Set(s.startedAt)
	s.app.Publisher.Reset()
	s.app.Mailer.Reset()
	s.app.Provider.Err = nil

	require.NoError(s.T(), s.app.Redis.FlushDB(context.Background()).Err())
	seedFixtures(s.T(), s.app, s.startedAt)
}

func (s *BaseSuite) TearDownSuite() {
	if s.app != nil {
		s.app.Close()
	}

	if s.dbContainer != nil {
		if err := testcontainers.TerminateContainer(s.dbContainer.Container.Container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}

	if s.cacheContainer != nil {
		if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
}

type Scenario struct {
	Name             string
	Method           string
	URL              string
	Body             io.Reader
	Headers          map[string]string
	Cookies          []*http.Cookie
	ExpectedStatus   int
	ExpectedResponse string
	BeforeTestFunc   func(t testing.TB, app *TestApp)
	AfterTestFunc    func(t testing.TB, app *TestApp, res *http.Response)
}

func (s Scenario) Run(t *testing.T, testApp *TestApp) {
	t.Run(s.Name, func(t *testing.T) {
		req := prepareRequest(s.Method, s.URL, s.Body, s.Headers, s.Cookies)

		if s.BeforeTestFunc != nil {
			s.BeforeTestFunc(t, testApp)
		}

		rec := httptest.NewRecorder()
		testApp.App.Routes().ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Equal(t, s.ExpectedStatus, res.StatusCode)

		if s.ExpectedResponse != "" {
			compareResponse(t, res.Body, s.ExpectedResponse)
		}

		if s.AfterTestFunc != nil {
			s.AfterTestFunc(t, testApp, res)
		}
	})
}
