package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/metinatakli/cinex-booking/internal/clock"
	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/metinatakli/cinex-booking/internal/mocks"
	"github.com/metinatakli/cinex-booking/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SeatServiceTestSuite struct {
	suite.Suite
	seatRepo  *mocks.MockSeatRepo
	params    *mocks.MockParameterRepo
	scheduler *mocks.MockHoldScheduler
	clock     *clock.Fake
	service   *SeatService
}

func (s *SeatServiceTestSuite) SetupTest() {
	s.seatRepo = new(mocks.MockSeatRepo)
	s.scheduler = new(mocks.MockHoldScheduler)
	s.params = &mocks.MockParameterRepo{
		GetFunc: func(ctx context.Context, name string) (string, error) {
			return "5", nil
		},
	}
	s.clock = clock.NewFake(testNow)
	s.service = NewSeatService(s.seatRepo, s.params, s.scheduler, s.clock, discardLogger())
}

func TestSeatServiceSuite(t *testing.T) {
	suite.Run(t, new(SeatServiceTestSuite))
}

func (s *SeatServiceTestSuite) TestTryHold() {
	tests := []struct {
		name       string
		holder     string
		param      func(ctx context.Context, name string) (string, error)
		setupMocks func()
		wantErr    error
		wantExpiry time.Time
	}{
		{
			name:   "should hold seat and schedule its release",
			holder: "session-a",
			setupMocks: func() {
				expiry := testNow.Add(5 * time.Minute)
				s.seatRepo.On("TryHold", mock.Anything, 7, "session-a", expiry, testNow).Return(nil).Once()
				s.scheduler.On("Schedule", mock.Anything, 7, expiry).Return(nil).Once()
			},
			wantExpiry: testNow.Add(5 * time.Minute),
		},
		{
			name:   "should use configured hold duration",
			holder: "session-a",
			param: func(ctx context.Context, name string) (string, error) {
				return "2", nil
			},
			setupMocks: func() {
				expiry := testNow.Add(2 * time.Minute)
				s.seatRepo.On("TryHold", mock.Anything, 7, "session-a", expiry, testNow).Return(nil).Once()
				s.scheduler.On("Schedule", mock.Anything, 7, expiry).Return(nil).Once()
			},
			wantExpiry: testNow.Add(2 * time.Minute),
		},
		{
			name:   "should fall back to default duration when parameter is invalid",
			holder: "session-a",
			param: func(ctx context.Context, name string) (string, error) {
				return "-1", nil
			},
			setupMocks: func() {
				expiry := testNow.Add(domain.DefaultSeatHoldDuration)
				s.seatRepo.On("TryHold", mock.Anything, 7, "session-a", expiry, testNow).Return(nil).Once()
				s.scheduler.On("Schedule", mock.Anything, 7, expiry).Return(nil).Once()
			},
			wantExpiry: testNow.Add(domain.DefaultSeatHoldDuration),
		},
		{
			name:   "should fall back to default duration when parameter cannot be read",
			holder: "session-a",
			param: func(ctx context.Context, name string) (string, error) {
				return "", errors.New("connection reset")
			},
			setupMocks: func() {
				expiry := testNow.Add(domain.DefaultSeatHoldDuration)
				s.seatRepo.On("TryHold", mock.Anything, 7, "session-a", expiry, testNow).Return(nil).Once()
				s.scheduler.On("Schedule", mock.Anything, 7, expiry).Return(nil).Once()
			},
			wantExpiry: testNow.Add(domain.DefaultSeatHoldDuration),
		},
		{
			name:   "should keep the hold when scheduling the release fails",
			holder: "session-a",
			setupMocks: func() {
				expiry := testNow.Add(5 * time.Minute)
				s.seatRepo.On("TryHold", mock.Anything, 7, "session-a", expiry, testNow).Return(nil).Once()
				s.scheduler.On("Schedule", mock.Anything, 7, expiry).Return(errors.New("redis down")).Once()
			},
			wantExpiry: testNow.Add(5 * time.Minute),
		},
		{
			name:   "should fail when seat is taken",
			holder: "session-b",
			setupMocks: func() {
				s.seatRepo.On("TryHold", mock.Anything, 7, "session-b", mock.Anything, testNow).
					Return(domain.ErrSeatUnavailable).Once()
			},
			wantErr: domain.ErrSeatUnavailable,
		},
		{
			name:   "should fail when screening is closed",
			holder: "session-b",
			setupMocks: func() {
				s.seatRepo.On("TryHold", mock.Anything, 7, "session-b", mock.Anything, testNow).
					Return(domain.ErrScreeningClosed).Once()
			},
			wantErr: domain.ErrScreeningClosed,
		},
		{
			name:       "should fail without a holder",
			holder:     "",
			setupMocks: func() {},
			wantErr:    domain.ErrMissingHolder,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			if tt.param != nil {
				s.params.GetFunc = tt.param
			}
			tt.setupMocks()

			hold, err := s.service.TryHold(context.Background(), 7, tt.holder)

			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
				s.Nil(hold)
				s.scheduler.AssertNotCalled(s.T(), "Schedule", mock.Anything, mock.Anything, mock.Anything)
				return
			}

			s.Require().NoError(err)
			s.Equal(tt.wantExpiry, hold.ExpiresAt)
			s.Equal(tt.holder, hold.Holder)
			s.seatRepo.AssertExpectations(s.T())
			s.scheduler.AssertExpectations(s.T())
		})
	}
}

func (s *SeatServiceTestSuite) TestProcessDueReleases() {
	s.scheduler.On("PopDue", mock.Anything, testNow).Return([]int{1, 2, 3}, nil).Once()

	s.seatRepo.On("ReleaseIfStillHeld", mock.Anything, 1, testNow).Return(true, nil).Once()
	s.seatRepo.On("ReleaseIfStillHeld", mock.Anything, 2, testNow).Return(false, nil).Once()
	s.seatRepo.On("ReleaseIfStillHeld", mock.Anything, 3, testNow).Return(false, errors.New("timeout")).Once()
	s.scheduler.On("Schedule", mock.Anything, 3, testNow.Add(releaseRetryDelay)).Return(nil).Once()

	released, err := s.service.ProcessDueReleases(context.Background())

	s.Require().NoError(err)
	s.Equal(1, released)
	s.seatRepo.AssertExpectations(s.T())
	s.scheduler.AssertExpectations(s.T())
}

func (s *SeatServiceTestSuite) TestProcessDueReleases_SchedulerError() {
	s.scheduler.On("PopDue", mock.Anything, testNow).Return(nil, errors.New("redis down")).Once()

	released, err := s.service.ProcessDueReleases(context.Background())

	s.Error(err)
	s.Zero(released)
	s.seatRepo.AssertNotCalled(s.T(), "ReleaseIfStillHeld", mock.Anything, mock.Anything, mock.Anything)
}

func (s *SeatServiceTestSuite) TestSweepExpiredHolds() {
	s.seatRepo.On("ReleaseExpiredHolds", mock.Anything, testNow).Return([]int{4, 5}, nil).Once()
	s.scheduler.On("Cancel", mock.Anything, []int{4, 5}).Return(nil).Once()

	released, err := s.service.SweepExpiredHolds(context.Background())

	s.Require().NoError(err)
	s.Equal(2, released)
	s.scheduler.AssertExpectations(s.T())
}

func (s *SeatServiceTestSuite) TestReleaseHold() {
	s.Run("should release own hold and cancel its timer", func() {
		s.SetupTest()
		s.seatRepo.On("ReleaseHold", mock.Anything, 7, "session-a").Return(nil).Once()
		s.scheduler.On("Cancel", mock.Anything, []int{7}).Return(nil).Once()

		err := s.service.ReleaseHold(context.Background(), 7, "session-a")

		s.NoError(err)
		s.scheduler.AssertExpectations(s.T())
	})

	s.Run("should fail when the caller holds nothing", func() {
		s.SetupTest()
		s.seatRepo.On("ReleaseHold", mock.Anything, 7, "session-b").Return(domain.ErrRecordNotFound).Once()

		err := s.service.ReleaseHold(context.Background(), 7, "session-b")

		s.ErrorIs(err, domain.ErrRecordNotFound)
		s.scheduler.AssertNotCalled(s.T(), "Cancel", mock.Anything, mock.Anything)
	})
}

func newHoldFixture(ids ...int) (*SeatService, *memorySeatRepo, *scheduler.MemoryHoldScheduler, *clock.Fake) {
	repo := newMemorySeatRepo(ids...)
	sched := scheduler.NewMemoryHoldScheduler()
	clk := clock.NewFake(testNow)
	params := &mocks.MockParameterRepo{
		GetFunc: func(ctx context.Context, name string) (string, error) {
			return "5", nil
		},
	}

	return NewSeatService(repo, params, sched, clk, discardLogger()), repo, sched, clk
}

func TestTryHold_ConcurrentCallersOnlyOneWins(t *testing.T) {
	service, repo, _, _ := newHoldFixture(1)

	const callers = 64

	var (
		wg        sync.WaitGroup
		wins      atomic.Int32
		conflicts atomic.Int32
		start     = make(chan struct{})
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()
			<-start

			_, err := service.TryHold(context.Background(), 1, fmt.Sprintf("session-%d", n))
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domain.ErrSeatUnavailable):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(callers-1), conflicts.Load())
	assert.Equal(t, domain.SeatStatusHeld, repo.status(1))
}

func TestHoldExpiresAndSeatBecomesAvailable(t *testing.T) {
	ctx := context.Background()
	service, repo, _, clk := newHoldFixture(1)

	_, err := service.TryHold(ctx, 1, "session-a")
	require.NoError(t, err)

	clk.Advance(4 * time.Minute)
	released, err := service.ProcessDueReleases(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.Equal(t, domain.SeatStatusHeld, repo.status(1))

	clk.Advance(time.Minute + time.Second)
	released, err = service.ProcessDueReleases(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.Equal(t, domain.SeatStatusAvailable, repo.status(1))

	_, err = service.TryHold(ctx, 1, "session-b")
	require.NoError(t, err)
	assert.Equal(t, "session-b", repo.holder(1))
}

func TestStaleReleaseDoesNotCutShortANewHold(t *testing.T) {
	ctx := context.Background()
	service, repo, sched, clk := newHoldFixture(1)

	_, err := service.TryHold(ctx, 1, "session-a")
	require.NoError(t, err)

	// The first hold lapses but its release has not run yet, so a second
	// buyer can take the seat straight away.
	clk.Advance(6 * time.Minute)
	_, err = service.TryHold(ctx, 1, "session-b")
	require.NoError(t, err)

	// A release left over from the first hold fires now.
	require.NoError(t, sched.Schedule(ctx, 1, clk.Now()))

	released, err := service.ProcessDueReleases(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)
	assert.Equal(t, domain.SeatStatusHeld, repo.status(1))
	assert.Equal(t, "session-b", repo.holder(1))
}
