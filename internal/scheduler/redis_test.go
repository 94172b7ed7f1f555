package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisHoldScheduler_Schedule(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisHoldScheduler(db)

	at := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	mock.ExpectZAdd(DefaultKey, redis.Z{Score: float64(at.UnixMilli()), Member: "42"}).SetVal(1)

	err := s.Schedule(context.Background(), 42, at)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHoldScheduler_Cancel(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisHoldScheduler(db)

	mock.ExpectZRem(DefaultKey, "1", "2").SetVal(2)

	err := s.Cancel(context.Background(), 1, 2)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHoldScheduler_CancelNothing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisHoldScheduler(db)

	err := s.Cancel(context.Background())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHoldScheduler_PopDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)

	tests := []struct {
		name    string
		setup   func(mock redismock.ClientMock)
		want    []int
		wantErr bool
	}{
		{
			name: "should return due seat ids",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectEvalSha(popDueScript.Hash(), []string{DefaultKey}, now.UnixMilli(), DefaultBatchSize).
					SetVal([]any{"7", "9"})
			},
			want: []int{7, 9},
		},
		{
			name: "should return nothing when no release is due",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectEvalSha(popDueScript.Hash(), []string{DefaultKey}, now.UnixMilli(), DefaultBatchSize).
					SetVal([]any{})
			},
			want: []int{},
		},
		{
			name: "should surface redis errors",
			setup: func(mock redismock.ClientMock) {
				mock.ExpectEvalSha(popDueScript.Hash(), []string{DefaultKey}, now.UnixMilli(), DefaultBatchSize).
					SetErr(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			s := NewRedisHoldScheduler(db)

			tt.setup(mock)

			got, err := s.PopDue(context.Background(), now)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
