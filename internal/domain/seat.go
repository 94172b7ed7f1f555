package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusHeld      SeatStatus = "HELD"
	SeatStatusBooked    SeatStatus = "BOOKED"
)

// ScreeningSeat is a physical seat's state within one screening, together
// with what is needed to price it.
type ScreeningSeat struct {
	ID              int
	ScreeningID     int
	SeatID          int
	Row             int
	Col             int
	Type            string
	ExtraPrice      decimal.Decimal
	BasePrice       decimal.Decimal
	Status          SeatStatus
	HeldBy          *string
	HoldExpiresAt   *time.Time
	ScreeningStatus ScreeningStatus
}

func (s ScreeningSeat) Price() decimal.Decimal {
	return s.BasePrice.Add(s.ExtraPrice)
}

func (s ScreeningSeat) holdExpired(now time.Time) bool {
	return s.HoldExpiresAt != nil && !s.HoldExpiresAt.After(now)
}

// AvailableAt reports whether anyone could take the seat right now. A hold
// whose deadline has passed counts as available even before the release
// has been applied.
func (s ScreeningSeat) AvailableAt(now time.Time) bool {
	switch s.Status {
	case SeatStatusAvailable:
		return true
	case SeatStatusHeld:
		return s.holdExpired(now)
	default:
		return false
	}
}

// ClaimableBy reports whether holder may turn this seat into a booking.
func (s ScreeningSeat) ClaimableBy(holder string, now time.Time) bool {
	if s.AvailableAt(now) {
		return true
	}

	return s.Status == SeatStatusHeld && s.HeldBy != nil && *s.HeldBy == holder
}

type SeatHold struct {
	ScreeningSeatID int
	Holder          string
	ExpiresAt       time.Time
}

type SeatMap struct {
	ScreeningID int
	MovieTitle  string
	RoomName    string
	StartTime   time.Time
	Status      ScreeningStatus
	Seats       []ScreeningSeat
}

type SeatRepository interface {
	// TryHold moves an AVAILABLE (or expired HELD) seat to HELD for holder.
	// It returns ErrSeatUnavailable when another caller owns the seat,
	// ErrScreeningClosed when the screening is past sale and
	// ErrRecordNotFound when the seat does not exist.
	TryHold(ctx context.Context, id int, holder string, expiresAt, now time.Time) error
	ReleaseIfStillHeld(ctx context.Context, id int, now time.Time) (bool, error)
	ReleaseHold(ctx context.Context, id int, holder string) error
	ReleaseExpiredHolds(ctx context.Context, now time.Time) ([]int, error)
	GetByIDs(ctx context.Context, ids []int) ([]ScreeningSeat, error)
	GetSeatMap(ctx context.Context, screeningID int) (*SeatMap, error)
}
