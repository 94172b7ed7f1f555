package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const truncateAll = `
	TRUNCATE
		payout_instructions,
		refund_requests,
		payment_transactions,
		combo_line_items,
		tickets,
		voucher_redemptions,
		invoices,
		vouchers,
		combos,
		screening_seats,
		seat_type_assignments,
		seats,
		seat_types,
		screenings,
		rooms
	RESTART IDENTITY CASCADE
`

// seedFixtures resets the database to one room with four seats and four
// screenings at different points of their timetable relative to now:
//
//	1: starts in 3h, on sale, screening seats 1-4 (seat 4 is VIP)
//	2: starts in 20m, still NOT_YET_SHOWING
//	3: started 1h ago, still STARTING_SOON
//	4: ended 1h ago, still SHOWING, screening seat 5
//
// Combo 1 costs 60000 and redemption 1 of voucher TICKET10 (10% off
// tickets, 5 uses left) belongs to buyerEmail.
func seedFixtures(t testing.TB, app *TestApp, now time.Time) {
	ctx := context.Background()

	_, err := app.DB.Exec(ctx, truncateAll)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `INSERT INTO rooms (id, name) VALUES (1, 'Room 1')`)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO screenings (id, room_id, movie_title, start_time, end_time, base_price, status)
		VALUES
			(1, 1, 'Dune: Part Two', $1, $2, 90000, 'NOT_YET_SHOWING'),
			(2, 1, 'Past Lives', $3, $4, 80000, 'NOT_YET_SHOWING'),
			(3, 1, 'Oppenheimer', $5, $6, 90000, 'STARTING_SOON'),
			(4, 1, 'Perfect Days', $7, $8, 80000, 'SHOWING')
	`,
		now.Add(3*time.Hour), now.Add(5*time.Hour),
		now.Add(20*time.Minute), now.Add(2*time.Hour+20*time.Minute),
		now.Add(-time.Hour), now.Add(time.Hour),
		now.Add(-3*time.Hour), now.Add(-time.Hour),
	)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO seat_types (id, name, extra_price)
		VALUES (1, 'STANDARD', 0), (2, 'VIP', 30000)
	`)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO seats (id, room_id, seat_row, seat_col)
		VALUES (1, 1, 1, 1), (2, 1, 1, 2), (3, 1, 1, 3), (4, 1, 1, 4)
	`)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO seat_type_assignments (seat_id, seat_type_id)
		VALUES (1, 1), (2, 1), (3, 1), (4, 2)
	`)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO screening_seats (id, screening_id, seat_id)
		VALUES (1, 1, 1), (2, 1, 2), (3, 1, 3), (4, 1, 4), (5, 4, 1)
	`)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `INSERT INTO combos (id, name, price) VALUES (1, 'Popcorn + Coke', 60000)`)
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO vouchers (id, code, discount_type, target, value, valid_from, valid_until, remaining_uses)
		VALUES (1, 'TICKET10', 'PERCENTAGE', 'TICKETS', 10, $1, $2, 5)
	`, now.Add(-24*time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)

	_, err = app.DB.Exec(ctx, `
		INSERT INTO voucher_redemptions (id, voucher_id, owner_email)
		VALUES (1, 1, $1)
	`, buyerEmail)
	require.NoError(t, err)
}

// insertRefundRequest files a pending refund for the invoice and returns
// its id.
func insertRefundRequest(t testing.TB, app *TestApp, invoiceID int, amount decimal.Decimal) int {
	var id int

	err := app.DB.QueryRow(context.Background(), `
		INSERT INTO refund_requests (
			invoice_id,
			requester_email,
			reason,
			bank_name,
			bank_account_number,
			account_holder,
			amount
		)
		VALUES ($1, $2, 'cannot attend', 'Vietcombank', '0123456789', 'NGUYEN VAN A', $3)
		RETURNING id
	`, invoiceID, buyerEmail, amount).Scan(&id)
	require.NoError(t, err)

	return id
}
