package app

import (
	"net/http"

	"github.com/metinatakli/cinex-booking/api"
	"github.com/metinatakli/cinex-booking/internal/domain"
)

func (app *Application) GetSeatMapHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	screeningID, err := app.readIDParam(r, "screeningId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seatMap, err := app.seats.SeatMap(r.Context(), screeningID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if len(seatMap.Seats) == 0 {
		logger.Warn("seat map not found for screening", "screening_id", screeningID)
		app.notFoundResponse(w, r)
		return
	}

	resp := toSeatMapResponse(seatMap, app.seats)

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatMapResponse(seatMap *domain.SeatMap, seats seatService) api.SeatMapResponse {
	return api.SeatMapResponse{
		ScreeningId: seatMap.ScreeningID,
		MovieTitle:  seatMap.MovieTitle,
		RoomName:    seatMap.RoomName,
		StartTime:   seatMap.StartTime.UTC(),
		Status:      string(seatMap.Status),
		SeatRows:    toSeatRows(seatMap.Seats, seats),
	}
}

func toSeatRows(screeningSeats []domain.ScreeningSeat, seats seatService) []api.SeatRow {
	// Seats are pre-sorted by Row,Column (ascending).
	now := seats.Now()

	var seatRows []api.SeatRow
	currentRow := api.SeatRow{Row: screeningSeats[0].Row}

	for _, v := range screeningSeats {
		if v.Row != currentRow.Row {
			seatRows = append(seatRows, currentRow)
			currentRow = api.SeatRow{Row: v.Row}
		}

		currentRow.Seats = append(currentRow.Seats, api.Seat{
			Id:        v.ID,
			Row:       v.Row,
			Column:    v.Col,
			Type:      api.SeatType(v.Type),
			Price:     v.Price(),
			Available: v.AvailableAt(now),
		})
	}

	seatRows = append(seatRows, currentRow)

	return seatRows
}

func (app *Application) HoldSeatHandler(w http.ResponseWriter, r *http.Request) {
	screeningSeatID, err := app.readIDParam(r, "screeningSeatId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	hold, err := app.seats.TryHold(r.Context(), screeningSeatID, app.contextGetHolder(r))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.SeatHoldResponse{
		ScreeningSeatId: hold.ScreeningSeatID,
		HoldExpiresAt:   hold.ExpiresAt,
		HoldTime:        int(hold.ExpiresAt.Sub(app.seats.Now()).Seconds()),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ReleaseSeatHoldHandler(w http.ResponseWriter, r *http.Request) {
	screeningSeatID, err := app.readIDParam(r, "screeningSeatId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.seats.ReleaseHold(r.Context(), screeningSeatID, app.contextGetHolder(r))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
