package app

import (
	"net/http"

	"github.com/metinatakli/cinex-booking/api"
)

func (app *Application) ReconcileScreeningsHandler(w http.ResponseWriter, r *http.Request) {
	result, err := app.showtimes.Reconcile(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.ReconcileResponse{
		Evaluated: result.Evaluated,
		Advanced:  result.Advanced,
		Failed:    result.Failed,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
