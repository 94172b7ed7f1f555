package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"createdAt": {},
}

func prepareRequest(
	method, path string,
	body io.Reader,
	headers map[string]string,
	cookies []*http.Cookie) *http.Request {

	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	return req
}

func compareResponse(t testing.TB, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indeterministic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}
		if nested, ok := m[k].(map[string]any); ok {
			cleanMap(nested)
		}
	}
}

// sessionCookie returns the session cookie the response set, if any.
func sessionCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}

	return nil
}

func seatStatus(t testing.TB, app *TestApp, screeningSeatID int) (status string, heldBy *string) {
	err := app.DB.QueryRow(
		context.Background(),
		`SELECT status, held_by FROM screening_seats WHERE id = $1`,
		screeningSeatID,
	).Scan(&status, &heldBy)
	require.NoError(t, err)

	return status, heldBy
}

func count(t testing.TB, app *TestApp, query string, args ...any) int {
	var n int
	require.NoError(t, app.DB.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}
