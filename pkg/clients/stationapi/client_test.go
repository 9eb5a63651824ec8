package stationapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stationdash/internal/config"
	"github.com/mamadbah2/stationdash/internal/domain/models"
)

type fakeCredentials struct {
	mu         sync.Mutex
	token      string
	next       string
	refreshErr error
	refreshes  int
	expired    int
	handlers   []func()
}

func (f *fakeCredentials) Token() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == "" {
		return "", ErrNotAuthenticated
	}
	return f.token, nil
}

func (f *fakeCredentials) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.token = f.next
	return nil
}

func (f *fakeCredentials) OnExpired(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fn)
}

func (f *fakeCredentials) Expire() {
	f.mu.Lock()
	f.token = ""
	f.expired++
	handlers := f.handlers
	f.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, creds *fakeCredentials) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.APIConfig{BaseURL: srv.URL}, creds, nil)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestFetchSalesSendsQueryAndToken(t *testing.T) {
	creds := &fakeCredentials{token: "access"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, salesPath, r.URL.Path)
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		assert.Equal(t, "2025", r.URL.Query().Get("year"))
		assert.Equal(t, "03", r.URL.Query().Get("month"))
		assert.False(t, r.URL.Query().Has("day"))
		writeJSON(w, http.StatusOK, `[{"branch":"Tema","net_sales":100,"date":"2025-03-05T00:00:00Z"}]`)
	}, creds)

	records, err := client.FetchSales(context.Background(), models.Query{Year: "2025", Month: "03"})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Tema", records[0].Branch())
	assert.Equal(t, 100.0, records[0].Get("net_sales").Num())
}

func TestFetchDispatchesByDataset(t *testing.T) {
	var paths []string
	creds := &fakeCredentials{token: "access"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		writeJSON(w, http.StatusOK, `[]`)
	}, creds)

	for _, d := range models.Datasets {
		records, err := client.Fetch(context.Background(), d, models.Query{Year: "2024", Month: "1"})
		require.NoError(t, err)
		assert.Empty(t, records)
	}
	_, err := client.Fetch(context.Background(), models.Dataset("fuel"), models.Query{})
	require.Error(t, err)

	assert.Equal(t, []string{
		"/api/entries/all?month=1&year=2024",
		"/api/entries/all-trucks?year=2024",
		"/api/entries/stock-summary?year=2024",
	}, paths)
}

func TestFetchWithoutTokenIsNotAuthenticated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, &fakeCredentials{})

	_, err := client.FetchTrucks(context.Background(), "2025")

	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestFetchRefreshesOnceAndRetries(t *testing.T) {
	creds := &fakeCredentials{token: "stale", next: "fresh"}
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"branch":"Wa","total_ago":10,"total_pms":20,"year":2025}]`)
	}, creds)

	records, err := client.FetchStockSummary(context.Background(), "2025")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, creds.refreshes)
	assert.Zero(t, creds.expired)
}

func TestFetchRefreshFailureExpiresSession(t *testing.T) {
	creds := &fakeCredentials{token: "stale", refreshErr: errors.New("refresh rejected")}
	notified := false
	creds.OnExpired(func() { notified = true })
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusUnauthorized, `{"detail":"expired"}`)
	}, creds)

	_, err := client.FetchSales(context.Background(), models.Query{Year: "2025"})

	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, creds.expired)
	assert.True(t, notified)
	_, tokenErr := creds.Token()
	assert.ErrorIs(t, tokenErr, ErrNotAuthenticated)
}

func TestFetchSecondUnauthorizedExpiresSession(t *testing.T) {
	creds := &fakeCredentials{token: "stale", next: "still-bad"}
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusUnauthorized, `{"detail":"expired"}`)
	}, creds)

	_, err := client.FetchSales(context.Background(), models.Query{Year: "2025"})

	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, creds.refreshes)
	assert.Equal(t, 1, creds.expired)
}

func TestFetchServerErrorIsRequestFailed(t *testing.T) {
	creds := &fakeCredentials{token: "access"}
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusInternalServerError, `{"detail":"database unavailable"}`)
	}, creds)

	_, err := client.FetchSales(context.Background(), models.Query{Year: "2025"})

	require.ErrorIs(t, err, ErrRequestFailed)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "database unavailable")
	assert.Equal(t, 1, calls)
	assert.Zero(t, creds.refreshes)
}

func TestFetchMalformedBodyIsRequestFailed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"not":"an array"}`)
	}, &fakeCredentials{token: "access"})

	_, err := client.FetchSales(context.Background(), models.Query{Year: "2025"})

	require.ErrorIs(t, err, ErrRequestFailed)
}

func TestFetchNonJSONBodyIsRequestFailed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>gateway login</html>"))
	}, &fakeCredentials{token: "access"})

	records, err := client.FetchSales(context.Background(), models.Query{Year: "2025"})

	assert.Nil(t, records)
	require.ErrorIs(t, err, ErrRequestFailed)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusOK, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "gateway login")
}
