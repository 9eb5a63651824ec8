package stationapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/config"
	"github.com/mamadbah2/stationdash/internal/domain/models"
)

const (
	salesPath  = "/api/entries/all"
	trucksPath = "/api/entries/all-trucks"
	stockPath  = "/api/entries/stock-summary"

	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

var (
	// ErrNotAuthenticated means no access token is stored.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired means the API rejected the token and it could not be refreshed.
	ErrSessionExpired = errors.New("session expired")
	// ErrRequestFailed covers any other failed fetch: transport errors,
	// non-2xx responses and undecodable bodies.
	ErrRequestFailed = errors.New("request failed")
)

// RequestError describes a failed fetch. StatusCode is 0 when no response
// was received.
type RequestError struct {
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "station api %s", e.Path)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status=%d", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ", body=%s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, e.Err}
}

// CredentialProvider supplies the bearer token used by the client.
type CredentialProvider interface {
	// Token returns the current access token or ErrNotAuthenticated.
	Token() (string, error)
	// Refresh exchanges the refresh token for a new token pair.
	Refresh(ctx context.Context) error
	// OnExpired registers a handler fired when the session expires.
	OnExpired(fn func())
	// Expire drops the stored credentials and fires the expired handlers.
	Expire()
}

// Client fetches record sets from the station API.
type Client struct {
	httpClient *resty.Client
	creds      CredentialProvider
	logger     *zap.Logger
}

// NewClient builds a resty-backed client for the station API.
func NewClient(cfg config.APIConfig, creds CredentialProvider, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{
		httpClient: restyClient,
		creds:      creds,
		logger:     logger,
	}
}

// Fetch loads the record set of dataset narrowed by q. Trucks and stock only
// honour the year.
func (c *Client) Fetch(ctx context.Context, dataset models.Dataset, q models.Query) ([]models.Record, error) {
	switch dataset {
	case models.DatasetSales:
		return c.FetchSales(ctx, q)
	case models.DatasetTrucks:
		return c.FetchTrucks(ctx, q.Year)
	case models.DatasetStock:
		return c.FetchStockSummary(ctx, q.Year)
	default:
		return nil, fmt.Errorf("fetch %q: unknown dataset", dataset)
	}
}

// FetchSales returns the daily sales entries for the year, optionally
// narrowed to a month and day.
func (c *Client) FetchSales(ctx context.Context, q models.Query) ([]models.Record, error) {
	params := map[string]string{"year": q.Year}
	if q.Month != "" {
		params["month"] = q.Month
	}
	if q.Day != "" {
		params["day"] = q.Day
	}
	return c.getRecords(ctx, salesPath, params)
}

// FetchTrucks returns the truck trips, for one year when year is set.
func (c *Client) FetchTrucks(ctx context.Context, year string) ([]models.Record, error) {
	params := map[string]string{}
	if year != "" {
		params["year"] = year
	}
	return c.getRecords(ctx, trucksPath, params)
}

// FetchStockSummary returns the per-branch fuel totals of a year.
func (c *Client) FetchStockSummary(ctx context.Context, year string) ([]models.Record, error) {
	return c.getRecords(ctx, stockPath, map[string]string{"year": year})
}

// getRecords performs an authenticated GET. A 401 triggers one refresh and
// one retry; when either fails the session is expired.
func (c *Client) getRecords(ctx context.Context, path string, params map[string]string) ([]models.Record, error) {
	token, err := c.creds.Token()
	if err != nil {
		return nil, err
	}

	records, status, err := c.get(ctx, path, params, token)
	if status != http.StatusUnauthorized {
		return records, err
	}

	c.logger.Info("access token rejected, refreshing", zap.String("path", path))
	if err := c.creds.Refresh(ctx); err != nil {
		c.logger.Warn("token refresh failed", zap.String("path", path), zap.Error(err))
		c.creds.Expire()
		return nil, ErrSessionExpired
	}

	token, err = c.creds.Token()
	if err != nil {
		c.creds.Expire()
		return nil, ErrSessionExpired
	}

	records, status, err = c.get(ctx, path, params, token)
	if status == http.StatusUnauthorized {
		c.logger.Warn("refreshed token rejected", zap.String("path", path))
		c.creds.Expire()
		return nil, ErrSessionExpired
	}
	return records, err
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, token string) ([]models.Record, int, error) {
	var records []models.Record

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(params).
		SetResult(&records).
		ForceContentType("application/json").
		Get(path)

	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	if status == http.StatusUnauthorized {
		return nil, status, nil
	}
	if err != nil {
		body := ""
		if resp != nil {
			body = truncate(resp.String(), maxErrorBody)
		}
		return nil, status, &RequestError{Path: path, StatusCode: status, Body: body, Err: err}
	}
	if resp.IsError() {
		return nil, status, &RequestError{Path: path, StatusCode: status, Body: truncate(resp.String(), maxErrorBody)}
	}
	if records == nil {
		records = []models.Record{}
	}

	c.logger.Debug("fetched records",
		zap.String("path", path),
		zap.Int("count", len(records)),
	)
	return records, status, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
