// Package currency resolves and memoizes EUR conversion rates through
// the national bank mid-rate API.
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/silvanatrade/distributor-portal/internal/config"
)

// ErrNoRateForDate indicates the provider published no rate for the
// requested calendar day (e.g. a non-trading day).
var ErrNoRateForDate = errors.New("currency: no rate published for date")

// Client fetches mid-rates from the upstream provider.
type Client interface {
	// FetchMidRate returns the mid-rate for an exact calendar day, or
	// ErrNoRateForDate when the day has no published rate.
	FetchMidRate(ctx context.Context, code string, date time.Time) (decimal.Decimal, error)
	// FetchLatestMidRate returns the most recent published mid-rate.
	FetchLatestMidRate(ctx context.Context, code string) (decimal.Decimal, error)
}

// NBPClient queries the NBP exchange-rate HTTP API (table A mid-rates,
// quoted against PLN).
type NBPClient struct {
	baseURL string
	http    *http.Client
}

// NewNBPClient constructs an NBPClient from currency configuration.
func NewNBPClient(cfg config.CurrencyConfig) *NBPClient {
	return &NBPClient{
		baseURL: strings.TrimRight(cfg.NBPBaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// nbpRatesResponse maps the relevant part of the NBP response body.
type nbpRatesResponse struct {
	Rates []struct {
		Mid float64 `json:"mid"`
	} `json:"rates"`
}

// FetchMidRate fetches the published mid-rate for an exact day.
func (c *NBPClient) FetchMidRate(ctx context.Context, code string, date time.Time) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/exchangerates/rates/a/%s/%s/?format=json",
		c.baseURL, strings.ToLower(code), date.Format("2006-01-02"))
	return c.fetch(ctx, url)
}

// FetchLatestMidRate fetches the most recent published mid-rate.
func (c *NBPClient) FetchLatestMidRate(ctx context.Context, code string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/exchangerates/rates/a/%s/?format=json",
		c.baseURL, strings.ToLower(code))
	return c.fetch(ctx, url)
}

// fetch performs one GET and decodes the first mid-rate.
func (c *NBPClient) fetch(ctx context.Context, url string) (decimal.Decimal, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if errReq != nil {
		return decimal.Zero, fmt.Errorf("currency: build request: %w", errReq)
	}
	req.Header.Set("Accept", "application/json")

	resp, errDo := c.http.Do(req)
	if errDo != nil {
		return decimal.Zero, fmt.Errorf("currency: fetch rate: %w", errDo)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, ErrNoRateForDate
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("currency: upstream status %d", resp.StatusCode)
	}

	var body nbpRatesResponse
	if errDecode := json.NewDecoder(resp.Body).Decode(&body); errDecode != nil {
		return decimal.Zero, fmt.Errorf("currency: decode response: %w", errDecode)
	}
	if len(body.Rates) == 0 {
		return decimal.Zero, ErrNoRateForDate
	}
	return decimal.NewFromFloat(body.Rates[0].Mid), nil
}
