package currency

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/silvanatrade/distributor-portal/internal/config"
)

func newTestNBP(t *testing.T, handler http.HandlerFunc) *NBPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewNBPClient(config.CurrencyConfig{NBPBaseURL: server.URL, Timeout: 2 * time.Second})
}

func TestNBPClient_FetchMidRate(t *testing.T) {
	client := newTestNBP(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exchangerates/rates/a/usd/2024-01-15/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"table":"A","currency":"dolar amerykański","code":"USD","rates":[{"no":"010/A/NBP/2024","effectiveDate":"2024-01-15","mid":3.9850}]}`))
	})

	rate, err := client.FetchMidRate(context.Background(), "USD", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("3.985")) {
		t.Fatalf("expected 3.985, got %s", rate)
	}
}

func TestNBPClient_NoRateForDate(t *testing.T) {
	client := newTestNBP(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "404 NotFound - Not Found - Brak danych", http.StatusNotFound)
	})

	_, err := client.FetchMidRate(context.Background(), "USD", time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNoRateForDate) {
		t.Fatalf("expected ErrNoRateForDate, got %v", err)
	}
}

func TestNBPClient_FetchLatestMidRate(t *testing.T) {
	client := newTestNBP(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exchangerates/rates/a/usd/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rates":[{"mid":3.8700}]}`))
	})

	rate, err := client.FetchLatestMidRate(context.Background(), "USD")
	if err != nil {
		t.Fatalf("fetch latest: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("3.87")) {
		t.Fatalf("expected 3.87, got %s", rate)
	}
}

func TestNBPClient_UpstreamError(t *testing.T) {
	client := newTestNBP(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := client.FetchLatestMidRate(context.Background(), "USD"); err == nil {
		t.Fatalf("expected error on 500")
	}
}
