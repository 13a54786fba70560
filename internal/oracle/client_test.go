package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_GetValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/value/XLM%2FUSD" && r.URL.Path != "/v1/value/XLM/USD" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(valueResponse{
			Pair:      "XLM/USD",
			Price:     110_000_000,
			Timestamp: 1_700_000_000,
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	price, timestamp, err := client.GetValue(context.Background(), "XLM/USD")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if price != 110_000_000 {
		t.Errorf("price: got %d, want 110000000", price)
	}
	if timestamp != 1_700_000_000 {
		t.Errorf("timestamp: got %d, want 1700000000", timestamp)
	}
}

func TestHTTPClient_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(valueResponse{Price: 1, Timestamp: 2})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond),
	)
	price, _, err := client.GetValue(context.Background(), "XLM/USD")
	if err != nil {
		t.Fatalf("GetValue after retries: %v", err)
	}
	if price != 1 {
		t.Errorf("price: got %d, want 1", price)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestHTTPClient_ExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(1),
		WithRetryDelay(time.Millisecond),
	)
	if _, _, err := client.GetValue(context.Background(), "XLM/USD"); err == nil {
		t.Error("expected error after exhausting retries")
	}
}

func TestHTTPClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(0),
	)
	if _, _, err := client.GetValue(context.Background(), "XLM/USD"); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(5),
		WithRetryDelay(time.Hour),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := client.GetValue(ctx, "XLM/USD"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestDexClient_GetSpotPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(spotResponse{Pair: "XLM/USD", Price: 95_000_000})
	}))
	defer server.Close()

	client := NewDexClient(server.URL)
	price, err := client.GetSpotPrice(context.Background(), "XLM/USD")
	if err != nil {
		t.Fatalf("GetSpotPrice: %v", err)
	}
	if price != 95_000_000 {
		t.Errorf("price: got %d, want 95000000", price)
	}
}
