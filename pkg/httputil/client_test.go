package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8090/", nil)

	if client.baseURL != "http://localhost:8090" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.retryConfig.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", client.retryConfig.MaxRetries)
	}
	if client.logger == nil {
		t.Error("Expected logger to be set")
	}
}

func TestWithTimeoutAndRetry(t *testing.T) {
	client := New("http://x", nil).WithTimeout(5*time.Second).WithRetry(5, 2*time.Second)

	if client.httpClient.Timeout != 5*time.Second {
		t.Errorf("Expected timeout=5s, got %v", client.httpClient.Timeout)
	}
	if client.retryConfig.MaxRetries != 5 {
		t.Errorf("Expected MaxRetries=5, got %d", client.retryConfig.MaxRetries)
	}

	client.DisableRetry()
	if client.retryConfig.Enabled {
		t.Error("Expected retry to be disabled")
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if r.URL.Path != "/api/markets/mkt-a/verdict" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"PASS","score":71.5}`))
	}))
	defer server.Close()

	var got struct {
		Status string  `json:"status"`
		Score  float64 `json:"score"`
	}
	if err := New(server.URL, nil).GetJSON(context.Background(), "/api/markets/mkt-a/verdict", &got); err != nil {
		t.Fatalf("GET request failed: %v", err)
	}
	if got.Status != "PASS" || got.Score != 71.5 {
		t.Errorf("Unexpected body %+v", got)
	}
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type=application/json, got %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	}))
	defer server.Close()

	var echo map[string]interface{}
	err := New(server.URL, nil).PostJSON(context.Background(), "/echo", map[string]interface{}{"asin": "B0X"}, &echo)
	if err != nil {
		t.Fatalf("POST request failed: %v", err)
	}
	if echo["asin"] != "B0X" {
		t.Errorf("Expected echoed body, got %v", echo)
	}
}

func TestRetryOn5xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, nil).WithRetry(3, time.Millisecond)
	if err := client.PostJSON(context.Background(), "/", map[string]int{"n": 1}, nil); err != nil {
		t.Fatalf("Request failed after retries: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestNoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no verdict for market"}`))
	}))
	defer server.Close()

	err := New(server.URL, nil).WithRetry(3, time.Millisecond).GetJSON(context.Background(), "/", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "no verdict for market" {
		t.Errorf("Unexpected error %+v", apiErr)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := New(server.URL, nil).WithRetry(10, time.Second).GetJSON(ctx, "/", nil)
	if err == nil {
		t.Fatal("Expected an error")
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			if got := IsRetryableError(tt.statusCode); got != tt.want {
				t.Errorf("IsRetryableError(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}
