package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pfrederiksen/census-dict/internal/storage"
)

func TestFetch(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		body         string
		maxRetries   int
		wantError    bool
		wantRequests int32
	}{
		{
			name:         "successful fetch",
			statuses:     []int{http.StatusOK},
			body:         "<html>ok</html>",
			wantRequests: 1,
		},
		{
			name:         "not found is not retried",
			statuses:     []int{http.StatusNotFound},
			maxRetries:   3,
			wantError:    true,
			wantRequests: 1,
		},
		{
			name:         "server error retried then succeeds",
			statuses:     []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK},
			body:         "<html>late</html>",
			maxRetries:   3,
			wantRequests: 3,
		},
		{
			name:         "retries exhausted",
			statuses:     []int{http.StatusInternalServerError},
			maxRetries:   2,
			wantError:    true,
			wantRequests: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if userAgent := r.Header.Get("User-Agent"); !strings.Contains(userAgent, "census-dict") {
					t.Errorf("User-Agent = %q, should contain 'census-dict'", userAgent)
				}

				n := atomic.AddInt32(&requests, 1)
				status := tt.statuses[len(tt.statuses)-1]
				if int(n) <= len(tt.statuses) {
					status = tt.statuses[n-1]
				}
				w.WriteHeader(status)
				w.Write([]byte(tt.body)) // nolint:errcheck
			}))
			defer server.Close()

			f := New(Options{MaxRetries: tt.maxRetries, InitialBackoff: time.Millisecond})
			got, err := f.Fetch(context.Background(), "AGEP", server.URL)

			if tt.wantError {
				if err == nil {
					t.Error("Fetch() expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Fetch() unexpected error: %v", err)
				}
				if got != tt.body {
					t.Errorf("Fetch() = %q, want %q", got, tt.body)
				}
			}
			if requests != tt.wantRequests {
				t.Errorf("server saw %d requests, want %d", requests, tt.wantRequests)
			}
		})
	}
}

func TestFetch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := New(Options{}).Fetch(context.Background(), "AGEP", server.URL)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("Fetch() error = %v, want ErrUnexpectedStatus", err)
	}
}

func TestFetch_UsesCache(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write([]byte("<html>remote</html>")) // nolint:errcheck
	}))
	defer server.Close()

	cache, err := storage.NewPageCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewPageCache() error = %v", err)
	}

	f := New(Options{Cache: cache})
	for i := 0; i < 2; i++ {
		got, err := f.Fetch(context.Background(), "SEXP", server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if got != "<html>remote</html>" {
			t.Errorf("Fetch() = %q", got)
		}
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (second served from cache)", requests)
	}

	refreshing := New(Options{Cache: cache, Refresh: true})
	if _, err := refreshing.Fetch(context.Background(), "SEXP", server.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if requests != 2 {
		t.Errorf("server saw %d requests, want 2 after refresh", requests)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{MaxRetries: 5}).Fetch(ctx, "AGEP", server.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
}
