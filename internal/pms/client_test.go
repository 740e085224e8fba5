package pms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storably/stashsync/internal/config"
	"github.com/storably/stashsync/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	exec := retry.New(config.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 5 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     20 * time.Millisecond,
	}, zap.NewNop())

	client := New(config.Config{PMSBaseURL: srv.URL, PMSToken: "secret-token"}, exec, zap.NewNop())
	return client, srv
}

func TestFacilitiesFollowsPagination(t *testing.T) {
	var pagesServed atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		pagesServed.Add(1)

		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		switch page {
		case "1":
			facilities := make([]Facility, defaultPageSize)
			for i := range facilities {
				facilities[i] = Facility{ID: "fac", Name: "Full Page"}
			}
			_ = json.NewEncoder(w).Encode(facilities)
		default:
			_ = json.NewEncoder(w).Encode([]Facility{{ID: "fac-last", Name: "Tail"}})
		}
	}))

	facilities, err := client.Facilities(context.Background())
	require.NoError(t, err)
	assert.Len(t, facilities, defaultPageSize+1)
	assert.Equal(t, int32(2), pagesServed.Load())
}

func TestGetAuthFailureIsTerminal(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))

	_, err := client.Facility(context.Background(), "fac-1")
	require.Error(t, err)
	assert.True(t, retry.IsTerminal(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(1), requests.Load(), "auth failures must not consume retries")
}

func TestGetServerErrorIsRetried(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Tenant{ID: "t-1", UnitNumber: "101"})
	}))

	tenant, err := client.Tenant(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "101", tenant.UnitNumber)
	assert.Equal(t, int32(3), requests.Load())
}

func TestGetExhaustionSurfacesLabel(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))

	err := client.Health(context.Background())
	require.Error(t, err)

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "pms.health", exhausted.Label)
	assert.Equal(t, 3, exhausted.Attempts)
}
