package license

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestQueryValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{name: "valid", query: Query{LicenseNumber: " RN123 ", State: "ca"}},
		{name: "missing number", query: Query{State: "CA"}, wantErr: true},
		{name: "long state", query: Query{LicenseNumber: "RN123", State: "Cal"}, wantErr: true},
		{name: "digits in state", query: Query{LicenseNumber: "RN123", State: "C1"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.query.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "RN123", tt.query.LicenseNumber)
			assert.Equal(t, "CA", tt.query.State)
		})
	}
}

func TestMockVerifier(t *testing.T) {
	t.Parallel()

	m := NewMockVerifier(func() time.Time { return fixedNow })
	ctx := context.Background()

	active, err := m.Verify(ctx, Query{LicenseNumber: "RN123", State: "tx"})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, active.Status)
	assert.Equal(t, "RN", active.LicenseType)
	assert.Equal(t, "TX", active.State)
	require.NotNil(t, active.ExpiresAt)
	assert.Equal(t, fixedNow.AddDate(1, 0, 0), *active.ExpiresAt)
	assert.True(t, active.Active())

	expired, err := m.Verify(ctx, Query{LicenseNumber: "RN123x", State: "TX"})
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, expired.Status)
	assert.False(t, expired.Active())

	missing, err := m.Verify(ctx, Query{LicenseNumber: "000123", State: "TX"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, missing.Status)
	assert.Nil(t, missing.ExpiresAt)

	_, err = m.Verify(ctx, Query{State: "TX"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestNewPicksVerifier(t *testing.T) {
	t.Parallel()

	v, err := New(nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MockVerifier{}, v)

	v, err = New(&Config{Mode: "HTTP", APIURL: "https://licenses.example.com/"}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &HTTPVerifier{}, v)
	assert.Equal(t, "https://licenses.example.com", v.(*HTTPVerifier).APIURL)

	_, err = New(&Config{Mode: "http"}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(&Config{Mode: "carrier-pigeon"}, zap.NewNop())
	assert.Error(t, err)
}

func newTestVerifier(t *testing.T, handler http.HandlerFunc) *HTTPVerifier {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	v, err := NewHTTPVerifier(&Config{APIURL: srv.URL, APIKey: "secret", MaxRetries: 3}, zap.NewNop())
	require.NoError(t, err)
	v.backoffBase = time.Millisecond
	v.now = func() time.Time { return fixedNow }
	return v
}

func TestHTTPVerifierActive(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, verifyPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "RN123", r.URL.Query().Get("licenseNumber"))
		assert.Equal(t, "CA", r.URL.Query().Get("state"))
		assert.Equal(t, "Doe", r.URL.Query().Get("lastName"))

		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(`{"licenseNumber":"RN123","state":"ca","licenseType":"RN","status":"Active","expiresAt":"2027-01-01T00:00:00Z"}`))
	})

	got, err := v.Verify(context.Background(), Query{LicenseNumber: "RN123", State: "CA", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, "CA", got.State)
	assert.Equal(t, httpSource, got.Source)
	assert.Equal(t, fixedNow, got.CheckedAt)
}

func TestHTTPVerifierGzipAndPastExpiry(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"status":"active","expiresAt":"2025-01-01T00:00:00Z"}`))
		_ = gz.Close()
	})

	got, err := v.Verify(context.Background(), Query{LicenseNumber: "RN123", State: "CA"})
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
	assert.Equal(t, "RN123", got.LicenseNumber)
	assert.Equal(t, "CA", got.State)
}

func TestHTTPVerifierNotFound(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	got, err := v.Verify(context.Background(), Query{LicenseNumber: "RN123", State: "CA"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, got.Status)
}

func TestHTTPVerifierRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"status":"inactive"}`))
	})

	got, err := v.Verify(context.Background(), Query{LicenseNumber: "RN123", State: "CA"})
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, got.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPVerifierGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := v.Verify(context.Background(), Query{LicenseNumber: "RN123", State: "CA"})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPVerifierDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	v := newTestVerifier(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := v.Verify(context.Background(), Query{LicenseNumber: "RN123", State: "CA"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPVerifierRejectsInvalidQuery(t *testing.T) {
	t.Parallel()

	v := newTestVerifier(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})

	_, err := v.Verify(context.Background(), Query{LicenseNumber: "RN123", State: "California"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
