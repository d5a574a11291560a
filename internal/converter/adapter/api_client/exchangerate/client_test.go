package exchangerate

import (
	"context"
	"errors"
	"github.com/langowen/converter/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(srv.URL+"/v6", "test-key", srv.Client())
	require.NoError(t, err)
	return client
}

func TestNewHTTPClient_MissingKey(t *testing.T) {
	_, err := NewHTTPClient("https://example.com/v6", "  ", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrConfig))
	assert.Equal(t, entities.KindConfig, entities.KindOf(err))
}

func TestLatest_Success(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"result": "success",
			"base_code": "USD",
			"time_last_update_unix": 1700000000,
			"conversion_rates": {"USD": 1, "AFN": 87.5, "EUR": 0.92}
		}`))
	})

	table, err := client.Latest(context.Background(), "USD")
	require.NoError(t, err)

	assert.Equal(t, "/v6/test-key/latest/USD", gotPath)
	assert.Equal(t, "USD", table.Base)
	assert.Equal(t, 3, table.Len())
	rate, ok := table.Rate("AFN")
	assert.True(t, ok)
	assert.Equal(t, 87.5, rate)
	assert.Equal(t, time.Unix(1700000000, 0), table.UpdatedAt)
}

func TestLatest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    entities.Kind
		message string
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"result":"error","error-type":"invalid-key"}`,
			kind:    entities.KindNetwork,
			message: "Failed to fetch data from the API: the API key was rejected.",
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			kind:    entities.KindNetwork,
			message: "Failed to fetch data from the API.",
		},
		{
			name:    "not json",
			status:  http.StatusOK,
			body:    `<html></html>`,
			kind:    entities.KindMalformedResponse,
			message: "Invalid response format.",
		},
		{
			name:    "missing rates",
			status:  http.StatusOK,
			body:    `{"result":"success","base_code":"USD"}`,
			kind:    entities.KindMalformedResponse,
			message: "Invalid response format.",
		},
		{
			name:    "empty rates",
			status:  http.StatusOK,
			body:    `{"result":"success","conversion_rates":{}}`,
			kind:    entities.KindMalformedResponse,
			message: "Invalid response format.",
		},
		{
			name:    "error result with 200",
			status:  http.StatusOK,
			body:    `{"result":"error","error-type":"unsupported-code"}`,
			kind:    entities.KindNetwork,
			message: "Failed to fetch data from the API.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			table, err := client.Latest(context.Background(), "USD")
			require.Error(t, err)
			assert.Nil(t, table)
			assert.Equal(t, tt.kind, entities.KindOf(err))
			assert.Equal(t, tt.message, entities.UserMessage(err))
		})
	}
}

func TestLatest_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewHTTPClient(url, "key", nil)
	require.NoError(t, err)

	_, err = client.Latest(context.Background(), "USD")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrNetwork))
}

func TestLatest_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Latest(ctx, "USD")
	require.Error(t, err)
	assert.Equal(t, entities.KindNetwork, entities.KindOf(err))
	assert.Equal(t, "The exchange rate request timed out.", entities.UserMessage(err))
}
