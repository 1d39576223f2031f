package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientFetchNormalizesValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"Station": "Douala", "Latitude": 4.05, "Longitude": 9.68, "DateTime": "2026-08-01T10:00:00Z", "TIDE HEIGHT": 1.2, "HUMIDITY": "82"},
			{"Station": "Limbe", "Latitude": 4.02, "Longitude": 9.2, "DateTime": "2026-08-01T11:00:00Z", "TIDE HEIGHT": null}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	rows, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "Douala", rows[0].Station())
	require.Equal(t, "4.05", rows[0]["Latitude"])
	require.Equal(t, "1.2", rows[0]["TIDE HEIGHT"])
	require.Equal(t, "82", rows[0]["HUMIDITY"])
	require.Equal(t, "", rows[1]["TIDE HEIGHT"])

	value, ok := rows[0].Value("TIDE HEIGHT")
	require.True(t, ok)
	require.InDelta(t, 1.2, value, 0.0001)
	_, ok = rows[1].Value("TIDE HEIGHT")
	require.False(t, ok)
}

func TestClientFetchUpstreamFailureStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 503")
}

func TestClientFetchMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil)
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode observations")
}
