package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuepulse/venuepulse/common/signing"
)

func TestGatewayClient_SendTransaction(t *testing.T) {
	const secret = "venue-secret"

	var gotBody []byte
	var gotSignature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ingest", r.URL.Path)
		gotSignature = r.Header.Get("X-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	ts := time.Date(2024, 6, 1, 22, 15, 0, 0, time.UTC)
	require.NoError(t, c.SendTransaction(context.Background(), "venue-1", secret, ts, 7))

	assert.NoError(t, signing.Verify(secret, gotBody, gotSignature), "signature must match the bytes on the wire")

	var event map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &event))
	assert.Equal(t, "venue-1", event["venue_id"])
	assert.Equal(t, "2024-06-01T22:15:00Z", event["timestamp"])
	assert.Equal(t, float64(7), event["transaction_count"])
}

func TestGatewayClient_SendTransaction_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"invalid signature"}`))
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	err := c.SendTransaction(context.Background(), "venue-1", "wrong", time.Now(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "invalid signature")
}
