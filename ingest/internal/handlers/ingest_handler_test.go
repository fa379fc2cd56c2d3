package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuepulse/venuepulse/common/logging"
	"github.com/venuepulse/venuepulse/common/signing"
	"github.com/venuepulse/venuepulse/common/stream"
	"github.com/venuepulse/venuepulse/ingest/internal/repository"
)

const testSecret = "venue-secret"

type fakeSecretStore struct {
	secrets map[string]string
	err     error
}

func (f *fakeSecretStore) VenueSecret(_ context.Context, venueID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	secret, ok := f.secrets[venueID]
	if !ok {
		return "", repository.ErrVenueNotFound
	}
	return secret, nil
}

type fakeAppender struct {
	err     error
	entries []map[string]any
}

func (f *fakeAppender) Append(_ context.Context, fields map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.entries = append(f.entries, fields)
	return "1-0", nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

func discardLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.DiscardHandler)}
}

func newHandler(appender *fakeAppender) *IngestHandler {
	secrets := &fakeSecretStore{secrets: map[string]string{"venue-1": testSecret}}
	return NewIngestHandler(secrets, appender, nil, 0, discardLogger())
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"venue_id":          "venue-1",
		"timestamp":         "2024-06-01T22:15:00Z",
		"transaction_count": 4,
	})
	require.NoError(t, err)
	return body
}

func doIngest(h *IngestHandler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rr := httptest.NewRecorder()
	h.HandleIngest(rr, req)
	return rr
}

func detail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp["detail"]
}

func TestHandleIngest_Accepted(t *testing.T) {
	appender := &fakeAppender{}
	h := newHandler(appender)
	body := validBody(t)

	rr := doIngest(h, body, signing.Sign(testSecret, body))

	require.Equal(t, http.StatusAccepted, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])

	require.Len(t, appender.entries, 1)
	fields := appender.entries[0]
	assert.Equal(t, "venue-1", fields[stream.FieldVenueID])
	assert.Equal(t, "2024-06-01T22:15:00Z", fields[stream.FieldTimestamp])
	assert.Equal(t, "4", fields[stream.FieldQuantity])
	assert.JSONEq(t, string(body), fields[stream.FieldRawPayload].(string))
}

func TestHandleIngest_MissingSignature(t *testing.T) {
	appender := &fakeAppender{}
	h := newHandler(appender)

	rr := doIngest(h, validBody(t), "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Missing signature", detail(t, rr))
	assert.Empty(t, appender.entries)
}

func TestHandleIngest_BadJSON(t *testing.T) {
	h := newHandler(&fakeAppender{})

	rr := doIngest(h, []byte("{not json"), "deadbeef")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleIngest_SchemaValidation(t *testing.T) {
	h := newHandler(&fakeAppender{})

	cases := map[string]map[string]any{
		"missing venue_id":          {"timestamp": "2024-06-01T22:15:00Z", "transaction_count": 4},
		"missing timestamp":         {"venue_id": "venue-1", "transaction_count": 4},
		"bad timestamp":             {"venue_id": "venue-1", "timestamp": "yesterday", "transaction_count": 4},
		"missing transaction_count": {"venue_id": "venue-1", "timestamp": "2024-06-01T22:15:00Z"},
		"negative transaction_count": {
			"venue_id": "venue-1", "timestamp": "2024-06-01T22:15:00Z", "transaction_count": -1,
		},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			body, err := json.Marshal(payload)
			require.NoError(t, err)

			rr := doIngest(h, body, signing.Sign(testSecret, body))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHandleIngest_UnknownVenue(t *testing.T) {
	h := newHandler(&fakeAppender{})
	body, err := json.Marshal(map[string]any{
		"venue_id":          "no-such-venue",
		"timestamp":         "2024-06-01T22:15:00Z",
		"transaction_count": 4,
	})
	require.NoError(t, err)

	rr := doIngest(h, body, signing.Sign(testSecret, body))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Venue not found", detail(t, rr))
}

func TestHandleIngest_InvalidSignature(t *testing.T) {
	appender := &fakeAppender{}
	h := newHandler(appender)
	body := validBody(t)

	rr := doIngest(h, body, signing.Sign("wrong-secret", body))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Invalid signature", detail(t, rr))
	assert.Empty(t, appender.entries)
}

func TestHandleIngest_TamperedBody(t *testing.T) {
	h := newHandler(&fakeAppender{})
	body := validBody(t)
	signature := signing.Sign(testSecret, body)

	tampered := bytes.Replace(body, []byte(`"transaction_count":4`), []byte(`"transaction_count":40`), 1)
	require.NotEqual(t, body, tampered)

	rr := doIngest(h, tampered, signature)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandleIngest_RateLimited(t *testing.T) {
	secrets := &fakeSecretStore{secrets: map[string]string{"venue-1": testSecret}}
	h := NewIngestHandler(secrets, &fakeAppender{}, denyLimiter{}, 0, discardLogger())
	body := validBody(t)

	rr := doIngest(h, body, signing.Sign(testSecret, body))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestHandleIngest_AppendFailure(t *testing.T) {
	secrets := &fakeSecretStore{secrets: map[string]string{"venue-1": testSecret}}
	h := NewIngestHandler(secrets, &fakeAppender{err: errors.New("redis down")}, nil, 0, discardLogger())
	body := validBody(t)

	rr := doIngest(h, body, signing.Sign(testSecret, body))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandleIngest_MethodNotAllowed(t *testing.T) {
	h := newHandler(&fakeAppender{})
	req := httptest.NewRequest(http.MethodGet, "/ingest", nil)
	rr := httptest.NewRecorder()

	h.HandleIngest(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleIngest_PayloadTooLarge(t *testing.T) {
	secrets := &fakeSecretStore{secrets: map[string]string{"venue-1": testSecret}}
	h := NewIngestHandler(secrets, &fakeAppender{}, nil, 64, discardLogger())

	body := append(validBody(t), bytes.Repeat([]byte(" "), 128)...)
	rr := doIngest(h, body, signing.Sign(testSecret, body))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
