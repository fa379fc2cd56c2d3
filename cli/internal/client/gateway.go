package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/venuepulse/venuepulse/common/signing"
)

// GatewayClient submits signed transaction events to the ingestion gateway.
type GatewayClient struct {
	baseURL string
	client  *http.Client
}

func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type transactionEvent struct {
	VenueID          string `json:"venue_id"`
	Timestamp        string `json:"timestamp"`
	TransactionCount int    `json:"transaction_count"`
}

// SendTransaction signs the event payload with the venue's secret and posts
// it to /ingest. The gateway verifies the signature over the exact bytes
// sent, so the payload is marshaled once and never touched afterwards.
func (c *GatewayClient) SendTransaction(ctx context.Context, venueID, secret string, ts time.Time, count int) error {
	body, err := json.Marshal(transactionEvent{
		VenueID:          venueID,
		Timestamp:        ts.UTC().Format(time.RFC3339),
		TransactionCount: count,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ingest", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", signing.Sign(secret, body))

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway rejected event with status %d: %s", resp.StatusCode, detail)
	}

	return nil
}
