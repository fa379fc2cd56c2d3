package quarantine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream holding quarantined records.
	StreamName = "VENUEPULSE_QUARANTINE"

	// subjectPrefix namespaces quarantine subjects; the entry ID is appended.
	subjectPrefix = "pipeline.quarantine."
)

// JetStreamQueue is an alternative dead-letter backend on NATS JetStream for
// deployments that centralize failed messages away from the Redis instance
// carrying the live stream. Records use the same wire format as ListQueue.
type JetStreamQueue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewJetStreamQueue connects to NATS and ensures the quarantine stream exists.
func NewJetStreamQueue(ctx context.Context, url string) (*JetStreamQueue, error) {
	nc, err := nats.Connect(url,
		nats.Name("venuepulse-quarantine"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create quarantine stream: %w", err)
	}

	return &JetStreamQueue{nc: nc, js: js}, nil
}

// Write publishes rec to the quarantine stream, one subject per entry.
func (q *JetStreamQueue) Write(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal quarantine record: %w", err)
	}
	if _, err := q.js.Publish(ctx, subjectPrefix+rec.EntryID, data); err != nil {
		return fmt.Errorf("publish quarantine record %s: %w", rec.EntryID, err)
	}
	return nil
}

// Close drains the NATS connection.
func (q *JetStreamQueue) Close() {
	q.nc.Close()
}
