package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/venuepulse/venuepulse/common/stream"
)

// TransactionEvent is one venue transaction batch as carried on the stream.
// The timestamp may be historical or simulated; it is never assumed to be
// near the wall clock.
type TransactionEvent struct {
	VenueID   string
	Timestamp time.Time
	Quantity  int
}

// decodeEntry converts raw stream fields into a TransactionEvent.
func decodeEntry(fields map[string]string) (TransactionEvent, error) {
	venueID := fields[stream.FieldVenueID]
	if venueID == "" {
		return TransactionEvent{}, &DecodeError{Err: fmt.Errorf("missing %s", stream.FieldVenueID)}
	}

	ts, err := time.Parse(time.RFC3339, fields[stream.FieldTimestamp])
	if err != nil {
		return TransactionEvent{}, &DecodeError{Err: fmt.Errorf("parse %s: %w", stream.FieldTimestamp, err)}
	}

	quantity, err := strconv.Atoi(fields[stream.FieldQuantity])
	if err != nil {
		return TransactionEvent{}, &DecodeError{Err: fmt.Errorf("parse %s: %w", stream.FieldQuantity, err)}
	}
	if quantity < 0 {
		return TransactionEvent{}, &DecodeError{Err: fmt.Errorf("negative %s: %d", stream.FieldQuantity, quantity)}
	}

	return TransactionEvent{VenueID: venueID, Timestamp: ts, Quantity: quantity}, nil
}
