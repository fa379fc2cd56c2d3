// Package quarantine moves poison entries out of the delivery path into a
// separate durable dead-letter log for offline inspection. Quarantined
// entries are terminal: nothing in the pipeline retries them.
package quarantine

import "context"

// Record is the stable dead-letter format. Inspection and replay tooling
// depends on these field names not changing.
type Record struct {
	EntryID         string            `json:"entry_id"`
	OriginalMessage map[string]string `json:"original_message"`
	Error           string            `json:"error"`
}

// Writer appends records to a dead-letter backend.
type Writer interface {
	Write(ctx context.Context, rec Record) error
}
