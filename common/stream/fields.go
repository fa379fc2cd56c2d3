package stream

// Field names for transaction entries. These are the wire contract between
// the ingestion gateway appending entries and the workers decoding them;
// changing one side without the other strands in-flight entries.
const (
	FieldVenueID    = "venue_id"
	FieldTimestamp  = "timestamp"
	FieldQuantity   = "transaction_count"
	FieldRawPayload = "raw_payload"
)
