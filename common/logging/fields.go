package logging

import "log/slog"

// Common field names for consistent logging across services.
const (
	FieldService  = "service"
	FieldVenueID  = "venue_id"
	FieldEntryID  = "entry_id"
	FieldConsumer = "consumer"
	FieldScore    = "score"
	FieldAttempt  = "attempt"
	FieldUserID   = "user_id"
	FieldIP       = "ip"
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldError    = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// VenueID returns a slog attribute for a venue ID.
func VenueID(id string) slog.Attr {
	return slog.String(FieldVenueID, id)
}

// EntryID returns a slog attribute for a stream entry ID.
func EntryID(id string) slog.Attr {
	return slog.String(FieldEntryID, id)
}

// Consumer returns a slog attribute for a consumer identity.
func Consumer(name string) slog.Attr {
	return slog.String(FieldConsumer, name)
}

// Score returns a slog attribute for a hotness score.
func Score(score int) slog.Attr {
	return slog.Int(FieldScore, score)
}

// Attempt returns a slog attribute for a delivery attempt count.
func Attempt(n int64) slog.Attr {
	return slog.Int64(FieldAttempt, n)
}

// UserID returns a slog attribute for the user ID.
func UserID(id string) slog.Attr {
	return slog.String(FieldUserID, id)
}

// IP returns a slog attribute for the client IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
