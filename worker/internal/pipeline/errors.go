package pipeline

// DecodeError marks a stream entry whose fields cannot be turned into a
// transaction event. Decode failures are permanent: redelivery cannot fix
// malformed data. They still pass through the retry counter because the
// pipeline has no metadata to tell permanent failures from transient ones.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	if e == nil || e.Err == nil {
		return "decode entry failed"
	}
	return "decode entry failed: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
