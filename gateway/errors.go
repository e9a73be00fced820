package gateway

import "errors"

var (
	// ErrInvalidInput indicates empty or missing input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedJSON indicates input that is not a JSON object.
	ErrMalformedJSON = errors.New("malformed JSON")

	// ErrWriteFailed indicates the store rejected or failed the write.
	// It wraps the store error, so errors.Is also matches
	// storage.ErrConflict or storage.ErrStoreUnavailable.
	ErrWriteFailed = errors.New("write failed")

	// ErrWriterRequired is returned when a gateway is created without a writer.
	ErrWriterRequired = errors.New("document writer required")
)

// SubmitError is returned by Submit. It keeps the original input so the
// caller can show it again for correction.
type SubmitError struct {
	Input   string // Raw text as submitted
	Message string // Short user-facing description
	Err     error  // Sentinel chain, e.g. ErrWriteFailed wrapping storage.ErrConflict
}

func (e *SubmitError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
