package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docket/core"
)

// User-facing messages attached to results and errors.
const (
	MessageSaved       = "JSON successfully saved"
	MessageNoInput     = "No input for JSON"
	MessageInvalidJSON = "Input is not valid JSON"
	MessageWriteFailed = "Failed to write document"
)

// DocumentWriter persists documents. *docket.Client satisfies it.
type DocumentWriter interface {
	Upsert(ctx context.Context, doc *core.Document, expectedVersion string) (*core.Document, string, error)
}

// Result is a successful submission.
type Result struct {
	Document  *core.Document // Persisted document, system fields included
	Formatted string         // Document as two-space indented JSON
	Version   string         // Version token of the stored revision
	Message   string
}

// Gateway is the boundary between untrusted text and the store. It holds
// no state between calls and is safe for concurrent use.
type Gateway struct {
	writer DocumentWriter
	logger *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// New creates a gateway that writes through writer.
func New(writer DocumentWriter, opts ...Option) (*Gateway, error) {
	if writer == nil {
		return nil, ErrWriterRequired
	}

	g := &Gateway{
		writer: writer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Submit validates rawText, parses it as a JSON object and upserts it.
// An _etag member makes the write conditional on that version token.
//
// Errors are *SubmitError values carrying rawText, and match one of:
//   - ErrInvalidInput: rawText is empty or whitespace
//   - ErrMalformedJSON: rawText is not a JSON object, or _etag is not a string
//   - ErrWriteFailed: the store did not apply the write; the wrapped store
//     error (storage.ErrConflict, storage.ErrStoreUnavailable, ...) also matches
//
// Nothing is written unless parsing succeeds.
func (g *Gateway) Submit(ctx context.Context, rawText string) (*Result, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, &SubmitError{Input: rawText, Message: MessageNoInput, Err: ErrInvalidInput}
	}

	doc, err := core.ParseDocument(rawText)
	if err != nil {
		g.logger.Debug("rejected malformed input", "err", err)
		return nil, &SubmitError{
			Input:   rawText,
			Message: MessageInvalidJSON,
			Err:     fmt.Errorf("%w: %w", ErrMalformedJSON, err),
		}
	}

	expectedVersion, err := extractVersion(doc)
	if err != nil {
		return nil, &SubmitError{
			Input:   rawText,
			Message: MessageInvalidJSON,
			Err:     fmt.Errorf("%w: %w", ErrMalformedJSON, err),
		}
	}

	stored, version, err := g.writer.Upsert(ctx, doc, expectedVersion)
	if err != nil {
		g.logger.Warn("document write failed", "conditional", expectedVersion != "", "err", err)
		return nil, &SubmitError{
			Input:   rawText,
			Message: MessageWriteFailed,
			Err:     fmt.Errorf("%w: %w", ErrWriteFailed, err),
		}
	}

	formatted, err := stored.MarshalIndent()
	if err != nil {
		return nil, &SubmitError{
			Input:   rawText,
			Message: MessageWriteFailed,
			Err:     fmt.Errorf("format stored document: %w", err),
		}
	}

	id, _ := stored.ID()
	g.logger.Info("document saved", "id", id, "version", version)
	return &Result{
		Document:  stored,
		Formatted: string(formatted),
		Version:   version,
		Message:   MessageSaved,
	}, nil
}

// extractVersion returns the _etag member as the expected version.
// An empty string means the write is unconditional.
func extractVersion(doc *core.Document) (string, error) {
	v, ok := doc.Get(core.FieldETag)
	if !ok {
		return "", nil
	}
	s, ok := v.AsString()
	if !ok {
		return "", core.ErrInvalidETag
	}
	return s, nil
}
