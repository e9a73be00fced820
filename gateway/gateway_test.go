package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/docket"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingWriter fails every call with err and records what it was given.
type recordingWriter struct {
	err      error
	calls    int
	expected string
}

func (w *recordingWriter) Upsert(_ context.Context, _ *core.Document, expectedVersion string) (*core.Document, string, error) {
	w.calls++
	w.expected = expectedVersion
	return nil, "", w.err
}

func newClientGateway(t *testing.T) (*Gateway, *docket.Client) {
	t.Helper()
	client, err := docket.NewClient()
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	gw, err := New(client)
	require.NoError(t, err)
	return gw, client
}

func requireSubmitError(t *testing.T, err error, sentinel error, input string) *SubmitError {
	t.Helper()
	require.ErrorIs(t, err, sentinel)
	var submitErr *SubmitError
	require.True(t, errors.As(err, &submitErr), "error should be a *SubmitError")
	assert.Equal(t, input, submitErr.Input)
	return submitErr
}

func TestNew_RequiresWriter(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrWriterRequired)
}

func TestSubmit_InvalidInput(t *testing.T) {
	writer := &recordingWriter{}
	gw, err := New(writer)
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "\n\t "} {
		_, err := gw.Submit(context.Background(), input)
		submitErr := requireSubmitError(t, err, ErrInvalidInput, input)
		assert.Equal(t, MessageNoInput, submitErr.Message)
	}
	assert.Zero(t, writer.calls)
}

func TestSubmit_MalformedJSON(t *testing.T) {
	writer := &recordingWriter{}
	gw, err := New(writer)
	require.NoError(t, err)

	inputs := []string{
		"{not json",
		`{"a": 1} trailing`,
		"null",
		"[]",
		"1",
		`"text"`,
		`{"id": "a", "_etag": 42}`,
		`{"id": "a", "_etag": null}`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := gw.Submit(context.Background(), input)
			submitErr := requireSubmitError(t, err, ErrMalformedJSON, input)
			assert.Equal(t, MessageInvalidJSON, submitErr.Message)
		})
	}
	assert.Zero(t, writer.calls, "nothing is written for malformed input")
}

func TestSubmit_DeepNesting(t *testing.T) {
	writer := &recordingWriter{}
	gw, err := New(writer)
	require.NoError(t, err)

	depth := core.MaxDepth + 1
	input := `{"id": "deep", "v": ` + strings.Repeat("[", depth) + strings.Repeat("]", depth) + "}"
	_, err = gw.Submit(context.Background(), input)
	submitErr := requireSubmitError(t, err, ErrMalformedJSON, input)
	assert.Equal(t, MessageInvalidJSON, submitErr.Message)
	assert.ErrorIs(t, err, core.ErrInvalidJSON)
	assert.Zero(t, writer.calls)
}

func TestSubmit_WriteFailed(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
	}{
		{"conflict", fmt.Errorf("%w: stale", storage.ErrConflict)},
		{"unavailable", fmt.Errorf("%w: disk full", storage.ErrStoreUnavailable)},
		{"provisioning", fmt.Errorf("%w: open store", storage.ErrProvisioning)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &recordingWriter{err: tt.storeErr}
			gw, err := New(writer)
			require.NoError(t, err)

			input := `{"id": "a", "_etag": "v1"}`
			_, err = gw.Submit(context.Background(), input)
			submitErr := requireSubmitError(t, err, ErrWriteFailed, input)
			assert.ErrorIs(t, err, tt.storeErr)
			assert.Equal(t, MessageWriteFailed, submitErr.Message)
			assert.Equal(t, "v1", writer.expected)
		})
	}
}

func TestSubmit_EmptyETagIsUnconditional(t *testing.T) {
	writer := &recordingWriter{err: storage.ErrStoreUnavailable}
	gw, err := New(writer)
	require.NoError(t, err)

	_, _ = gw.Submit(context.Background(), `{"id": "a", "_etag": ""}`)
	assert.Equal(t, 1, writer.calls)
	assert.Empty(t, writer.expected)
}

func TestSubmit_Success(t *testing.T) {
	gw, client := newClientGateway(t)
	ctx := context.Background()

	res, err := gw.Submit(ctx, `{"id": "a", "foo": "bar"}`)
	require.NoError(t, err)
	assert.Equal(t, MessageSaved, res.Message)
	assert.NotEmpty(t, res.Version)
	assert.Contains(t, res.Formatted, "\n  \"foo\": \"bar\"")

	etag, ok := res.Document.ETag()
	require.True(t, ok)
	assert.Equal(t, res.Version, etag)

	stored, err := client.Get(ctx, "a")
	require.NoError(t, err)
	storedETag, _ := stored.ETag()
	assert.Equal(t, res.Version, storedETag)
}

func TestSubmit_OptimisticUpdate(t *testing.T) {
	gw, client := newClientGateway(t)
	ctx := context.Background()

	first, err := gw.Submit(ctx, `{"id": "a", "foo": "bar"}`)
	require.NoError(t, err)

	second, err := gw.Submit(ctx, fmt.Sprintf(`{"id": "a", "_etag": %q, "foo": "baz"}`, first.Version))
	require.NoError(t, err)
	assert.NotEqual(t, first.Version, second.Version)

	stored, err := client.Get(ctx, "a")
	require.NoError(t, err)
	foo, _ := stored.Get("foo")
	assert.True(t, foo.Equal(core.String("baz")))

	stale := fmt.Sprintf(`{"id": "a", "_etag": %q, "foo": "qux"}`, first.Version)
	_, err = gw.Submit(ctx, stale)
	requireSubmitError(t, err, ErrWriteFailed, stale)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestSubmitError_Message(t *testing.T) {
	err := &SubmitError{Input: "x", Message: MessageWriteFailed, Err: ErrWriteFailed}
	assert.Equal(t, "Failed to write document: write failed", err.Error())
	assert.ErrorIs(t, err, ErrWriteFailed)
}
