package docket

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_BestEffort(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	docs := []*core.Document{
		mustParse(t, `{"id": "d1", "n": 1}`),
		mustParse(t, `{"id": "bad/id", "n": 2}`),
		mustParse(t, `{"id": "d3", "n": 3}`),
	}

	report := client.Seed(ctx, docs)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 1, report.Failures[0].Index)
	assert.Equal(t, "bad/id", report.Failures[0].ID)
	assert.ErrorIs(t, report.Failures[0].Err, core.ErrInvalidDocument)

	for _, id := range []string{"d1", "d3"} {
		_, err := client.Get(ctx, id)
		require.NoError(t, err, id)
	}
}

func TestSeed_NilEntriesCountAsFailures(t *testing.T) {
	client := newTestClient(t)

	report := client.Seed(context.Background(), []*core.Document{nil, mustParse(t, `{"id": "ok"}`)})
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Failures[0].Index)
}

func TestSeed_Empty(t *testing.T) {
	client := newTestClient(t)

	report := client.Seed(context.Background(), nil)
	assert.Zero(t, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Empty(t, report.Failures)
}

func TestSeed_SequentialOrder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	docs := []*core.Document{
		mustParse(t, `{"id": "same", "n": 1}`),
		mustParse(t, `{"id": "same", "n": 2}`),
		mustParse(t, `{"id": "same", "n": 3}`),
	}
	report := client.Seed(ctx, docs)
	require.Equal(t, 3, report.Succeeded)

	doc, err := client.Get(ctx, "same")
	require.NoError(t, err)
	n, _ := doc.Get("n")
	assert.True(t, n.Equal(core.Int(3)), "last entry wins when applied in order")
}

func TestSeed_Concurrent(t *testing.T) {
	client := newTestClient(t, WithSeedWorkers(4))
	ctx := context.Background()

	const count = 50
	docs := make([]*core.Document, count)
	for i := range docs {
		docs[i] = mustParse(t, fmt.Sprintf(`{"id": "doc-%03d", "n": %d}`, i, i))
	}
	docs[17] = mustParse(t, `{"id": ""}`)

	var (
		mu    sync.Mutex
		calls []int
	)
	report := client.Seed(ctx, docs, WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, count, total)
		calls = append(calls, done)
	}))

	assert.Equal(t, count-1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 17, report.Failures[0].Index)

	require.Len(t, calls, count)
	for i, done := range calls {
		assert.Equal(t, i+1, done, "progress is reported in sequence")
	}
}

func TestSeed_StoreFailureIsReported(t *testing.T) {
	client := newTestClient(t, WithEncryptionKey([]byte("bad")))

	report := client.Seed(context.Background(), []*core.Document{
		mustParse(t, `{"id": "a"}`),
		mustParse(t, `{"id": "b"}`),
	})
	assert.Zero(t, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	for _, f := range report.Failures {
		assert.ErrorIs(t, f.Err, storage.ErrProvisioning)
	}
}
