package call

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

func provisionalEntry(status domain.CallLogStatus) *domain.CallLogCreate {
	return &domain.CallLogCreate{
		Mode:      domain.CallModeVoice,
		Direction: domain.CallDirectionOutgoing,
		Status:    status,
		StartedAt: time.Now(),
	}
}

func TestRecorderBeginShowsProvisional(t *testing.T) {
	r := NewRecorder(&fakeSink{})

	r.Begin("tmp-1", provisionalEntry(domain.CallStatusDialing))

	entries := r.List()
	require.Len(t, entries, 1)
	assert.Equal(t, "tmp-1", entries[0].TempID)
	assert.False(t, entries[0].Final)
	assert.Nil(t, entries[0].Record)
	assert.Equal(t, domain.CallStatusDialing, entries[0].Provisional.Status)
}

func TestRecorderNewestFirst(t *testing.T) {
	r := NewRecorder(&fakeSink{})

	r.Begin("tmp-1", provisionalEntry(domain.CallStatusDialing))
	r.Begin("tmp-2", provisionalEntry(domain.CallStatusRinging))

	entries := r.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "tmp-2", entries[0].TempID)
	assert.Equal(t, "tmp-1", entries[1].TempID)
}

func TestRecorderFinalizeReplacesEntry(t *testing.T) {
	sink := &fakeSink{}
	r := NewRecorder(sink)

	r.Begin("tmp-1", provisionalEntry(domain.CallStatusDialing))

	final := provisionalEntry(domain.CallStatusCompleted)
	record := r.Finalize(context.Background(), "tmp-1", final)
	require.NotNil(t, record)
	assert.Equal(t, "tmp-1", record.TempID)

	entries := r.List()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Final)
	assert.Nil(t, entries[0].Provisional)
	assert.Equal(t, domain.CallStatusCompleted, entries[0].Record.Status)

	assert.Len(t, sink.createdRecords(), 1)
}

func TestRecorderFinalizeExactlyOnce(t *testing.T) {
	sink := &fakeSink{}
	r := NewRecorder(sink)

	r.Begin("tmp-1", provisionalEntry(domain.CallStatusDialing))

	first := r.Finalize(context.Background(), "tmp-1", provisionalEntry(domain.CallStatusCompleted))
	second := r.Finalize(context.Background(), "tmp-1", provisionalEntry(domain.CallStatusCancelled))

	assert.NotNil(t, first)
	assert.Nil(t, second)
	assert.Len(t, sink.createdRecords(), 1)
}

func TestRecorderFinalizeUnknownTempID(t *testing.T) {
	sink := &fakeSink{}
	r := NewRecorder(sink)

	record := r.Finalize(context.Background(), "no-such", provisionalEntry(domain.CallStatusCompleted))
	assert.Nil(t, record)
	assert.Empty(t, sink.createdRecords())
}

func TestRecorderSinkFailureKeepsProvisional(t *testing.T) {
	sink := &fakeSink{err: fmt.Errorf("backend down")}
	r := NewRecorder(sink)

	r.Begin("tmp-1", provisionalEntry(domain.CallStatusDialing))

	record := r.Finalize(context.Background(), "tmp-1", provisionalEntry(domain.CallStatusCompleted))
	assert.Nil(t, record)

	// the entry stays in the local list with the terminal status, never
	// replaced by a durable record
	entries := r.List()
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Record)
	require.NotNil(t, entries[0].Provisional)
	assert.Equal(t, domain.CallStatusCompleted, entries[0].Provisional.Status)
}

func TestRecorderMarkOngoing(t *testing.T) {
	r := NewRecorder(&fakeSink{})

	r.Begin("tmp-1", provisionalEntry(domain.CallStatusRinging))
	r.MarkOngoing("tmp-1")

	entries := r.List()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CallStatusOngoing, entries[0].Provisional.Status)
}
