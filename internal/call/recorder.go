package call

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/pkg/logger"
)

// LogSink persists finalized call records. In production this is the
// call-log service backed by CockroachDB; tests supply an in-memory fake.
type LogSink interface {
	Create(ctx context.Context, entry *domain.CallLogCreate) (*domain.CallLogResponse, error)
}

// HistoryEntry is one row in the local call history view. Provisional
// until the sink returns its authoritative record.
type HistoryEntry struct {
	TempID      string
	Provisional *domain.CallLogCreate
	Record      *domain.CallLogResponse
	Final       bool
}

// Recorder maintains the local call history list with two-phase commit
// semantics: a provisional entry appears the moment a call starts, and is
// replaced in place by the sink's durable record when the session ends.
// Exactly one durable record is produced per finalized tempID.
type Recorder struct {
	sink LogSink

	mu      sync.Mutex
	entries []*HistoryEntry // newest first
}

// NewRecorder creates a Recorder over the given sink
func NewRecorder(sink LogSink) *Recorder {
	return &Recorder{sink: sink}
}

// Begin inserts a provisional entry so the call shows up in history
// immediately, before any round trip to the backend
func (r *Recorder) Begin(tempID string, provisional *domain.CallLogCreate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append([]*HistoryEntry{{
		TempID:      tempID,
		Provisional: provisional,
	}}, r.entries...)
}

// MarkOngoing updates a provisional entry's status once the call connects
func (r *Recorder) MarkOngoing(tempID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.TempID == tempID && !e.Final {
			e.Provisional.Status = domain.CallStatusOngoing
			return
		}
	}
}

// Finalize persists the terminal record for tempID and reconciles the
// local list by swapping the provisional entry for the authoritative one.
// A second Finalize for the same tempID is a no-op. A sink failure leaves
// the provisional entry in place and is not retried.
func (r *Recorder) Finalize(ctx context.Context, tempID string, final *domain.CallLogCreate) *domain.CallLogResponse {
	r.mu.Lock()
	var entry *HistoryEntry
	for _, e := range r.entries {
		if e.TempID == tempID {
			entry = e
			break
		}
	}
	if entry == nil || entry.Final {
		r.mu.Unlock()
		return nil
	}
	entry.Final = true
	r.mu.Unlock()

	record, err := r.sink.Create(ctx, final)
	if err != nil {
		logger.Warn("failed to persist call log", zap.Error(err), zap.String("temp_id", tempID))
		r.mu.Lock()
		entry.Provisional = final
		r.mu.Unlock()
		return nil
	}

	record.TempID = tempID
	r.mu.Lock()
	entry.Record = record
	entry.Provisional = nil
	r.mu.Unlock()

	return record
}

// List returns a copy of the history entries, newest first
func (r *Recorder) List() []*HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*HistoryEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
