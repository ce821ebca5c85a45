// Package ledger remembers which capture files were already shadowed so
// that redelivered notifications do not resubmit traffic.
package ledger

import (
	"context"
	"sync"
	"time"
)

// Entry describes one fully processed capture file. A file is identified by
// bucket, key and size; a rewritten object with a new size is processed
// again.
type Entry struct {
	Bucket      string
	Key         string
	Size        int64
	Model       string
	VersionID   int64
	Processed   int
	Rejected    int
	ProcessedAt time.Time
}

// Ledger records processed capture files.
type Ledger interface {
	Seen(ctx context.Context, bucket, key string, size int64) (bool, error)
	Mark(ctx context.Context, entry Entry) error
	Close() error
}

type fileKey struct {
	bucket string
	key    string
	size   int64
}

// MemoryLedger keeps entries for the lifetime of the process.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[fileKey]Entry
}

// NewMemoryLedger returns an empty in-process ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[fileKey]Entry)}
}

func (l *MemoryLedger) Seen(_ context.Context, bucket, key string, size int64) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[fileKey{bucket, key, size}]
	return ok, nil
}

func (l *MemoryLedger) Mark(_ context.Context, entry Entry) error {
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[fileKey{entry.Bucket, entry.Key, entry.Size}] = entry
	return nil
}

// Entries returns a snapshot of all recorded entries.
func (l *MemoryLedger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	return out
}

func (l *MemoryLedger) Close() error { return nil }
