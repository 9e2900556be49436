package history

import (
	"context"
	"sync"

	"promptcanvas/internal/domain"
)

// MemoryStore は、メモリ上に履歴を保持する実装です
// プロセスの終了とともに履歴は失われます
type MemoryStore struct {
	entries    []domain.HistoryEntry
	maxEntries int
	mutex      sync.RWMutex
}

var _ domain.HistoryRepository = (*MemoryStore)(nil)

// NewMemoryStore は新しいMemoryStoreを作成します
// maxEntriesが0以下の場合は上限を設けません
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{maxEntries: maxEntries}
}

// Append は、履歴エントリを末尾に追記します
func (r *MemoryStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	if ctx.Err() != nil {
		return domain.Wrap(domain.ErrPersistence, ctx.Err())
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.entries = append(r.entries, entry)
	if r.maxEntries > 0 && len(r.entries) > r.maxEntries {
		r.entries = append([]domain.HistoryEntry(nil), r.entries[len(r.entries)-r.maxEntries:]...)
	}
	return nil
}

// List は、新しい順に最大limit件を返します
func (r *MemoryStore) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return newestFirst(r.entries, limit), nil
}

// newestFirst は、古い順のentriesから新しい順に最大limit件をコピーして返します
func newestFirst(entries []domain.HistoryEntry, limit int) []domain.HistoryEntry {
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	out := make([]domain.HistoryEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out
}
