package application

import (
	"context"

	"promptcanvas/internal/domain"
)

const (
	// DefaultHistoryCount は/historyで件数が省略された場合の件数です
	DefaultHistoryCount = 5
	// MaxHistoryCount は/historyで表示できる最大件数です
	MaxHistoryCount = 20
)

// HistoryService は、生成履歴の参照を担当します
type HistoryService struct {
	repo domain.HistoryRepository
}

// NewHistoryService は新しいHistoryServiceインスタンスを作成します
func NewHistoryService(repo domain.HistoryRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// Recent は、新しい順に最大count件の履歴を返します
// countは1からMaxHistoryCountの範囲に丸められ、0以下は既定値になります
func (s *HistoryService) Recent(ctx context.Context, count int) ([]domain.HistoryEntry, error) {
	return s.repo.List(ctx, ClampHistoryCount(count))
}

// ClampHistoryCount は件数を有効な範囲に丸めます
func ClampHistoryCount(count int) int {
	if count <= 0 {
		return DefaultHistoryCount
	}
	if count > MaxHistoryCount {
		return MaxHistoryCount
	}
	return count
}
