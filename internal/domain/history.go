package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryKind は履歴エントリの種別です
type HistoryKind string

const (
	HistoryKindImage HistoryKind = "image"
)

// HistoryEntry は、生成結果の履歴を表す値オブジェクトです
// 作成後に変更されることはありません
type HistoryEntry struct {
	ID        string      `json:"id"`
	Kind      HistoryKind `json:"type"`
	Location  string      `json:"content"`
	Prompt    string      `json:"prompt"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewImageHistoryEntry は、画像の履歴エントリを作成します
func NewImageHistoryEntry(location, prompt string, now time.Time) HistoryEntry {
	return HistoryEntry{
		ID:        uuid.NewString(),
		Kind:      HistoryKindImage,
		Location:  location,
		Prompt:    prompt,
		CreatedAt: now.UTC(),
	}
}
