package domain

import "context"

// HistoryRepository は、生成履歴を追記専用で永続化するためのインターフェースです
type HistoryRepository interface {
	// Append は、履歴エントリを1件追記します
	Append(ctx context.Context, entry HistoryEntry) error

	// List は、新しい順に最大limit件の履歴を返します
	List(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// ImageStore は、抽出した画像を保存して表示用の参照を返すインターフェースです
type ImageStore interface {
	// Save は、画像を保存してファイルURIまたはデータURIを返します
	Save(ctx context.Context, img ExtractedImage) (string, error)
}
