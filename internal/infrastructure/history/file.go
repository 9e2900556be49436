package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"promptcanvas/internal/domain"
)

// FileStore は、1行1エントリのJSON Linesファイルに追記する実装です
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

var _ domain.HistoryRepository = (*FileStore)(nil)

// NewFileStore は、親ディレクトリを作成してFileStoreを返します
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("履歴ファイルのパスが空です")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("履歴ディレクトリの作成に失敗: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Append は、エントリを1行のJSONとして追記します
func (s *FileStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return domain.Wrap(domain.ErrPersistence, err)
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return domain.Wrap(domain.ErrPersistence, fmt.Errorf("履歴のエンコードに失敗: %w", err))
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return domain.Wrap(domain.ErrPersistence, fmt.Errorf("履歴ファイルを開けません: %w", err))
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return domain.Wrap(domain.ErrPersistence, fmt.Errorf("履歴の書き込みに失敗: %w", err))
	}
	if err := f.Close(); err != nil {
		return domain.Wrap(domain.ErrPersistence, err)
	}
	return nil
}

// List は、ファイル全体を読み込んで新しい順に最大limit件を返します
// 壊れた行は読み飛ばします
func (s *FileStore) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, domain.Wrap(domain.ErrPersistence, err)
	}
	defer f.Close()

	var entries []domain.HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry domain.HistoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			s.logger.WarnContext(ctx, "壊れた履歴行を読み飛ばしました", "path", s.path, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.Wrap(domain.ErrPersistence, err)
	}
	return newestFirst(entries, limit), nil
}
