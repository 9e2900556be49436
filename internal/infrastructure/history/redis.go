package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"promptcanvas/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "promptcanvas:history"

// RedisStore は、Redisのリストに履歴を追記する実装です
// RPUSHとLTRIMを1つのトランザクションで実行し、最新maxEntries件だけを保持します
type RedisStore struct {
	client     *redis.Client
	key        string
	maxEntries int64
	logger     *slog.Logger
}

var _ domain.HistoryRepository = (*RedisStore)(nil)

// NewRedisClient は、host:port または redis:// URLからクライアントを作成して疎通を確認します
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("Redis URLの解析に失敗: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
	}
	return client, nil
}

// NewRedisStore は新しいRedisStoreを作成します
func NewRedisStore(client *redis.Client, key string, maxEntries int, logger *slog.Logger) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, key: key, maxEntries: int64(maxEntries), logger: logger}
}

// Append は、エントリをJSONとしてリスト末尾に追加します
func (s *RedisStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return domain.Wrap(domain.ErrPersistence, fmt.Errorf("履歴のエンコードに失敗: %w", err))
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, data)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, s.key, -s.maxEntries, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Wrap(domain.ErrPersistence, err)
	}
	return nil
}

// List は、新しい順に最大limit件を返します
func (s *RedisStore) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.client.LRange(ctx, s.key, start, -1).Result()
	if err != nil {
		return nil, domain.Wrap(domain.ErrPersistence, err)
	}

	out := make([]domain.HistoryEntry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			s.logger.WarnContext(ctx, "壊れた履歴を読み飛ばしました", "key", s.key, "error", err)
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Close は、Redisクライアントを閉じます
func (s *RedisStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
