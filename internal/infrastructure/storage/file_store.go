package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"promptcanvas/internal/domain"
)

// FileOption はFileImageStoreの設定を変更します
type FileOption func(*FileImageStore)

// WithJPEGTranscode は、JPEG以外のペイロードを保存前にJPEGへ変換します
func WithJPEGTranscode(quality int) FileOption {
	return func(s *FileImageStore) {
		s.transcode = true
		s.quality = quality
	}
}

// WithClock は、ファイル名に使う時刻の取得元を差し替えます
func WithClock(now func() time.Time) FileOption {
	return func(s *FileImageStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFileLogger はロガーを指定します
func WithFileLogger(l *slog.Logger) FileOption {
	return func(s *FileImageStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// FileImageStore は、画像を image_<unixMillis>.jpg としてディレクトリに保存します
type FileImageStore struct {
	dir       string
	transcode bool
	quality   int
	now       func() time.Time
	logger    *slog.Logger

	mu sync.Mutex // ファイル名の割り当てを保護
}

var _ domain.ImageStore = (*FileImageStore)(nil)

// NewFileImageStore は、dirを作成してFileImageStoreを返します
func NewFileImageStore(dir string, opts ...FileOption) (*FileImageStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("保存先パスの解決に失敗: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("保存先ディレクトリの作成に失敗: %w", err)
	}
	s := &FileImageStore{
		dir:     abs,
		quality: DefaultJPEGQuality,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir は保存先の絶対パスを返します
func (s *FileImageStore) Dir() string {
	return s.dir
}

// Save は、画像を書き込んで file:// URIを返します
func (s *FileImageStore) Save(ctx context.Context, img domain.ExtractedImage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.Wrap(domain.ErrPersistence, err)
	}
	data, err := img.Decode()
	if err != nil {
		return "", domain.Wrap(domain.ErrPersistence, fmt.Errorf("画像のデコードに失敗: %w", err))
	}

	if s.transcode && !isJPEG(img.MimeType) {
		converted, err := TranscodeJPEG(data, s.quality)
		if err != nil {
			s.logger.WarnContext(ctx, "JPEGへの変換に失敗したため元のデータを保存します", "mime_type", img.MimeType, "error", err)
		} else {
			data = converted
		}
	}

	f, err := s.create()
	if err != nil {
		return "", domain.Wrap(domain.ErrPersistence, err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", domain.Wrap(domain.ErrPersistence, fmt.Errorf("画像の書き込みに失敗: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", domain.Wrap(domain.ErrPersistence, fmt.Errorf("画像ファイルのクローズに失敗: %w", err))
	}

	s.logger.DebugContext(ctx, "画像を保存しました", "path", path, "bytes", len(data))
	return fileURI(path), nil
}

// create は、同じミリ秒に重なった場合 _<n> を付けて未使用の名前でファイルを作ります
func (s *FileImageStore) create() (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := fmt.Sprintf("image_%d", s.now().UnixMilli())
	for n := 0; ; n++ {
		name := base + ".jpg"
		if n > 0 {
			name = fmt.Sprintf("%s_%d.jpg", base, n)
		}
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("画像ファイルの作成に失敗: %w", err)
		}
	}
}

func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

// PathFromURI は、file:// URIをローカルパスに戻します
func PathFromURI(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

func isJPEG(mimeType string) bool {
	m := strings.ToLower(mimeType)
	return m == "image/jpeg" || m == "image/jpg"
}
