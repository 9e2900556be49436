package attachment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"promptcanvas/internal/domain"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// DefaultMaxBytes は、ダウンロードする添付画像の上限サイズです
const DefaultMaxBytes = 8 << 20

// Downloader は、添付画像を安全性を確認したうえで取得します
type Downloader struct {
	client   httpkit.ClientInterface
	guard    *Guard
	maxBytes int64
}

// NewDownloader は新しいDownloaderを作成します
// clientにはGuard.HTTPClientを使うhttpkitのクライアントを渡します
func NewDownloader(client httpkit.ClientInterface, guard *Guard) *Downloader {
	if guard == nil {
		guard = NewGuard(nil)
	}
	return &Downloader{client: client, guard: guard, maxBytes: guard.maxBytes}
}

// Fetch は、URLの画像を取得してInlineImageを返します
// 画像以外の内容や上限を超えるサイズはErrInvalidAttachmentになります
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (*domain.InlineImage, error) {
	if err := d.guard.CheckURL(ctx, rawURL); err != nil {
		return nil, err
	}

	data, err := d.client.FetchBytes(ctx, rawURL)
	if err != nil {
		// リダイレクト先の拒否やリトライ上限はそのまま返す
		var de *domain.DomainError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.Wrap(domain.ErrUpstream, fmt.Errorf("添付画像の取得に失敗: %w", err))
	}
	if int64(len(data)) > d.maxBytes {
		return nil, domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("添付画像が大きすぎます (最大%dバイト)", d.maxBytes))
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, domain.Wrap(domain.ErrInvalidAttachment, fmt.Errorf("画像ではありません: %s", mimeType))
	}
	return &domain.InlineImage{MimeType: mimeType, Data: data}, nil
}
