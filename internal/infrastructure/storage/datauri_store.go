package storage

import (
	"context"
	"fmt"

	"promptcanvas/internal/domain"
)

// DataURIStore は、ファイルを書かずにデータURIを返します
type DataURIStore struct{}

var _ domain.ImageStore = DataURIStore{}

// NewDataURIStore は新しいDataURIStoreを作成します
func NewDataURIStore() DataURIStore {
	return DataURIStore{}
}

// Save は、ペイロードがデコードできることを確認して data:<mime>;base64,<payload> を返します
func (DataURIStore) Save(ctx context.Context, img domain.ExtractedImage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.Wrap(domain.ErrPersistence, err)
	}
	if _, err := img.Decode(); err != nil {
		return "", domain.Wrap(domain.ErrPersistence, fmt.Errorf("画像のデコードに失敗: %w", err))
	}
	return fmt.Sprintf("data:%s;base64,%s", img.MimeType, img.Base64Payload), nil
}
