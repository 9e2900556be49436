package application

import (
	"context"

	"promptcanvas/internal/domain"
)

// ImageProvider は、画像生成APIを1回呼び出すクライアントのインターフェースです
// リトライはクライアントの内側で行われます
type ImageProvider interface {
	// GenerateImage は、プロンプト（と任意の参照画像）から生の応答を返します
	GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.ProviderResponse, error)
}

// TextProvider は、テキスト応答を返すクライアントのインターフェースです
type TextProvider interface {
	// GenerateText は、プロンプトに対するテキスト応答を返します
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiClient は、画像とテキストの両方を扱えるクライアントです
type GeminiClient interface {
	ImageProvider
	TextProvider
}
