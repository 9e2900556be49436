package application

import (
	"context"
	"fmt"
	"log/slog"

	"promptcanvas/internal/domain"
)

// AskService は、テキストの質問をGeminiに送り応答を返すアプリケーションサービスです
// 応答は履歴に保存しません
type AskService struct {
	provider TextProvider
	logger   *slog.Logger
}

// NewAskService は新しいAskServiceインスタンスを作成します
func NewAskService(provider TextProvider, logger *slog.Logger) *AskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskService{provider: provider, logger: logger}
}

// Ask は質問に対する応答を返します
func (s *AskService) Ask(ctx context.Context, question string) (string, error) {
	req, err := domain.NewGenerationRequest(question)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "質問を処理中", "chars", len(req.Prompt))

	answer, err := s.provider.GenerateText(ctx, req.Prompt)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("Gemini APIからの応答取得がタイムアウトしました: %w", err)
		}
		return "", fmt.Errorf("Gemini APIからの応答取得に失敗: %w", err)
	}

	s.logger.InfoContext(ctx, "Gemini APIからの応答を取得", "chars", len(answer))
	return answer, nil
}
