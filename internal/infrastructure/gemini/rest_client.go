package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"promptcanvas/internal/domain"
	"promptcanvas/internal/infrastructure/config"
	"promptcanvas/internal/infrastructure/retry"
)

// RESTClient は、generateContentへJSONを直接POSTするクライアントです
// すべての呼び出しはretry.Fetcherを経由します
type RESTClient struct {
	fetcher *retry.Fetcher
	config  *config.GeminiConfig
	logger  *slog.Logger
}

// NewRESTClient は新しいRESTClientを作成します
func NewRESTClient(geminiConfig *config.GeminiConfig, fetcher *retry.Fetcher, logger *slog.Logger) (*RESTClient, error) {
	if geminiConfig == nil {
		geminiConfig = config.DefaultGeminiConfig()
	}
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Gemini APIキーが設定されていません")
	}
	if fetcher == nil {
		fetcher = retry.NewFetcher(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RESTClient{fetcher: fetcher, config: geminiConfig, logger: logger}, nil
}

// GenerateImage は、画像モデルへ1回の生成を依頼します
func (c *RESTClient) GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.ProviderResponse, error) {
	body := newGenerateRequest(c.config, userParts(req), imageModalities)
	return c.generate(ctx, c.config.ImageModelName, body)
}

// GenerateText は、テキストモデルに質問して応答本文を返します
func (c *RESTClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	body := newGenerateRequest(c.config, []domain.Part{{Text: prompt}}, textModalities)
	resp, err := c.generate(ctx, c.config.TextModelName, body)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", domain.NewDomainError(domain.ErrCodeEmptyResult, "Gemini APIの応答にテキストが含まれていません", nil)
	}
	return text, nil
}

func (c *RESTClient) generate(ctx context.Context, model string, body generateRequest) (*domain.ProviderResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("x-goog-api-key", c.config.APIKey)

	c.logger.DebugContext(ctx, "generateContentを呼び出します", "model", model, "bytes", len(payload))

	resp, err := c.fetcher.Do(ctx, retry.Request{
		Method: http.MethodPost,
		URL:    endpoint(c.config, model),
		Header: header,
		Body:   payload,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out domain.ProviderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.Wrap(domain.ErrUpstream, fmt.Errorf("応答の解析に失敗: %w", err))
	}

	if len(out.Candidates) > 0 {
		c.logger.DebugContext(ctx, "generateContentの応答を受信しました",
			"model", model, "candidates", len(out.Candidates), "finish_reason", out.Candidates[0].FinishReason)
	}
	return &out, nil
}
