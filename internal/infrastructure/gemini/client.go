package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"promptcanvas/internal/domain"
	"promptcanvas/internal/infrastructure/config"
	"promptcanvas/internal/infrastructure/retry"

	"google.golang.org/genai"
)

// SDKClient は、google.golang.org/genaiを使うクライアントです
// genaiのhttp.ClientにはFetcherのTransportを渡してリトライを適用します
type SDKClient struct {
	client *genai.Client
	config *config.GeminiConfig
	logger *slog.Logger
}

// NewSDKClient は新しいSDKClientを作成します
func NewSDKClient(ctx context.Context, geminiConfig *config.GeminiConfig, httpClient *http.Client, logger *slog.Logger) (*SDKClient, error) {
	if geminiConfig == nil {
		geminiConfig = config.DefaultGeminiConfig()
	}
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("Gemini APIキーが設定されていません")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     geminiConfig.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    geminiConfig.BaseURL,
			APIVersion: geminiConfig.APIVersion,
		},
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("Gemini APIクライアントの作成に失敗: %w", err)
	}

	return &SDKClient{client: client, config: geminiConfig, logger: logger}, nil
}

// createGenerateConfig は、生成設定を作成します
func (g *SDKClient) createGenerateConfig(modalities []string) *genai.GenerateContentConfig {
	temperature := g.config.Temperature
	topP := g.config.TopP
	topK := float32(g.config.TopK)
	return &genai.GenerateContentConfig{
		MaxOutputTokens:    g.config.MaxTokens,
		Temperature:        &temperature,
		TopP:               &topP,
		TopK:               &topK,
		ResponseModalities: modalities,
		// 安全フィルターの設定を調整（中程度の制限）
		SafetySettings: []*genai.SafetySetting{
			{
				Category:  genai.HarmCategoryHarassment,
				Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
			},
			{
				Category:  genai.HarmCategoryHateSpeech,
				Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
			},
			{
				Category:  genai.HarmCategorySexuallyExplicit,
				Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
			},
			{
				Category:  genai.HarmCategoryDangerousContent,
				Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
			},
		},
	}
}

// GenerateImage は、画像モデルへ1回の生成を依頼します
func (g *SDKClient) GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.ProviderResponse, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	if req.Reference != nil && len(req.Reference.Data) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{
			MIMEType: req.Reference.MimeType,
			Data:     req.Reference.Data,
		}})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.ImageModelName, contents, g.createGenerateConfig(imageModalities))
	if err != nil {
		return nil, mapSDKError(ctx, err)
	}

	out := toProviderResponse(resp)
	if len(out.Candidates) > 0 {
		g.logger.DebugContext(ctx, "Gemini APIレスポンスを受信しました",
			"candidates", len(out.Candidates), "finish_reason", out.Candidates[0].FinishReason)
	}
	return out, nil
}

// GenerateText は、テキストモデルに質問して応答本文を返します
func (g *SDKClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.config.TextModelName, genai.Text(prompt), g.createGenerateConfig(textModalities))
	if err != nil {
		return "", mapSDKError(ctx, err)
	}

	if len(resp.Candidates) > 0 {
		// FinishReasonをチェックして安全フィルターによるブロックを検出
		switch resp.Candidates[0].FinishReason {
		case genai.FinishReasonSafety:
			return "", domain.NewDomainError(domain.ErrCodeEmptyResult, "Gemini APIの安全フィルターによって応答がブロックされました", nil)
		case genai.FinishReasonRecitation:
			return "", domain.NewDomainError(domain.ErrCodeEmptyResult, "Gemini APIが著作権保護された内容を検出しました", nil)
		}
	}

	text := strings.TrimSpace(toProviderResponse(resp).Text())
	if text == "" {
		return "", domain.NewDomainError(domain.ErrCodeEmptyResult, "Gemini APIの応答にテキストが含まれていません", nil)
	}
	g.logger.DebugContext(ctx, "Gemini APIから応答を取得しました", "chars", len(text))
	return text, nil
}

// Close は、Gemini APIクライアントを閉じます
func (g *SDKClient) Close() error {
	// genai.ClientにはCloseメソッドがないため、何もしない
	return nil
}

// toProviderResponse は、SDKの応答をREST形式と同じドメイン型に変換します
func toProviderResponse(resp *genai.GenerateContentResponse) *domain.ProviderResponse {
	out := &domain.ProviderResponse{}
	if resp == nil {
		return out
	}
	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		candidate := domain.Candidate{FinishReason: string(c.FinishReason)}
		if c.Content != nil {
			content := &domain.Content{Role: c.Content.Role}
			for _, p := range c.Content.Parts {
				if p == nil {
					continue
				}
				part := domain.Part{Text: p.Text}
				if p.InlineData != nil {
					part.InlineData = &domain.InlineData{
						MimeType: p.InlineData.MIMEType,
						Data:     base64.StdEncoding.EncodeToString(p.InlineData.Data),
					}
				}
				content.Parts = append(content.Parts, part)
			}
			candidate.Content = content
		}
		out.Candidates = append(out.Candidates, candidate)
	}
	return out
}

// mapSDKError は、SDKのエラーをドメインのエラーコードに揃えます
func mapSDKError(ctx context.Context, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.Wrap(domain.ErrUpstream, &retry.StatusError{StatusCode: apiErr.Code, Body: apiErr.Message})
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return domain.Wrap(domain.ErrUpstream, &retry.StatusError{StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message})
	}
	if ctx.Err() == context.DeadlineExceeded {
		return domain.Wrap(domain.ErrUpstream, fmt.Errorf("Gemini APIへのリクエストがタイムアウトしました: %w", err))
	}
	return domain.Wrap(domain.ErrUpstream, err)
}
