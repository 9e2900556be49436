package application

import (
	"context"
	"strings"

	"promptcanvas/internal/domain"
)

// AttachmentFetcher は、添付画像のURLから画像本体を取得します
type AttachmentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*domain.InlineImage, error)
}

// RetroService は、アップロードされた写真から年代ごとのレトロ画像を生成します
type RetroService struct {
	pipeline    *ImageGenerationService
	attachments AttachmentFetcher
}

// NewRetroService は新しいRetroServiceインスタンスを作成します
func NewRetroService(pipeline *ImageGenerationService, attachments AttachmentFetcher) *RetroService {
	return &RetroService{pipeline: pipeline, attachments: attachments}
}

// GenerateFromURL は、添付画像を取得してからGenerateを呼び出します
func (s *RetroService) GenerateFromURL(ctx context.Context, rawURL, label string) (*domain.GenerationResult, error) {
	if s.attachments == nil {
		return nil, domain.NewDomainError(domain.ErrCodeInvalidInput, "添付画像を取得できません", nil)
	}
	photo, err := s.attachments.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, photo, label)
}

// Generate は、年代ごとに1回ずつ写真を添えて並列に生成します
func (s *RetroService) Generate(ctx context.Context, photo *domain.InlineImage, label string) (*domain.GenerationResult, error) {
	if photo == nil || len(photo.Data) == 0 || !strings.HasPrefix(photo.MimeType, "image/") {
		return nil, domain.ErrInvalidAttachment
	}

	label = strings.TrimSpace(label)
	display := label
	if display == "" {
		display = "Uploaded photo"
	}

	eras := domain.AllRetroEras()
	requests := make([]domain.GenerationRequest, len(eras))
	for i, era := range eras {
		requests[i] = domain.GenerationRequest{Prompt: domain.RetroPrompt(era), Reference: photo}
	}

	s.pipeline.logger.InfoContext(ctx, "レトロ画像の生成を開始します", "flow", FlowRetro, "eras", len(eras), "bytes", len(photo.Data))
	return s.pipeline.run(ctx, FlowRetro, display, requests, func(n int) string {
		return domain.RetroHistoryPrompt(n, label)
	}), nil
}
