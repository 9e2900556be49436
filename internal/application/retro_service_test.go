package application

import (
	"context"
	"errors"
	"testing"

	"promptcanvas/internal/domain"
	"promptcanvas/internal/infrastructure/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAttachments struct {
	photo *domain.InlineImage
	err   error
	urls  []string
}

func (s *stubAttachments) Fetch(ctx context.Context, rawURL string) (*domain.InlineImage, error) {
	s.urls = append(s.urls, rawURL)
	return s.photo, s.err
}

func photo() *domain.InlineImage {
	return &domain.InlineImage{MimeType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF, 0xE0}}
}

func TestRetroService_Generate(t *testing.T) {
	provider := &MockImageProvider{responses: []mockResult{ok(imageResponse("image/jpeg", helloPayload))}}
	repo := history.NewMemoryStore(0)
	pipeline := NewImageGenerationService(provider, &MockImageStore{}, repo, 3)
	svc := NewRetroService(pipeline, nil)

	result, err := svc.Generate(context.Background(), photo(), "  Grandpa ")
	require.NoError(t, err)
	assert.Equal(t, domain.StateSuccess, result.State)
	assert.Len(t, result.Images, 3)
	assert.Equal(t, "AI Caption: 「Grandpa」の画像を生成しました", result.Caption)

	prompts := map[string]bool{}
	for _, req := range provider.Requests() {
		require.NotNil(t, req.Reference)
		assert.Equal(t, "image/jpeg", req.Reference.MimeType)
		prompts[req.Prompt] = true
	}
	for _, era := range domain.AllRetroEras() {
		assert.True(t, prompts[domain.RetroPrompt(era)], "era %s requested", era)
	}

	entries, _ := repo.List(context.Background(), 0)
	require.Len(t, entries, 3)
	assert.Equal(t, "Retro version 3 of: Grandpa", entries[0].Prompt)
	assert.Equal(t, "Retro version 1 of: Grandpa", entries[2].Prompt)
}

func TestRetroService_DefaultLabel(t *testing.T) {
	provider := &MockImageProvider{responses: []mockResult{
		ok(imageResponse("image/jpeg", helloPayload)),
		fail(domain.Wrap(domain.ErrUpstream, errors.New("boom"))),
	}}
	repo := history.NewMemoryStore(0)
	svc := NewRetroService(NewImageGenerationService(provider, &MockImageStore{}, repo, 3), nil)

	result, err := svc.Generate(context.Background(), photo(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StateSuccess, result.State)

	entries, _ := repo.List(context.Background(), 0)
	require.Len(t, entries, len(result.Images))
	assert.Equal(t, "Retro version 1 of: Uploaded photo", entries[len(entries)-1].Prompt)
}

func TestRetroService_InvalidPhoto(t *testing.T) {
	provider := &MockImageProvider{}
	svc := NewRetroService(NewImageGenerationService(provider, &MockImageStore{}, history.NewMemoryStore(0), 3), nil)

	for _, p := range []*domain.InlineImage{nil, {MimeType: "image/png"}, {MimeType: "text/plain", Data: []byte("x")}} {
		_, err := svc.Generate(context.Background(), p, "")
		assert.ErrorIs(t, err, domain.ErrInvalidAttachment)
	}
	assert.Equal(t, int32(0), provider.calls.Load())
}

func TestRetroService_GenerateFromURL(t *testing.T) {
	provider := &MockImageProvider{responses: []mockResult{ok(imageResponse("image/jpeg", helloPayload))}}
	attachments := &stubAttachments{photo: photo()}
	svc := NewRetroService(NewImageGenerationService(provider, &MockImageStore{}, history.NewMemoryStore(0), 3), attachments)

	result, err := svc.GenerateFromURL(context.Background(), "https://cdn.example.com/me.jpg", "")
	require.NoError(t, err)
	assert.Len(t, result.Images, 3)
	assert.Equal(t, []string{"https://cdn.example.com/me.jpg"}, attachments.urls)

	attachments.err = domain.Wrap(domain.ErrInvalidAttachment, errors.New("private address"))
	_, err = svc.GenerateFromURL(context.Background(), "http://10.0.0.1/me.jpg", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAttachment)

	noFetcher := NewRetroService(NewImageGenerationService(provider, &MockImageStore{}, history.NewMemoryStore(0), 3), nil)
	_, err = noFetcher.GenerateFromURL(context.Background(), "https://cdn.example.com/me.jpg", "")
	assert.Equal(t, domain.ErrCodeInvalidInput, domain.CodeOf(err))
}
