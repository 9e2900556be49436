package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"promptcanvas/internal/domain"
)

// MockImageProvider は、呼び出し順にresponsesを返すテスト用のモックです
type MockImageProvider struct {
	responses []mockResult
	calls     atomic.Int32

	mu       sync.Mutex
	requests []domain.GenerationRequest
}

type mockResult struct {
	resp *domain.ProviderResponse
	err  error
}

func (m *MockImageProvider) GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.ProviderResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	n := int(m.calls.Add(1)) - 1
	if len(m.responses) == 0 {
		return nil, errors.New("no response configured")
	}
	r := m.responses[n%len(m.responses)]
	return r.resp, r.err
}

func (m *MockImageProvider) Requests() []domain.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.GenerationRequest(nil), m.requests...)
}

// MockTextProvider は、テスト用のモックテキストクライアントです
type MockTextProvider struct {
	response string
	err      error
	prompts  []string
}

func (m *MockTextProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

// MockImageStore は、保存に失敗させられるテスト用のストアです
type MockImageStore struct {
	mu    sync.Mutex
	saved []domain.ExtractedImage
	err   error
}

func (m *MockImageStore) Save(ctx context.Context, img domain.ExtractedImage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, img)
	return "data:" + img.MimeType + ";base64," + img.Base64Payload, nil
}

// FailingHistory は、常に追記に失敗する履歴リポジトリです
type FailingHistory struct {
	attempts atomic.Int32
}

func (f *FailingHistory) Append(ctx context.Context, entry domain.HistoryEntry) error {
	f.attempts.Add(1)
	return domain.Wrap(domain.ErrPersistence, errors.New("disk full"))
}

func (f *FailingHistory) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	return nil, nil
}

// RecordingMetrics は、生成パイプラインの計測値を記録します
type RecordingMetrics struct {
	mu                  sync.Mutex
	generations         map[string]int
	imagesStored        int
	persistenceFailures map[string]int
	durations           int
}

func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{generations: map[string]int{}, persistenceFailures: map[string]int{}}
}

func (m *RecordingMetrics) IncGeneration(flow, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[flow+"/"+state]++
}

func (m *RecordingMetrics) IncImagesStored(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imagesStored++
}

func (m *RecordingMetrics) IncPersistenceFailure(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistenceFailures[stage]++
}

func (m *RecordingMetrics) ObserveGenerationDuration(string, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations++
}

// imageResponse は、1枚の画像を含む応答を返します
func imageResponse(mime, payload string) *domain.ProviderResponse {
	return &domain.ProviderResponse{Candidates: []domain.Candidate{{
		Content: &domain.Content{Parts: []domain.Part{
			{Text: "ok"},
			{InlineData: &domain.InlineData{MimeType: mime, Data: payload}},
		}},
	}}}
}

// textOnlyResponse は、画像を含まない応答を返します
func textOnlyResponse() *domain.ProviderResponse {
	return &domain.ProviderResponse{Candidates: []domain.Candidate{{
		Content: &domain.Content{Parts: []domain.Part{{Text: "I cannot draw that"}}},
	}}}
}

func ok(resp *domain.ProviderResponse) mockResult { return mockResult{resp: resp} }
func fail(err error) mockResult                   { return mockResult{err: err} }
