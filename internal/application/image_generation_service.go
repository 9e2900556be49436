package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"promptcanvas/internal/domain"
	"promptcanvas/internal/infrastructure/metrics"
)

const (
	// FlowImagine はプロンプトからの画像生成です
	FlowImagine = "imagine"
	// FlowRetro は写真からのレトロ画像生成です
	FlowRetro = "retro"

	// DefaultFanOut は1プロンプトあたりの同時呼び出し数の既定値です
	DefaultFanOut = 3
)

// ServiceOption はImageGenerationServiceの設定を変更します
type ServiceOption func(*ImageGenerationService)

// WithLogger はロガーを指定します
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *ImageGenerationService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics は計測先を指定します
func WithMetrics(m metrics.GenerationMetrics) ServiceOption {
	return func(s *ImageGenerationService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock は、履歴の作成時刻に使う時刻の取得元を差し替えます
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ImageGenerationService) {
		if now != nil {
			s.now = now
		}
	}
}

// ImageGenerationService は、1つのプロンプトをN回並列に生成し、画像の保存と履歴の記録を行います
type ImageGenerationService struct {
	provider ImageProvider
	store    domain.ImageStore
	history  domain.HistoryRepository
	fanOut   int
	logger   *slog.Logger
	metrics  metrics.GenerationMetrics
	now      func() time.Time
}

// NewImageGenerationService は新しいImageGenerationServiceインスタンスを作成します
// fanOutが0以下の場合はDefaultFanOutを使います
func NewImageGenerationService(
	provider ImageProvider,
	store domain.ImageStore,
	history domain.HistoryRepository,
	fanOut int,
	opts ...ServiceOption,
) *ImageGenerationService {
	if fanOut <= 0 {
		fanOut = DefaultFanOut
	}
	s := &ImageGenerationService{
		provider: provider,
		store:    store,
		history:  history,
		fanOut:   fanOut,
		logger:   slog.Default(),
		metrics:  metrics.Noop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FanOut は同時呼び出し数を返します
func (s *ImageGenerationService) FanOut() int {
	return s.fanOut
}

// Generate は、プロンプトから画像を生成します
// プロンプトが空の場合はAPIを呼び出さずにErrEmptyPromptを返します
// 生成の失敗はエラーではなく、GenerationResultのStateとErrで表されます
func (s *ImageGenerationService) Generate(ctx context.Context, prompt string, style domain.ImageStyle) (*domain.GenerationResult, error) {
	req, err := domain.NewGenerationRequest(prompt)
	if err != nil {
		return nil, err
	}
	display := req.Prompt
	req.Prompt = style.Apply(req.Prompt)

	requests := make([]domain.GenerationRequest, s.fanOut)
	for i := range requests {
		requests[i] = req
	}

	s.logger.InfoContext(ctx, "画像生成を開始します", "flow", FlowImagine, "fan_out", s.fanOut, "style", style.String())
	return s.run(ctx, FlowImagine, display, requests, func(int) string { return display }), nil
}

// run は、ファンアウト、結合、保存、分類を行うパイプラインの本体です
// historyPromptには保存できた画像の1始まりの連番が渡されます
func (s *ImageGenerationService) run(
	ctx context.Context,
	flow string,
	prompt string,
	requests []domain.GenerationRequest,
	historyPrompt func(n int) string,
) *domain.GenerationResult {
	start := time.Now()
	outcomes := s.dispatch(ctx, requests)

	result := &domain.GenerationResult{Prompt: prompt}
	for _, o := range outcomes {
		if o.Err != nil {
			s.logger.WarnContext(ctx, "生成呼び出しが失敗しました",
				"flow", flow, "index", o.Index, "code", domain.CodeOf(o.Err), "error", o.Err)
			result.Failures = append(result.Failures, o)
			continue
		}

		img, ok := o.Response.FirstImage()
		if !ok {
			s.logger.InfoContext(ctx, "応答に画像が含まれていませんでした", "flow", flow, "index", o.Index)
			continue
		}

		stored, ok := s.persist(ctx, flow, o.Index, img, historyPrompt(len(result.Images)+1))
		if ok {
			result.Images = append(result.Images, stored)
		}
	}

	result.State, result.Err = domain.Classify(len(result.Images), outcomes)
	if result.State == domain.StateSuccess {
		result.Caption = domain.CaptionFor(prompt)
	}

	s.metrics.IncGeneration(flow, result.State.String())
	s.metrics.ObserveGenerationDuration(flow, time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "画像生成が完了しました",
		"flow", flow, "state", result.State.String(), "images", len(result.Images),
		"failures", len(result.Failures), "elapsed", time.Since(start))
	return result
}

// dispatch は、すべての呼び出しを並列に実行して結合します
// 各goroutineは自分の添字の要素だけに書き込みます
func (s *ImageGenerationService) dispatch(ctx context.Context, requests []domain.GenerationRequest) []domain.CallOutcome {
	outcomes := make([]domain.CallOutcome, len(requests))
	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req domain.GenerationRequest) {
			defer wg.Done()
			resp, err := s.provider.GenerateImage(ctx, req)
			outcomes[i] = domain.CallOutcome{Index: i, Response: resp, Err: err}
		}(i, req)
	}
	wg.Wait()
	return outcomes
}

// persist は画像を保存して履歴に追記します
// 画像の保存に失敗した場合はその1枚をスキップし、履歴の失敗はログに残すだけです
func (s *ImageGenerationService) persist(ctx context.Context, flow string, index int, img domain.ExtractedImage, historyPrompt string) (domain.GeneratedImage, bool) {
	data, err := img.Decode()
	if err != nil {
		s.logger.WarnContext(ctx, "画像のデコードに失敗しました", "flow", flow, "index", index, "error", err)
		s.metrics.IncPersistenceFailure("decode")
		return domain.GeneratedImage{}, false
	}

	location, err := s.store.Save(ctx, img)
	if err != nil {
		s.logger.ErrorContext(ctx, "画像の保存に失敗しました", "flow", flow, "index", index, "error", err)
		s.metrics.IncPersistenceFailure("image")
		return domain.GeneratedImage{}, false
	}

	entry := domain.NewImageHistoryEntry(location, historyPrompt, s.now())
	if err := s.history.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "履歴の保存に失敗しました", "flow", flow, "index", index, "location", location, "error", err)
		s.metrics.IncPersistenceFailure("history")
	}

	s.metrics.IncImagesStored(flow)
	return domain.GeneratedImage{
		Index:    index,
		Location: location,
		MimeType: img.MimeType,
		Data:     data,
	}, true
}

// GetSupportedStyles は、サポートされているスタイルのリストを返します
func (s *ImageGenerationService) GetSupportedStyles() []string {
	styles := domain.AllImageStyles()
	result := make([]string, len(styles))
	for i, style := range styles {
		result[i] = style.String()
	}
	return result
}
