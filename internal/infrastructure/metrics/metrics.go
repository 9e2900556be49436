package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FetchMetrics は、リトライ付きHTTP呼び出しの計測値を記録します
type FetchMetrics interface {
	ObserveAttempt(status string)
	IncRetry()
	IncExhausted()
}

// GenerationMetrics は、生成パイプラインの計測値を記録します
type GenerationMetrics interface {
	IncGeneration(flow, state string)
	IncImagesStored(flow string)
	IncPersistenceFailure(stage string)
	ObserveGenerationDuration(flow string, seconds float64)
}

// Noop は何も記録しない実装です
type Noop struct{}

func (Noop) ObserveAttempt(string)                     {}
func (Noop) IncRetry()                                 {}
func (Noop) IncExhausted()                             {}
func (Noop) IncGeneration(string, string)              {}
func (Noop) IncImagesStored(string)                    {}
func (Noop) IncPersistenceFailure(string)              {}
func (Noop) ObserveGenerationDuration(string, float64) {}

// Prom はPrometheusのカウンタとヒストグラムで計測値を記録します
type Prom struct {
	fetchAttempts       *prometheus.CounterVec
	fetchRetries        prometheus.Counter
	fetchExhausted      prometheus.Counter
	generations         *prometheus.CounterVec
	imagesStored        *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	generationDuration  *prometheus.HistogramVec
}

// NewProm は、regに登録済みのPromを作成します
// regがnilの場合はprometheus.DefaultRegistererを使います
func NewProm(namespace string, reg prometheus.Registerer) *Prom {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prom{
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "HTTP attempts against the generation API by status",
		}, []string{"status"}),
		fetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Retries scheduled after a retryable status",
		}),
		fetchExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_exhausted_total",
			Help:      "Calls that failed after exhausting the retry budget",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation batches by flow and final state",
		}, []string{"flow", "state"}),
		imagesStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_stored_total",
			Help:      "Images persisted and returned to the user",
		}, []string{"flow"}),
		persistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Best-effort persistence failures by stage",
		}, []string{"stage"}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of a generation batch",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"flow"}),
	}
	reg.MustRegister(
		p.fetchAttempts,
		p.fetchRetries,
		p.fetchExhausted,
		p.generations,
		p.imagesStored,
		p.persistenceFailures,
		p.generationDuration,
	)
	return p
}

func (p *Prom) ObserveAttempt(status string) {
	p.fetchAttempts.WithLabelValues(status).Inc()
}

func (p *Prom) IncRetry() {
	p.fetchRetries.Inc()
}

func (p *Prom) IncExhausted() {
	p.fetchExhausted.Inc()
}

func (p *Prom) IncGeneration(flow, state string) {
	p.generations.WithLabelValues(flow, state).Inc()
}

func (p *Prom) IncImagesStored(flow string) {
	p.imagesStored.WithLabelValues(flow).Inc()
}

func (p *Prom) IncPersistenceFailure(stage string) {
	p.persistenceFailures.WithLabelValues(stage).Inc()
}

func (p *Prom) ObserveGenerationDuration(flow string, seconds float64) {
	p.generationDuration.WithLabelValues(flow).Observe(seconds)
}

// Handler は、gathererの内容を公開する/metricsハンドラを返します
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
