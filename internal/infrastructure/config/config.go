package config

import "time"

// GeminiBackend は、生成APIへの接続方式です
type GeminiBackend string

const (
	// BackendREST はJSONを直接POSTする方式です
	BackendREST GeminiBackend = "rest"
	// BackendSDK はgoogle.golang.org/genaiを使う方式です
	BackendSDK GeminiBackend = "sdk"
)

// GeminiConfig は、Gemini API関連の設定を定義します
type GeminiConfig struct {
	APIKey         string
	Backend        GeminiBackend
	BaseURL        string
	APIVersion     string
	ImageModelName string // 画像生成用モデル名
	TextModelName  string // テキスト応答用モデル名
	MaxTokens      int32
	Temperature    float32
	TopP           float32
	TopK           int32
}

// RetryConfig は、一時的なエラーに対するリトライ設定を定義します
type RetryConfig struct {
	MaxAttempts     int           // 初回を含む最大試行回数
	Delay           time.Duration // 固定の待機時間
	RetryableStatus int           // リトライ対象のHTTPステータス
}

// GenerationConfig は、生成パイプラインの設定を定義します
type GenerationConfig struct {
	FanOut         int // 1プロンプトあたりの同時呼び出し数
	RequestTimeout time.Duration
}

// StorageMode は、画像の保存方式です
type StorageMode string

const (
	StorageModeFile    StorageMode = "file"
	StorageModeDataURI StorageMode = "datauri"
)

// StorageConfig は、画像保存の設定を定義します
type StorageConfig struct {
	Mode          StorageMode
	Dir           string
	TranscodeJPEG bool // .jpgで保存する前にJPEGへ再エンコードするか
	JPEGQuality   int
}

// HistoryBackend は、履歴の保存先です
type HistoryBackend string

const (
	HistoryBackendFile   HistoryBackend = "file"
	HistoryBackendRedis  HistoryBackend = "redis"
	HistoryBackendMemory HistoryBackend = "memory"
)

// HistoryConfig は、履歴ストアの設定を定義します
type HistoryConfig struct {
	Backend    HistoryBackend
	FilePath   string
	RedisAddr  string
	RedisKey   string
	MaxEntries int
}

// DiscordConfig は、Discord関連の設定を定義します
type DiscordConfig struct {
	BotToken string
}

// LogConfig は、ログ出力の設定を定義します
type LogConfig struct {
	Level  string
	Format string // "text" または "json"
}

// MetricsConfig は、メトリクス公開の設定を定義します
type MetricsConfig struct {
	Addr      string // 空の場合は公開しない
	Namespace string
}

// DefaultGeminiConfig は、デフォルトのGemini設定を返します
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		Backend:        BackendREST,
		BaseURL:        "https://generativelanguage.googleapis.com",
		APIVersion:     "v1beta",
		ImageModelName: "gemini-2.0-flash-preview-image-generation",
		TextModelName:  "gemini-2.0-flash",
		MaxTokens:      2048,
		Temperature:    0.4,
		TopP:           1,
		TopK:           32,
	}
}

// DefaultRetryConfig は、503を2秒間隔で3回まで試行する設定を返します
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		Delay:           2 * time.Second,
		RetryableStatus: 503,
	}
}
