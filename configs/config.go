package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"promptcanvas/internal/infrastructure/config"

	"github.com/joho/godotenv"
)

// Config は、アプリケーション全体の設定を定義します
type Config struct {
	Discord    config.DiscordConfig
	Gemini     config.GeminiConfig
	Retry      config.RetryConfig
	Generation config.GenerationConfig
	Storage    config.StorageConfig
	History    config.HistoryConfig
	Log        config.LogConfig
	Metrics    config.MetricsConfig
}

// LoadConfig は、環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込み（ファイルが存在しない場合は無視）
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "警告: .envファイルの読み込みに失敗しました: %v\n", err)
	}

	cfg := FromEnv()

	// 必須設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv は、現在の環境変数から検証前の設定を組み立てます
func FromEnv() *Config {
	gemini := config.DefaultGeminiConfig()
	retry := config.DefaultRetryConfig()

	return &Config{
		Discord: config.DiscordConfig{
			BotToken: getEnvOrDefault("DISCORD_BOT_TOKEN", ""),
		},
		Gemini: config.GeminiConfig{
			APIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
			Backend:        config.GeminiBackend(getEnvOrDefault("GEMINI_BACKEND", string(gemini.Backend))),
			BaseURL:        getEnvOrDefault("GEMINI_BASE_URL", gemini.BaseURL),
			APIVersion:     getEnvOrDefault("GEMINI_API_VERSION", gemini.APIVersion),
			ImageModelName: getEnvOrDefault("GEMINI_IMAGE_MODEL", gemini.ImageModelName),
			TextModelName:  getEnvOrDefault("GEMINI_TEXT_MODEL", gemini.TextModelName),
			MaxTokens:      int32(getEnvAsIntOrDefault("GEMINI_MAX_TOKENS", int(gemini.MaxTokens))),
			Temperature:    float32(getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", float64(gemini.Temperature))),
			TopP:           float32(getEnvAsFloatOrDefault("GEMINI_TOP_P", float64(gemini.TopP))),
			TopK:           int32(getEnvAsIntOrDefault("GEMINI_TOP_K", int(gemini.TopK))),
		},
		Retry: config.RetryConfig{
			MaxAttempts:     getEnvAsIntOrDefault("RETRY_MAX_ATTEMPTS", retry.MaxAttempts),
			Delay:           getEnvAsDurationOrDefault("RETRY_DELAY", retry.Delay),
			RetryableStatus: getEnvAsIntOrDefault("RETRY_STATUS", retry.RetryableStatus),
		},
		Generation: config.GenerationConfig{
			FanOut:         getEnvAsIntOrDefault("GENERATION_FANOUT", 3),
			RequestTimeout: getEnvAsDurationOrDefault("REQUEST_TIMEOUT", 120*time.Second),
		},
		Storage: config.StorageConfig{
			Mode:          config.StorageMode(getEnvOrDefault("STORAGE_MODE", string(config.StorageModeFile))),
			Dir:           getEnvOrDefault("STORAGE_DIR", "./data/images"),
			TranscodeJPEG: getEnvAsBoolOrDefault("STORAGE_TRANSCODE_JPEG", true),
			JPEGQuality:   getEnvAsIntOrDefault("STORAGE_JPEG_QUALITY", 90),
		},
		History: config.HistoryConfig{
			Backend:    config.HistoryBackend(getEnvOrDefault("HISTORY_BACKEND", string(config.HistoryBackendFile))),
			FilePath:   getEnvOrDefault("HISTORY_FILE", "./data/history.jsonl"),
			RedisAddr:  getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisKey:   getEnvOrDefault("HISTORY_REDIS_KEY", "promptcanvas:history"),
			MaxEntries: getEnvAsIntOrDefault("HISTORY_MAX_ENTRIES", 500),
		},
		Log: config.LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		Metrics: config.MetricsConfig{
			Addr:      getEnvOrDefault("METRICS_ADDR", ""),
			Namespace: getEnvOrDefault("METRICS_NAMESPACE", "promptcanvas"),
		},
	}
}

// Validate は、設定の妥当性を検証します
func (c *Config) Validate() error {
	if c.Discord.BotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN が設定されていません")
	}

	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}

	if c.Gemini.Backend != config.BackendREST && c.Gemini.Backend != config.BackendSDK {
		return fmt.Errorf("GEMINI_BACKEND は rest または sdk である必要があります: %s", c.Gemini.Backend)
	}

	if c.Gemini.MaxTokens <= 0 {
		return fmt.Errorf("GEMINI_MAX_TOKENS は正の整数である必要があります")
	}

	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return fmt.Errorf("GEMINI_TEMPERATURE は0から2の範囲である必要があります")
	}

	if c.Gemini.TopP < 0 || c.Gemini.TopP > 1 {
		return fmt.Errorf("GEMINI_TOP_P は0から1の範囲である必要があります")
	}

	if c.Gemini.TopK <= 0 {
		return fmt.Errorf("GEMINI_TOP_K は正の整数である必要があります")
	}

	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS は正の整数である必要があります")
	}

	if c.Retry.Delay < 0 {
		return fmt.Errorf("RETRY_DELAY は0以上である必要があります")
	}

	if c.Retry.RetryableStatus < 400 || c.Retry.RetryableStatus > 599 {
		return fmt.Errorf("RETRY_STATUS は4xxまたは5xxのステータスである必要があります")
	}

	if c.Generation.FanOut <= 0 || c.Generation.FanOut > 10 {
		return fmt.Errorf("GENERATION_FANOUT は1から10の範囲である必要があります")
	}

	if c.Generation.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT は正の値である必要があります")
	}

	switch c.Storage.Mode {
	case config.StorageModeFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("STORAGE_DIR が設定されていません")
		}
		if c.Storage.JPEGQuality < 1 || c.Storage.JPEGQuality > 100 {
			return fmt.Errorf("STORAGE_JPEG_QUALITY は1から100の範囲である必要があります")
		}
	case config.StorageModeDataURI:
	default:
		return fmt.Errorf("STORAGE_MODE は file または datauri である必要があります: %s", c.Storage.Mode)
	}

	switch c.History.Backend {
	case config.HistoryBackendFile:
		if c.History.FilePath == "" {
			return fmt.Errorf("HISTORY_FILE が設定されていません")
		}
	case config.HistoryBackendRedis:
		if c.History.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR が設定されていません")
		}
	case config.HistoryBackendMemory:
	default:
		return fmt.Errorf("HISTORY_BACKEND は file、redis、memory のいずれかである必要があります: %s", c.History.Backend)
	}

	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("HISTORY_MAX_ENTRIES は正の整数である必要があります")
	}

	return nil
}

// getEnvOrDefault は、環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は、環境変数を整数として取得し、存在しない場合はデフォルト値を返します
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloatOrDefault は、環境変数を浮動小数点数として取得し、存在しない場合はデフォルト値を返します
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault は、環境変数を時間として取得し、存在しない場合はデフォルト値を返します
// 単位のない整数はミリ秒として扱います
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は、環境変数を真偽値として取得し、存在しない場合はデフォルト値を返します
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
