package configs

import (
	"os"
	"testing"
	"time"

	"promptcanvas/internal/infrastructure/config"
)

// validConfig は、検証を通過する設定を返します
func validConfig() *Config {
	return &Config{
		Discord: config.DiscordConfig{
			BotToken: "test-token",
		},
		Gemini: config.GeminiConfig{
			APIKey:         "test-api-key",
			Backend:        config.BackendREST,
			BaseURL:        "https://generativelanguage.googleapis.com",
			APIVersion:     "v1beta",
			ImageModelName: "gemini-2.0-flash-preview-image-generation",
			TextModelName:  "gemini-2.0-flash",
			MaxTokens:      2048,
			Temperature:    0.4,
			TopP:           1,
			TopK:           32,
		},
		Retry: config.DefaultRetryConfig(),
		Generation: config.GenerationConfig{
			FanOut:         3,
			RequestTimeout: 120 * time.Second,
		},
		Storage: config.StorageConfig{
			Mode:          config.StorageModeFile,
			Dir:           "./data/images",
			TranscodeJPEG: true,
			JPEGQuality:   90,
		},
		History: config.HistoryConfig{
			Backend:    config.HistoryBackendFile,
			FilePath:   "./data/history.jsonl",
			MaxEntries: 500,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "有効な設定",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "Discord BotTokenが空",
			mutate:  func(c *Config) { c.Discord.BotToken = "" },
			wantErr: true,
			errMsg:  "DISCORD_BOT_TOKEN が設定されていません",
		},
		{
			name:    "Gemini APIKeyが空",
			mutate:  func(c *Config) { c.Gemini.APIKey = "" },
			wantErr: true,
			errMsg:  "GEMINI_API_KEY が設定されていません",
		},
		{
			name:    "未知のバックエンド",
			mutate:  func(c *Config) { c.Gemini.Backend = "grpc" },
			wantErr: true,
			errMsg:  "GEMINI_BACKEND は rest または sdk である必要があります: grpc",
		},
		{
			name:    "SDKバックエンド",
			mutate:  func(c *Config) { c.Gemini.Backend = config.BackendSDK },
			wantErr: false,
		},
		{
			name:    "MaxTokensが0以下",
			mutate:  func(c *Config) { c.Gemini.MaxTokens = 0 },
			wantErr: true,
			errMsg:  "GEMINI_MAX_TOKENS は正の整数である必要があります",
		},
		{
			name:    "Temperatureが範囲外（負の値）",
			mutate:  func(c *Config) { c.Gemini.Temperature = -0.1 },
			wantErr: true,
			errMsg:  "GEMINI_TEMPERATURE は0から2の範囲である必要があります",
		},
		{
			name:    "TopPが範囲外",
			mutate:  func(c *Config) { c.Gemini.TopP = 1.5 },
			wantErr: true,
			errMsg:  "GEMINI_TOP_P は0から1の範囲である必要があります",
		},
		{
			name:    "リトライ回数が0",
			mutate:  func(c *Config) { c.Retry.MaxAttempts = 0 },
			wantErr: true,
			errMsg:  "RETRY_MAX_ATTEMPTS は正の整数である必要があります",
		},
		{
			name:    "リトライ対象が2xx",
			mutate:  func(c *Config) { c.Retry.RetryableStatus = 200 },
			wantErr: true,
			errMsg:  "RETRY_STATUS は4xxまたは5xxのステータスである必要があります",
		},
		{
			name:    "ファンアウトが上限超過",
			mutate:  func(c *Config) { c.Generation.FanOut = 11 },
			wantErr: true,
			errMsg:  "GENERATION_FANOUT は1から10の範囲である必要があります",
		},
		{
			name:    "ファンアウト1（単発モード）",
			mutate:  func(c *Config) { c.Generation.FanOut = 1 },
			wantErr: false,
		},
		{
			name:    "データURIモードではDir不要",
			mutate:  func(c *Config) { c.Storage.Mode = config.StorageModeDataURI; c.Storage.Dir = "" },
			wantErr: false,
		},
		{
			name:    "未知の保存方式",
			mutate:  func(c *Config) { c.Storage.Mode = "s3" },
			wantErr: true,
			errMsg:  "STORAGE_MODE は file または datauri である必要があります: s3",
		},
		{
			name:    "Redis履歴でアドレスが空",
			mutate:  func(c *Config) { c.History.Backend = config.HistoryBackendRedis; c.History.RedisAddr = "" },
			wantErr: true,
			errMsg:  "REDIS_ADDR が設定されていません",
		},
		{
			name:    "履歴上限が0",
			mutate:  func(c *Config) { c.History.MaxEntries = 0 },
			wantErr: true,
			errMsg:  "HISTORY_MAX_ENTRIES は正の整数である必要があります",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr {
				if err == nil {
					t.Error("エラーが期待されましたが、発生しませんでした")
					return
				}
				if tt.errMsg != "" && err.Error() != tt.errMsg {
					t.Errorf("期待されるエラーメッセージ: %s, 実際: %s", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("予期しないエラーが発生しました: %v", err)
				}
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("GEMINI_BACKEND", "sdk")
	t.Setenv("GENERATION_FANOUT", "1")
	t.Setenv("RETRY_DELAY", "500ms")
	t.Setenv("STORAGE_MODE", "datauri")
	t.Setenv("STORAGE_TRANSCODE_JPEG", "false")
	t.Setenv("HISTORY_BACKEND", "redis")

	cfg := FromEnv()

	if cfg.Gemini.APIKey != "env-key" {
		t.Errorf("期待されるAPIKey: env-key, 実際: %s", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Backend != config.BackendSDK {
		t.Errorf("期待されるBackend: sdk, 実際: %s", cfg.Gemini.Backend)
	}
	if cfg.Generation.FanOut != 1 {
		t.Errorf("期待されるFanOut: 1, 実際: %d", cfg.Generation.FanOut)
	}
	if cfg.Retry.Delay != 500*time.Millisecond {
		t.Errorf("期待されるDelay: 500ms, 実際: %v", cfg.Retry.Delay)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.RetryableStatus != 503 {
		t.Errorf("リトライのデフォルト値が不正です: %+v", cfg.Retry)
	}
	if cfg.Storage.Mode != config.StorageModeDataURI || cfg.Storage.TranscodeJPEG {
		t.Errorf("保存設定が不正です: %+v", cfg.Storage)
	}
	if cfg.History.Backend != config.HistoryBackendRedis {
		t.Errorf("期待されるHistory.Backend: redis, 実際: %s", cfg.History.Backend)
	}
	if cfg.Gemini.Temperature != 0.4 || cfg.Gemini.TopK != 32 || cfg.Gemini.MaxTokens != 2048 {
		t.Errorf("生成設定のデフォルト値が不正です: %+v", cfg.Gemini)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	// 環境変数をクリア
	os.Unsetenv("TEST_ENV_VAR")

	// デフォルト値のテスト
	result := getEnvOrDefault("TEST_ENV_VAR", "default")
	if result != "default" {
		t.Errorf("期待される値: default, 実際: %s", result)
	}

	// 環境変数が設定されている場合のテスト
	t.Setenv("TEST_ENV_VAR", "test-value")

	result = getEnvOrDefault("TEST_ENV_VAR", "default")
	if result != "test-value" {
		t.Errorf("期待される値: test-value, 実際: %s", result)
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	os.Unsetenv("TEST_INT_VAR")

	result := getEnvAsIntOrDefault("TEST_INT_VAR", 42)
	if result != 42 {
		t.Errorf("期待される値: 42, 実際: %d", result)
	}

	t.Setenv("TEST_INT_VAR", "123")
	result = getEnvAsIntOrDefault("TEST_INT_VAR", 42)
	if result != 123 {
		t.Errorf("期待される値: 123, 実際: %d", result)
	}

	// 無効な値のテスト
	t.Setenv("TEST_INT_VAR", "invalid")
	result = getEnvAsIntOrDefault("TEST_INT_VAR", 42)
	if result != 42 {
		t.Errorf("無効な値の場合、デフォルト値が返されるべきです。期待: 42, 実際: %d", result)
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	os.Unsetenv("TEST_DURATION_VAR")

	defaultDuration := 2 * time.Second
	result := getEnvAsDurationOrDefault("TEST_DURATION_VAR", defaultDuration)
	if result != defaultDuration {
		t.Errorf("期待される値: %v, 実際: %v", defaultDuration, result)
	}

	t.Setenv("TEST_DURATION_VAR", "60s")
	result = getEnvAsDurationOrDefault("TEST_DURATION_VAR", defaultDuration)
	if result != 60*time.Second {
		t.Errorf("期待される値: 60s, 実際: %v", result)
	}

	// 単位のない整数はミリ秒
	t.Setenv("TEST_DURATION_VAR", "2000")
	result = getEnvAsDurationOrDefault("TEST_DURATION_VAR", time.Minute)
	if result != 2*time.Second {
		t.Errorf("期待される値: 2s, 実際: %v", result)
	}

	t.Setenv("TEST_DURATION_VAR", "0")
	result = getEnvAsDurationOrDefault("TEST_DURATION_VAR", defaultDuration)
	if result != 0 {
		t.Errorf("期待される値: 0s, 実際: %v", result)
	}

	t.Setenv("TEST_DURATION_VAR", "invalid")
	result = getEnvAsDurationOrDefault("TEST_DURATION_VAR", defaultDuration)
	if result != defaultDuration {
		t.Errorf("無効な値の場合、デフォルト値が返されるべきです。期待: %v, 実際: %v", defaultDuration, result)
	}
}

func TestGetEnvAsBoolOrDefault(t *testing.T) {
	os.Unsetenv("TEST_BOOL_VAR")

	if !getEnvAsBoolOrDefault("TEST_BOOL_VAR", true) {
		t.Error("デフォルト値trueが返されるべきです")
	}

	t.Setenv("TEST_BOOL_VAR", "false")
	if getEnvAsBoolOrDefault("TEST_BOOL_VAR", true) {
		t.Error("falseが返されるべきです")
	}

	t.Setenv("TEST_BOOL_VAR", "maybe")
	if !getEnvAsBoolOrDefault("TEST_BOOL_VAR", true) {
		t.Error("無効な値の場合、デフォルト値が返されるべきです")
	}
}
