package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promptcanvas/configs"
	"promptcanvas/internal/application"
	"promptcanvas/internal/domain"
	"promptcanvas/internal/infrastructure/attachment"
	"promptcanvas/internal/infrastructure/config"
	"promptcanvas/internal/infrastructure/gemini"
	"promptcanvas/internal/infrastructure/history"
	"promptcanvas/internal/infrastructure/metrics"
	"promptcanvas/internal/infrastructure/retry"
	"promptcanvas/internal/infrastructure/storage"
	discordPres "promptcanvas/internal/presentation/discord"
	"promptcanvas/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shouni/go-http-kit/pkg/httpkit"
)

func main() {
	// 設定を読み込み
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info("PromptCanvas Botを起動中...")

	if err := run(cfg, log); err != nil {
		log.Error("Botの実行に失敗", "error", err)
		os.Exit(1)
	}

	log.Info("Botが正常に停止しました。")
}

func run(cfg *configs.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := metrics.NewProm(cfg.Metrics.Namespace, registry)
	metricsServer := startMetricsServer(cfg.Metrics.Addr, registry, log)

	// リトライ付きのHTTPクライアント
	fetcher := retry.NewFetcher(
		retry.FixedPolicy{
			Attempts: cfg.Retry.MaxAttempts,
			Wait:     cfg.Retry.Delay,
			Status:   cfg.Retry.RetryableStatus,
		},
		retry.WithLogger(log),
		retry.WithMetrics(prom),
	)

	// Gemini APIクライアントを作成
	client, closeClient, err := newProvider(ctx, &cfg.Gemini, fetcher, log)
	if err != nil {
		return fmt.Errorf("Gemini APIクライアントの作成に失敗: %w", err)
	}
	defer closeClient()

	// 画像と履歴の保存先を作成
	store, err := newImageStore(cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("画像保存先の作成に失敗: %w", err)
	}
	historyRepo, closeHistory, err := newHistoryRepository(ctx, cfg.History, log)
	if err != nil {
		return fmt.Errorf("履歴ストアの作成に失敗: %w", err)
	}
	defer closeHistory()

	// アプリケーションサービスを作成
	imageService := application.NewImageGenerationService(
		client,
		store,
		historyRepo,
		cfg.Generation.FanOut,
		application.WithLogger(log),
		application.WithMetrics(prom),
	)
	retroService := application.NewRetroService(imageService, newAttachmentDownloader(cfg, prom, log))
	askService := application.NewAskService(client, log)
	historyService := application.NewHistoryService(historyRepo)

	// Discordセッションを作成
	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		return fmt.Errorf("Discordセッションの作成に失敗: %w", err)
	}

	slashCommandHandler := discordPres.NewSlashCommandHandler(
		session,
		discordPres.Services{
			Images:  imageService,
			Retro:   retroService,
			Ask:     askService,
			History: historyService,
		},
		application.NewSessionTracker(),
		cfg.Generation.RequestTimeout,
		log,
	)
	handler := discordPres.NewDiscordHandler(session, slashCommandHandler, log)
	handler.SetupHandlers()

	// Discordに接続
	if err := session.Open(); err != nil {
		return fmt.Errorf("Discordへの接続に失敗: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("Discordセッションのクローズに失敗", "error", err)
		}
	}()

	// スラッシュコマンドを設定
	if err := slashCommandHandler.SetupSlashCommands(); err != nil {
		return fmt.Errorf("スラッシュコマンドの設定に失敗: %w", err)
	}

	log.Info("Botが準備完了しました",
		"backend", cfg.Gemini.Backend,
		"image_model", cfg.Gemini.ImageModelName,
		"fanout", imageService.FanOut(),
		"storage", cfg.Storage.Mode,
		"history", cfg.History.Backend,
	)
	log.Info("利用可能なスラッシュコマンド: /imagine /retro /ask /history")

	// 終了シグナルを待機
	<-ctx.Done()
	log.Info("終了シグナルを受信しました。Botを停止中...")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("メトリクスサーバーの停止に失敗", "error", err)
		}
	}
	return nil
}

// newProvider は、設定されたバックエンドのGeminiクライアントを作成します
func newProvider(ctx context.Context, cfg *config.GeminiConfig, fetcher *retry.Fetcher, log *slog.Logger) (application.GeminiClient, func(), error) {
	switch cfg.Backend {
	case config.BackendSDK:
		client, err := gemini.NewSDKClient(ctx, cfg, fetcher.HTTPClient(), log)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	default:
		client, err := gemini.NewRESTClient(cfg, fetcher, log)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}
}

// newAttachmentDownloader は、接続先の検査とリトライを組み込んだ添付画像のダウンローダーを作成します
func newAttachmentDownloader(cfg *configs.Config, prom *metrics.Prom, log *slog.Logger) *attachment.Downloader {
	guard := attachment.NewGuard(nil)
	fetcher := retry.NewFetcher(
		retry.FixedPolicy{
			Attempts: cfg.Retry.MaxAttempts,
			Wait:     cfg.Retry.Delay,
			Status:   cfg.Retry.RetryableStatus,
		},
		retry.WithHTTPClient(guard.HTTPClient(cfg.Generation.RequestTimeout)),
		retry.WithLogger(log),
		retry.WithMetrics(prom),
	)
	client := httpkit.New(cfg.Generation.RequestTimeout, httpkit.WithHTTPClient(fetcher.HTTPClient()))
	return attachment.NewDownloader(client, guard)
}

// newImageStore は、設定された保存方式のImageStoreを作成します
func newImageStore(cfg config.StorageConfig, log *slog.Logger) (domain.ImageStore, error) {
	if cfg.Mode == config.StorageModeDataURI {
		return storage.NewDataURIStore(), nil
	}

	opts := []storage.FileOption{storage.WithFileLogger(log)}
	if cfg.TranscodeJPEG {
		opts = append(opts, storage.WithJPEGTranscode(cfg.JPEGQuality))
	}
	store, err := storage.NewFileImageStore(cfg.Dir, opts...)
	if err != nil {
		return nil, err
	}
	log.Info("画像の保存先", "dir", store.Dir())
	return store, nil
}

// newHistoryRepository は、設定された保存先のHistoryRepositoryを作成します
func newHistoryRepository(ctx context.Context, cfg config.HistoryConfig, log *slog.Logger) (domain.HistoryRepository, func(), error) {
	switch cfg.Backend {
	case config.HistoryBackendRedis:
		client, err := history.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		store := history.NewRedisStore(client, cfg.RedisKey, cfg.MaxEntries, log)
		return store, func() { _ = store.Close() }, nil
	case config.HistoryBackendMemory:
		return history.NewMemoryStore(cfg.MaxEntries), func() {}, nil
	default:
		store, err := history.NewFileStore(cfg.FilePath, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// startMetricsServer は、addrが設定されている場合に/metricsを公開します
func startMetricsServer(addr string, gatherer prometheus.Gatherer, log *slog.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(gatherer))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("メトリクスを公開します", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("メトリクスサーバーが停止しました", "error", err)
		}
	}()
	return server
}
