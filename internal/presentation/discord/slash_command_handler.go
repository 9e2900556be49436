package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"promptcanvas/internal/application"
	"promptcanvas/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// スラッシュコマンド名
const (
	CommandImagine = "imagine"
	CommandRetro   = "retro"
	CommandAsk     = "ask"
	CommandHistory = "history"
)

// ImageGenerator は、プロンプトから画像を生成します
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, style domain.ImageStyle) (*domain.GenerationResult, error)
}

// RetroGenerator は、添付写真からレトロ画像を生成します
type RetroGenerator interface {
	GenerateFromURL(ctx context.Context, rawURL, label string) (*domain.GenerationResult, error)
}

// QuestionAnswerer は、テキストの質問に答えます
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string) (string, error)
}

// HistoryReader は、最近の生成履歴を返します
type HistoryReader interface {
	Recent(ctx context.Context, count int) ([]domain.HistoryEntry, error)
}

// Services は、コマンドが利用するアプリケーションサービスの集合です
type Services struct {
	Images  ImageGenerator
	Retro   RetroGenerator
	Ask     QuestionAnswerer
	History HistoryReader
}

// SlashCommandHandler は、Discordのスラッシュコマンドを処理するハンドラーです
type SlashCommandHandler struct {
	session  *discordgo.Session
	services Services
	sessions *application.SessionTracker
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSlashCommandHandler は新しいSlashCommandHandlerインスタンスを作成します
func NewSlashCommandHandler(
	session *discordgo.Session,
	services Services,
	sessions *application.SessionTracker,
	timeout time.Duration,
	logger *slog.Logger,
) *SlashCommandHandler {
	if sessions == nil {
		sessions = application.NewSessionTracker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SlashCommandHandler{
		session:  session,
		services: services,
		sessions: sessions,
		timeout:  timeout,
		logger:   logger,
	}
}

// Commands は、登録するスラッシュコマンドの定義を返します
func Commands() []*discordgo.ApplicationCommand {
	styleChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.AllImageStyles()))
	for _, style := range domain.AllImageStyles() {
		styleChoices = append(styleChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  style.DisplayName(),
			Value: style.String(),
		})
	}
	minCount := float64(1)

	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandImagine,
			Description: "プロンプトから画像を生成します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prompt",
					Description: "生成したい画像の説明",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "style",
					Description: "画風",
					Choices:     styleChoices,
				},
			},
		},
		{
			Name:        CommandRetro,
			Description: "写真を1920年代・1950年代・1980年代風に変換します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "photo",
					Description: "人物の写真",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "label",
					Description: "履歴に残す写真の名前",
				},
			},
		},
		{
			Name:        CommandAsk,
			Description: "Geminiに質問します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "question",
					Description: "質問内容",
					Required:    true,
				},
			},
		},
		{
			Name:        CommandHistory,
			Description: "最近の生成履歴を表示します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "count",
					Description: "表示する件数",
					MinValue:    &minCount,
					MaxValue:    float64(application.MaxHistoryCount),
				},
			},
		},
	}
}

// SetupSlashCommands は、スラッシュコマンドを設定します
func (h *SlashCommandHandler) SetupSlashCommands() error {
	// BotのユーザーIDを取得
	user, err := h.session.User("@me")
	if err != nil {
		return fmt.Errorf("Botユーザー情報の取得に失敗: %w", err)
	}

	// グローバルコマンドとして登録
	for _, command := range Commands() {
		if _, err := h.session.ApplicationCommandCreate(user.ID, "", command); err != nil {
			h.logger.Error("スラッシュコマンドの登録に失敗", "command", command.Name, "error", err)
			return err
		}
		h.logger.Info("スラッシュコマンドを登録しました", "command", command.Name)
	}

	return nil
}

// SetupSlashCommandHandlers は、スラッシュコマンドのハンドラーを設定します
func (h *SlashCommandHandler) SetupSlashCommandHandlers() {
	h.session.AddHandler(h.handleInteractionCreate)
}

// handleInteractionCreate は、インタラクション作成イベントを処理します
func (h *SlashCommandHandler) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	requester := requesterFrom(i)
	options := optionMap(data.Options)

	h.logger.Info("コマンドを受信", "command", data.Name, "requester", requester.String())

	switch data.Name {
	case CommandImagine:
		prompt := stringOption(options, "prompt")
		style := domain.ParseImageStyle(stringOption(options, "style"))
		h.handleGeneration(s, i, requester, func(ctx context.Context) (*domain.GenerationResult, error) {
			return h.services.Images.Generate(ctx, prompt, style)
		})
	case CommandRetro:
		attachment, ok := attachmentOption(data, options, "photo")
		if !ok {
			h.respondToInteraction(s, i, formatError(domain.ErrInvalidAttachment), true)
			return
		}
		label := stringOption(options, "label")
		if label == "" {
			label = attachment.Filename
		}
		h.handleGeneration(s, i, requester, func(ctx context.Context) (*domain.GenerationResult, error) {
			return h.services.Retro.GenerateFromURL(ctx, attachment.URL, label)
		})
	case CommandAsk:
		question := stringOption(options, "question")
		h.deferAndFollowUp(s, i, func(ctx context.Context) reply {
			return h.runAsk(ctx, question)
		})
	case CommandHistory:
		count := intOption(options, "count", application.DefaultHistoryCount)
		h.deferAndFollowUp(s, i, func(ctx context.Context) reply {
			return h.runHistory(ctx, count)
		})
	default:
		h.logger.Warn("未知のスラッシュコマンド", "command", data.Name)
	}
}

// handleGeneration は、進行中のリクエストを確認してから画像生成を開始します
func (h *SlashCommandHandler) handleGeneration(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	requester domain.Requester,
	generate func(ctx context.Context) (*domain.GenerationResult, error),
) {
	key := requester.SessionKey()
	if err := h.sessions.Begin(key); err != nil {
		h.respondToInteraction(s, i, formatError(err), true)
		return
	}

	started := h.deferAndFollowUp(s, i, func(ctx context.Context) reply {
		return h.runGeneration(ctx, key, generate)
	})
	if !started {
		h.sessions.Reset(key)
	}
}

// runGeneration は、生成を実行してセッションを終了状態に遷移させます
// 呼び出し前にBeginが成功している必要があります
func (h *SlashCommandHandler) runGeneration(
	ctx context.Context,
	key string,
	generate func(ctx context.Context) (*domain.GenerationResult, error),
) reply {
	var result *domain.GenerationResult
	defer func() { h.sessions.Finish(key, result) }()

	result, err := generate(ctx)
	if err != nil {
		h.logger.Warn("画像生成を開始できませんでした", "session", key, "error", err)
		result = nil
		return reply{Content: formatError(err)}
	}
	return formatGenerationResult(result)
}

// runAsk は、質問に対する応答を返します
func (h *SlashCommandHandler) runAsk(ctx context.Context, question string) reply {
	answer, err := h.services.Ask.Ask(ctx, question)
	if err != nil {
		h.logger.Error("質問への応答に失敗", "error", err)
		return reply{Content: formatError(err)}
	}
	return reply{Content: answer}
}

// runHistory は、最近の履歴を整形して返します
func (h *SlashCommandHandler) runHistory(ctx context.Context, count int) reply {
	entries, err := h.services.History.Recent(ctx, count)
	if err != nil {
		h.logger.Error("履歴の取得に失敗", "error", err)
		return reply{Content: formatError(err), Ephemeral: true}
	}
	return reply{Content: formatHistory(entries)}
}

// deferAndFollowUp は、応答を保留してから処理を実行し、結果をフォローアップで送信します
// 保留に失敗した場合はrunを実行せずにfalseを返します
func (h *SlashCommandHandler) deferAndFollowUp(s *discordgo.Session, i *discordgo.InteractionCreate, run func(ctx context.Context) reply) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		h.logger.Error("インタラクションの保留に失敗", "error", err)
		return false
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("コマンド処理中にパニックが発生", "panic", rec)
				h.followUp(s, i, reply{Content: formatError(nil)})
			}
		}()

		r := run(ctx)
		h.followUp(s, i, r)
	}()
	return true
}

// followUp は、返信内容を文字数制限に合わせて分割して送信します
// 画像は最初のメッセージに添付します
func (h *SlashCommandHandler) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, r reply) {
	var flags discordgo.MessageFlags
	if r.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	for idx, chunk := range splitMessage(r.Content) {
		params := &discordgo.WebhookParams{Content: chunk, Flags: flags}
		if idx == 0 {
			params.Files = r.Files
		}
		if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
			h.logger.Error("フォローアップの送信に失敗", "chunk", idx, "error", err)
			return
		}
	}
}

// respondToInteraction は、インタラクションに即座に応答します
func (h *SlashCommandHandler) respondToInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	}
	if ephemeral {
		response.Data.Flags = discordgo.MessageFlagsEphemeral
	}

	if err := s.InteractionRespond(i.Interaction, response); err != nil {
		h.logger.Error("インタラクションへの応答に失敗", "error", err)
	}
}

// requesterFrom は、インタラクションの送信者を取り出します
func requesterFrom(i *discordgo.InteractionCreate) domain.Requester {
	r := domain.Requester{GuildID: i.GuildID, ChannelID: i.ChannelID}
	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user != nil {
		r.UserID = user.ID
		r.Username = user.Username
	}
	return r
}

type optionsByName map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) optionsByName {
	m := make(optionsByName, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(options optionsByName, name string) string {
	opt, ok := options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return strings.TrimSpace(opt.StringValue())
}

func intOption(options optionsByName, name string, defaultValue int) int {
	opt, ok := options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionInteger {
		return defaultValue
	}
	return int(opt.IntValue())
}

// attachmentOption は、添付ファイルオプションを解決済みの添付ファイルに変換します
func attachmentOption(data discordgo.ApplicationCommandInteractionData, options optionsByName, name string) (*discordgo.MessageAttachment, bool) {
	opt, ok := options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionAttachment || data.Resolved == nil {
		return nil, false
	}
	id, ok := opt.Value.(string)
	if !ok {
		return nil, false
	}
	attachment, ok := data.Resolved.Attachments[id]
	if !ok || attachment == nil || attachment.URL == "" {
		return nil, false
	}
	return attachment, true
}
