package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// DiscordHandler は、Discordのイベントハンドラです
type DiscordHandler struct {
	session             *discordgo.Session
	slashCommandHandler *SlashCommandHandler
	logger              *slog.Logger
}

// NewDiscordHandler は新しいDiscordHandlerインスタンスを作成します
func NewDiscordHandler(
	session *discordgo.Session,
	slashCommandHandler *SlashCommandHandler,
	logger *slog.Logger,
) *DiscordHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscordHandler{
		session:             session,
		slashCommandHandler: slashCommandHandler,
		logger:              logger,
	}
}

// SetupHandlers は、Discordのイベントハンドラを設定します
func (h *DiscordHandler) SetupHandlers() {
	h.session.AddHandler(h.handleReady)

	// スラッシュコマンドハンドラーを設定
	if h.slashCommandHandler != nil {
		h.slashCommandHandler.SetupSlashCommandHandlers()
	}
}

// handleReady は、接続完了イベントを記録します
func (h *DiscordHandler) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	h.logger.Info("Discordに接続しました", "user", r.User.Username, "guilds", len(r.Guilds))
}
