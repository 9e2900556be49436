package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"promptcanvas/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// DiscordMessageLimit は、Discordのメッセージ文字数制限です
const DiscordMessageLimit = 2000

// reply は、コマンドの実行結果としてフォローアップで送る内容です
type reply struct {
	Content   string
	Files     []*discordgo.File
	Ephemeral bool
}

// formatGenerationResult は、生成結果をキャプションと画像ファイルに変換します
func formatGenerationResult(result *domain.GenerationResult) reply {
	if result == nil {
		return reply{Content: "❌ **不明なエラーが発生しました**"}
	}
	if result.State != domain.StateSuccess {
		return reply{Content: formatError(result.Err)}
	}

	var b strings.Builder
	b.WriteString(result.Caption)
	if n := len(result.Failures); n > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d件の生成に失敗しました", n)
	}
	return reply{Content: b.String(), Files: imageFiles(result.Images)}
}

// imageFiles は、生成画像をアップロード用のファイルに変換します
func imageFiles(images []domain.GeneratedImage) []*discordgo.File {
	files := make([]*discordgo.File, 0, len(images))
	for i, img := range images {
		files = append(files, &discordgo.File{
			Name:        fmt.Sprintf("image_%d%s", i+1, extensionFor(img.MimeType)),
			ContentType: img.MimeType,
			Reader:      bytes.NewReader(img.Data),
		})
	}
	return files
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// formatHistory は、履歴の一覧を表示用に整形します
func formatHistory(entries []domain.HistoryEntry) string {
	if len(entries) == 0 {
		return "📭 履歴はまだありません"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📜 **最近の生成履歴** (%d件)\n", len(entries))
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. `%s` %s\n", i+1, e.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(e.Prompt, 80))
		fmt.Fprintf(&b, "   %s\n", displayLocation(e.Location))
	}
	return strings.TrimRight(b.String(), "\n")
}

// displayLocation は、長いデータURIを省略して表示します
func displayLocation(location string) string {
	if strings.HasPrefix(location, "data:") {
		mime := strings.TrimPrefix(location, "data:")
		if idx := strings.Index(mime, ";"); idx >= 0 {
			mime = mime[:idx]
		}
		return fmt.Sprintf("(データURI %s)", mime)
	}
	return location
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// splitMessage は、メッセージをDiscordの文字数制限に合わせて分割します
// 改行、空白の順で区切り位置を探し、見つからない場合は強制的に分割します
func splitMessage(message string) []string {
	runes := []rune(message)
	if len(runes) <= DiscordMessageLimit {
		return []string{message}
	}

	// 先頭の区切り文字から空のチャンクが生まれないようにする
	runes = []rune(strings.TrimLeft(message, " \n"))

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= DiscordMessageLimit {
			chunks = append(chunks, string(runes))
			break
		}

		splitIndex := lastIndexRune(runes[:DiscordMessageLimit], '\n')
		if splitIndex <= 0 {
			splitIndex = lastIndexRune(runes[:DiscordMessageLimit], ' ')
		}
		if splitIndex <= 0 {
			splitIndex = DiscordMessageLimit
		}

		if chunk := strings.TrimRight(string(runes[:splitIndex]), " \n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = []rune(strings.TrimLeft(string(runes[splitIndex:]), " \n"))
	}
	return chunks
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes); i > 0; i-- {
		if runes[i-1] == r {
			return i
		}
	}
	return -1
}

// isTimeoutError は、エラーがタイムアウトエラーかどうかを判定します
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errorMsg := strings.ToLower(err.Error())
	timeoutKeywords := []string{
		"timeout",
		"タイムアウト",
		"deadline exceeded",
	}
	for _, keyword := range timeoutKeywords {
		if strings.Contains(errorMsg, keyword) {
			return true
		}
	}
	return false
}

// formatError は、エラーをエラーコードごとのメッセージにフォーマットします
func formatError(err error) string {
	if err == nil {
		return "❌ **不明なエラーが発生しました**"
	}

	// タイムアウトエラーの場合
	if isTimeoutError(err) {
		return "⏰ **タイムアウトしました**\n\n処理に時間がかかりすぎました。以下の対処法をお試しください：\n\n" +
			"- プロンプトを短くしてみる\n" +
			"- しばらく待ってから再度お試しください"
	}

	switch domain.CodeOf(err) {
	case domain.ErrCodeValidation:
		return "✏️ **入力が空です**\nプロンプトまたは質問を入力してください。"
	case domain.ErrCodeRetriesExhausted:
		return "⏳ **生成APIが混雑しています**\nしばらく待ってから再度お試しください。"
	case domain.ErrCodeEmptyResult:
		return "🖼️ **AIから画像が返されませんでした**\nプロンプトを変えて再度お試しください。"
	case domain.ErrCodeBusy:
		return "⌛ **前のリクエストを処理中です**\n完了するまでお待ちください。"
	case domain.ErrCodeInvalidInput:
		return "🚫 **添付画像を利用できません**\nJPEGまたはPNGの画像を添付してください。"
	case domain.ErrCodePersistence:
		return "💾 **保存に失敗しました**\nしばらく待ってから再度お試しください。"
	case domain.ErrCodeUpstream:
		return fmt.Sprintf("❌ **生成APIの呼び出しに失敗しました**\n%s", truncate(err.Error(), 300))
	default:
		return fmt.Sprintf("❌ **エラーが発生しました**\n%s", truncate(err.Error(), 300))
	}
}
