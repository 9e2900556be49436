package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel は、"debug" "info" "warn" "error" をslog.Levelに変換します
// 未知の値はInfoになります
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New は、wへ出力するロガーを作成します
// formatが"json"の場合はJSON、それ以外はテキスト形式です
func New(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init は、標準エラー出力へのロガーを作成してslog.Defaultに設定します
func Init(level, format string) *slog.Logger {
	l := New(os.Stderr, level, format)
	slog.SetDefault(l)
	return l
}
