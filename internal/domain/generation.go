package domain

import "fmt"

// GenerationState は、1つの生成リクエストの状態です
type GenerationState int

const (
	StateIdle GenerationState = iota
	StateLoading
	StateSuccess
	StateEmptyResult
	StateNetworkError
)

var generationStateNames = []string{"idle", "loading", "success", "empty-result-error", "network-error"}

// String は状態名を返します
func (s GenerationState) String() string {
	if int(s) >= 0 && int(s) < len(generationStateNames) {
		return generationStateNames[s]
	}
	return "unknown"
}

// Terminal は、生成が終了した状態かどうかを返します
func (s GenerationState) Terminal() bool {
	return s == StateSuccess || s == StateEmptyResult || s == StateNetworkError
}

// CallOutcome は、ファンアウトした呼び出し1件ごとの独立した結果です
type CallOutcome struct {
	Index    int
	Response *ProviderResponse
	Err      error
}

// GenerationResult は、1バッチ分の生成結果です
type GenerationResult struct {
	Prompt   string
	Images   []GeneratedImage
	Failures []CallOutcome
	Caption  string
	State    GenerationState
	Err      error
}

// Classify は、結合後のバッチ結果から終了状態とエラーを決定します
// 1枚でも画像があれば成功、全呼び出しが失敗なら通信エラー、それ以外は空結果です
func Classify(images int, outcomes []CallOutcome) (GenerationState, error) {
	if images > 0 {
		return StateSuccess, nil
	}
	var firstErr error
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = o.Err
			}
		}
	}
	if len(outcomes) > 0 && failed == len(outcomes) {
		return StateNetworkError, firstErr
	}
	return StateEmptyResult, ErrNoImage
}

// CaptionFor は、成功時のキャプションを返します
func CaptionFor(prompt string) string {
	return fmt.Sprintf("AI Caption: 「%s」の画像を生成しました", prompt)
}

// RetroEra は、レトロ生成のスタイル年代です
type RetroEra string

const (
	Era1920s RetroEra = "1920s"
	Era1950s RetroEra = "1950s"
	Era1980s RetroEra = "1980s"
)

// AllRetroEras は、すべての年代を返します
func AllRetroEras() []RetroEra {
	return []RetroEra{Era1920s, Era1950s, Era1980s}
}

// RetroPrompt は、年代ごとの生成プロンプトを返します
func RetroPrompt(era RetroEra) string {
	return fmt.Sprintf("Generate a retro portrait of this person in the style of the %s. Return only the image.", era)
}

// RetroHistoryPrompt は、レトロ画像i枚目（1始まり）の履歴用プロンプトを返します
func RetroHistoryPrompt(i int, label string) string {
	if label == "" {
		label = "Uploaded photo"
	}
	return fmt.Sprintf("Retro version %d of: %s", i, label)
}
