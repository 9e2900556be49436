package gemini

import (
	"encoding/base64"
	"strings"

	"promptcanvas/internal/domain"
	"promptcanvas/internal/infrastructure/config"
)

var (
	imageModalities = []string{"TEXT", "IMAGE"}
	textModalities  = []string{"TEXT"}
)

// generateRequest は、generateContentに送るJSONの本体です
type generateRequest struct {
	Contents         []domain.Content `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature        float32  `json:"temperature"`
	TopK               int32    `json:"topK"`
	TopP               float32  `json:"topP"`
	MaxOutputTokens    int32    `json:"maxOutputTokens"`
	ResponseModalities []string `json:"responseModalities"`
}

// userParts は、プロンプトを先頭に、参照画像があれば続けてパーツを組み立てます
func userParts(req domain.GenerationRequest) []domain.Part {
	parts := []domain.Part{{Text: req.Prompt}}
	if req.Reference != nil && len(req.Reference.Data) > 0 {
		parts = append(parts, domain.Part{InlineData: &domain.InlineData{
			MimeType: req.Reference.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Reference.Data),
		}})
	}
	return parts
}

func newGenerateRequest(cfg *config.GeminiConfig, parts []domain.Part, modalities []string) generateRequest {
	return generateRequest{
		Contents: []domain.Content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:        cfg.Temperature,
			TopK:               cfg.TopK,
			TopP:               cfg.TopP,
			MaxOutputTokens:    cfg.MaxTokens,
			ResponseModalities: modalities,
		},
	}
}

// endpoint は {BaseURL}/{APIVersion}/models/{model}:generateContent を返します
func endpoint(cfg *config.GeminiConfig, model string) string {
	return strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.APIVersion + "/models/" + model + ":generateContent"
}
