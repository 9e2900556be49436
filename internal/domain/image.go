package domain

import (
	"encoding/base64"
	"strings"
)

// InlineImage は、リクエストに埋め込む参照画像です
type InlineImage struct {
	MimeType string
	Data     []byte
}

// GenerationRequest は、1回の生成呼び出しの入力を表すドメインオブジェクトです
type GenerationRequest struct {
	Prompt    string
	Reference *InlineImage
}

// NewGenerationRequest は、プロンプトを検証してGenerationRequestを作成します
// 空白のみのプロンプトはErrEmptyPromptになります
func NewGenerationRequest(prompt string) (GenerationRequest, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return GenerationRequest{}, ErrEmptyPrompt
	}
	return GenerationRequest{Prompt: trimmed}, nil
}

// WithReference は、参照画像を付与したコピーを返します
func (r GenerationRequest) WithReference(img *InlineImage) GenerationRequest {
	r.Reference = img
	return r
}

// ProviderResponse は、generateContentの応答JSONに対応します
type ProviderResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate は、応答候補です
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

// Content は、パーツの集合です
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part は、テキストまたはインラインデータを持つ応答の断片です
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData は、MIMEタイプ付きのbase64ペイロードです
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ExtractedImage は、応答から取り出した画像ペイロードです
type ExtractedImage struct {
	MimeType      string
	Base64Payload string
}

// Decode は、base64ペイロードをバイト列に戻します
func (e ExtractedImage) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(e.Base64Payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	return data, nil
}

// FirstImage は、最初の候補のパーツから最初の画像パーツを探します
// 画像が無いことはエラーではなく、okがfalseになります
func (r *ProviderResponse) FirstImage() (ExtractedImage, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return ExtractedImage{}, false
	}
	content := r.Candidates[0].Content
	if content == nil {
		return ExtractedImage{}, false
	}
	for _, part := range content.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		if strings.HasPrefix(part.InlineData.MimeType, "image/") {
			return ExtractedImage{
				MimeType:      part.InlineData.MimeType,
				Base64Payload: part.InlineData.Data,
			}, true
		}
	}
	return ExtractedImage{}, false
}

// Text は、最初の候補のテキストパーツを連結して返します
func (r *ProviderResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}

// GeneratedImage は、保存済みで表示可能な画像です
type GeneratedImage struct {
	Index    int
	Location string
	MimeType string
	Data     []byte
}
