package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerationRequest(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		want    string
		wantErr bool
	}{
		{name: "通常のプロンプト", prompt: "a red bicycle", want: "a red bicycle"},
		{name: "前後の空白は除去", prompt: "  a red bicycle \n", want: "a red bicycle"},
		{name: "空文字", prompt: "", wantErr: true},
		{name: "空白のみ", prompt: " \t\n ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewGenerationRequest(tt.prompt)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrEmptyPrompt)
				assert.Equal(t, ErrCodeValidation, CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Prompt)
			assert.Nil(t, req.Reference)
		})
	}
}

func TestProviderResponse_FirstImage(t *testing.T) {
	raw := `{
		"candidates": [{
			"content": {"parts": [
				{"text": "here you go"},
				{"inlineData": {"mimeType": "text/plain", "data": "aGVsbG8="}},
				{"inlineData": {"mimeType": "image/png", "data": "iVBORw0KGgo="}},
				{"inlineData": {"mimeType": "image/jpeg", "data": "/9j/4AAQ"}}
			]}
		}, {
			"content": {"parts": [{"inlineData": {"mimeType": "image/gif", "data": "R0lGOD"}}]}
		}]
	}`

	var resp ProviderResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	img, ok := resp.FirstImage()
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, "iVBORw0KGgo=", img.Base64Payload)
	assert.Equal(t, "here you go", resp.Text())
}

func TestProviderResponse_FirstImage_NoImage(t *testing.T) {
	tests := []struct {
		name string
		resp *ProviderResponse
	}{
		{name: "nil", resp: nil},
		{name: "候補なし", resp: &ProviderResponse{}},
		{name: "Contentなし", resp: &ProviderResponse{Candidates: []Candidate{{FinishReason: "SAFETY"}}}},
		{name: "テキストのみ", resp: &ProviderResponse{Candidates: []Candidate{{Content: &Content{Parts: []Part{{Text: "sorry"}}}}}}},
		{name: "空データの画像", resp: &ProviderResponse{Candidates: []Candidate{{Content: &Content{Parts: []Part{{InlineData: &InlineData{MimeType: "image/png"}}}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.resp.FirstImage()
			assert.False(t, ok)
		})
	}
}

func TestGenerationRequest_WithReference(t *testing.T) {
	req, err := NewGenerationRequest("portrait")
	require.NoError(t, err)

	ref := &InlineImage{MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}}
	withRef := req.WithReference(ref)

	assert.Nil(t, req.Reference)
	assert.Same(t, ref, withRef.Reference)
	assert.Equal(t, "portrait", withRef.Prompt)
}

func TestExtractedImage_Decode(t *testing.T) {
	data, err := ExtractedImage{MimeType: "image/png", Base64Payload: "aGVsbG8="}.Decode()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = ExtractedImage{Base64Payload: "!!!"}.Decode()
	assert.Error(t, err)

	_, err = ExtractedImage{}.Decode()
	assert.ErrorIs(t, err, ErrNoImage)
}
