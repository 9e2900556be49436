package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	netErr := Wrap(ErrRetriesExhausted, errors.New("503"))

	tests := []struct {
		name      string
		images    int
		outcomes  []CallOutcome
		wantState GenerationState
		wantErr   error
	}{
		{
			name:      "画像あり",
			images:    1,
			outcomes:  []CallOutcome{{Index: 0, Err: netErr}, {Index: 1}, {Index: 2, Err: netErr}},
			wantState: StateSuccess,
		},
		{
			name:      "全呼び出し失敗",
			images:    0,
			outcomes:  []CallOutcome{{Index: 0, Err: netErr}, {Index: 1, Err: ErrUpstream}},
			wantState: StateNetworkError,
			wantErr:   ErrRetriesExhausted,
		},
		{
			name:      "成功したが画像なし",
			images:    0,
			outcomes:  []CallOutcome{{Index: 0}, {Index: 1, Err: netErr}},
			wantState: StateEmptyResult,
			wantErr:   ErrNoImage,
		},
		{
			name:      "呼び出しなし",
			images:    0,
			wantState: StateEmptyResult,
			wantErr:   ErrNoImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := Classify(tt.images, tt.outcomes)
			assert.Equal(t, tt.wantState, state)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerationState(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "empty-result-error", StateEmptyResult.String())
	assert.Equal(t, "unknown", GenerationState(42).String())

	assert.False(t, StateIdle.Terminal())
	assert.False(t, StateLoading.Terminal())
	assert.True(t, StateSuccess.Terminal())
	assert.True(t, StateEmptyResult.Terminal())
	assert.True(t, StateNetworkError.Terminal())
}

func TestCaptionAndRetroPrompts(t *testing.T) {
	assert.Equal(t, "AI Caption: 「a red bicycle」の画像を生成しました", CaptionFor("a red bicycle"))
	assert.Equal(t, "Retro version 2 of: Uploaded photo", RetroHistoryPrompt(2, ""))
	assert.Equal(t, "Retro version 1 of: grandpa", RetroHistoryPrompt(1, "grandpa"))
	assert.Len(t, AllRetroEras(), 3)
	assert.Contains(t, RetroPrompt(Era1950s), "1950s")
}

func TestImageStyle(t *testing.T) {
	assert.Equal(t, "a cat", ImageStyleNone.Apply("a cat"))
	assert.Equal(t, "a cat, anime style illustration", ImageStyleAnime.Apply(" a cat "))
	assert.Equal(t, ImageStyleWatercolor, ParseImageStyle("watercolor"))
	assert.Equal(t, ImageStyleNone, ParseImageStyle("cubism"))
	assert.Equal(t, "none", ImageStyle(99).String())
	assert.Equal(t, "アニメ風", ImageStyleAnime.DisplayName())
}
