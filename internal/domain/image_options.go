package domain

import "strings"

// ImageStyle は、/imagine で選べる画風です
type ImageStyle int

const (
	ImageStyleNone ImageStyle = iota
	ImageStylePhotographic
	ImageStyleAnime
	ImageStyleWatercolor
	ImageStyleSketch
)

// styleOptionData はImageStyleのデータを保持します
type styleOptionData struct {
	Value       string
	DisplayName string
	Suffix      string
}

var imageStyles = []styleOptionData{
	{"none", "指定なし", ""},
	{"photographic", "写真風", "photorealistic, natural lighting"},
	{"anime", "アニメ風", "anime style illustration"},
	{"watercolor", "水彩画風", "watercolor painting"},
	{"sketch", "スケッチ風", "pencil sketch"},
}

// String はImageStyleの英語名を返します
func (s ImageStyle) String() string {
	if int(s) >= 0 && int(s) < len(imageStyles) {
		return imageStyles[s].Value
	}
	return "none"
}

// DisplayName はImageStyleの日本語名を返します
func (s ImageStyle) DisplayName() string {
	if int(s) >= 0 && int(s) < len(imageStyles) {
		return imageStyles[s].DisplayName
	}
	return "指定なし"
}

// Apply は、プロンプトに画風の指定を付け加えます
func (s ImageStyle) Apply(prompt string) string {
	if int(s) <= 0 || int(s) >= len(imageStyles) {
		return prompt
	}
	return strings.TrimSpace(prompt) + ", " + imageStyles[s].Suffix
}

// ParseImageStyle は、英語名からImageStyleを返します
// 未知の値はImageStyleNoneになります
func ParseImageStyle(value string) ImageStyle {
	for i, data := range imageStyles {
		if data.Value == value {
			return ImageStyle(i)
		}
	}
	return ImageStyleNone
}

// AllImageStyles はすべてのImageStyleを返します
func AllImageStyles() []ImageStyle {
	return []ImageStyle{
		ImageStyleNone,
		ImageStylePhotographic,
		ImageStyleAnime,
		ImageStyleWatercolor,
		ImageStyleSketch,
	}
}
