package speech

import "strings"

const (
	MinRate      = 0.5
	MaxRate      = 2.0
	DefaultRate  = 1.0
	NeutralPitch = 1.0
)

// preferredVoices are known higher-quality voices across browsers, desktop
// platforms and espeak-ng, in order of preference.
var preferredVoices = []string{
	"Google US English",
	"Samantha",
	"Microsoft Aria Online (Natural)",
	"Microsoft Jenny Online (Natural)",
	"Google 普通话（中国大陆）",
	"Ting-Ting",
	"Microsoft Xiaoxiao Online (Natural)",
	"Google 粤語（香港）",
	"Sin-ji",
	"Microsoft HiuGaai Online (Natural)",
	"English (America)",
	"Chinese (Mandarin)",
	"Chinese (Cantonese)",
}

// LanguageTag maps a reader language to the voice language prefix used for
// filtering: en, zh-cn or zh-hk. Unknown languages fall back to en.
func LanguageTag(uiLanguage string) string {
	lang := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(uiLanguage), "_", "-"))
	switch {
	case lang == "zh-hk", lang == "zh-tw", lang == "zh-mo", strings.HasPrefix(lang, "zh-hant"), lang == "yue":
		return "zh-hk"
	case lang == "zh", lang == "zh-cn", lang == "zh-sg", strings.HasPrefix(lang, "zh-hans"), lang == "cmn":
		return "zh-cn"
	default:
		return "en"
	}
}

// Selection is the voice chosen for an utterance. Voice is empty when no
// installed voice matches and only the language tag should be set.
type Selection struct {
	Voice string `json:"voice,omitempty"`
	Lang  string `json:"lang"`
}

// SelectVoice picks a voice for uiLanguage among the installed voices.
func SelectVoice(voices []Voice, uiLanguage string) Selection {
	tag := LanguageTag(uiLanguage)
	sel := Selection{Lang: tag}

	var filtered []Voice
	for _, v := range voices {
		lang := strings.ToLower(strings.ReplaceAll(v.Lang, "_", "-"))
		if strings.Contains(lang, tag) {
			filtered = append(filtered, v)
		}
	}
	if len(filtered) == 0 {
		return sel
	}

	for _, name := range preferredVoices {
		for _, v := range filtered {
			if v.Name == name {
				sel.Voice = v.Name
				return sel
			}
		}
	}
	sel.Voice = filtered[0].Name
	return sel
}

// ClampRate keeps a stored playback rate inside the supported range.
// Zero or negative values mean the default rate.
func ClampRate(rate float64) float64 {
	switch {
	case rate <= 0:
		return DefaultRate
	case rate < MinRate:
		return MinRate
	case rate > MaxRate:
		return MaxRate
	}
	return rate
}
