package pagetl

import "strings"

// Language describes a locale the engine knows about.
type Language struct {
	Name  string // human readable, used in backend prompts
	Latin bool   // written in Latin script
}

// Languages maps locale codes to their description.
var Languages = map[string]Language{
	"en_US": {"English (United States)", true},
	"en_GB": {"English (United Kingdom)", true},
	"de_DE": {"German (Germany)", true},
	"es_ES": {"Spanish (Spain)", true},
	"es_MX": {"Spanish (Mexico)", true},
	"fr_FR": {"French (France)", true},
	"it_IT": {"Italian (Italy)", true},
	"nl_NL": {"Dutch (Netherlands)", true},
	"nb_NO": {"Norwegian Bokmål (Norway)", true},
	"pl_PL": {"Polish (Poland)", true},
	"pt_BR": {"Portuguese (Brazil)", true},
	"pt_PT": {"Portuguese (Portugal)", true},
	"sv_SE": {"Swedish (Sweden)", true},
	"tr_TR": {"Turkish (Turkey)", true},
	"vi_VN": {"Vietnamese (Vietnam)", true},
	"id_ID": {"Indonesian (Indonesia)", true},
	"ar_SA": {"Arabic (Saudi Arabia)", false},
	"fa_IR": {"Persian (Iran)", false},
	"he_IL": {"Hebrew (Israel)", false},
	"hi_IN": {"Hindi (India)", false},
	"ja_JP": {"Japanese (Japan)", false},
	"ko_KR": {"Korean (South Korea)", false},
	"ru_RU": {"Russian (Russia)", false},
	"uk_UA": {"Ukrainian (Ukraine)", false},
	"th_TH": {"Thai (Thailand)", false},
	"ur_PK": {"Urdu (Pakistan)", false},
	"zh_CN": {"Chinese (Simplified)", false},
	"zh_TW": {"Chinese (Traditional)", false},
}

// ShortCodeToLocale maps short language codes to full locale codes.
var ShortCodeToLocale = map[string]string{
	"en": "en_US",
	"de": "de_DE",
	"es": "es_ES",
	"fr": "fr_FR",
	"it": "it_IT",
	"ja": "ja_JP",
	"pt": "pt_BR",
	"zh": "zh_CN",
	"ko": "ko_KR",
	"ru": "ru_RU",
	"ar": "ar_SA",
	"he": "he_IL",
	"hi": "hi_IN",
	"nl": "nl_NL",
	"pl": "pl_PL",
	"tr": "tr_TR",
	"vi": "vi_VN",
}

// localeHints disambiguates regional variants in backend prompts.
var localeHints = map[string]string{
	"es_ES": "Use Castilian Spanish conventions (vosotros, Spain vocabulary).",
	"es_MX": "Use Mexican Spanish vocabulary and ustedes.",
	"pt_BR": "Use Brazilian Portuguese spelling and vocabulary.",
	"pt_PT": "Use European Portuguese spelling and vocabulary.",
	"nb_NO": "Write Norwegian Bokmål, not Nynorsk.",
	"zh_TW": "Use Traditional Chinese characters and Taiwan vocabulary.",
	"zh_CN": "Use Simplified Chinese characters.",
}

// styleDescriptions explains each TranslationStyle to the backend.
var styleDescriptions = map[TranslationStyle]string{
	StyleFormal:    "Use formal, professional language suitable for official documents.",
	StyleNeutral:   "Use a neutral, professional tone suitable for general web content.",
	StyleCasual:    "Use casual, conversational language.",
	StyleMarketing: "Use persuasive, engaging language for promotional content.",
	StyleTechnical: "Use precise technical language; keep technical terms consistent.",
}

func lookupLanguage(langCode string) (Language, bool) {
	code := NormalizeLocale(langCode)
	if l, ok := Languages[code]; ok {
		return l, true
	}
	if locale, ok := ShortCodeToLocale[strings.ToLower(code)]; ok {
		l, ok := Languages[locale]
		return l, ok
	}
	return Language{}, false
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	if l, ok := lookupLanguage(langCode); ok {
		return l.Name
	}
	return langCode
}

// GetLocaleClarification returns a regional hint for the backend prompt, if any.
func GetLocaleClarification(langCode string) string {
	return localeHints[NormalizeLocale(langCode)]
}

// GetStyleDescription describes a style; unknown styles read as neutral.
func GetStyleDescription(style TranslationStyle) string {
	if d, ok := styleDescriptions[style]; ok {
		return d
	}
	return styleDescriptions[StyleNeutral]
}

// IsLatinScript reports whether the language is written in Latin script.
// Unknown languages are treated as Latin.
func IsLatinScript(langCode string) bool {
	if l, ok := lookupLanguage(langCode); ok {
		return l.Latin
	}
	return true
}

// BaseLang extracts the lowercase base language ("en" from "en_US" or "en-US").
func BaseLang(langCode string) string {
	return strings.ToLower(strings.Split(NormalizeLocale(langCode), "_")[0])
}

// SameLanguage reports whether two codes share a base language.
func SameLanguage(a, b string) bool {
	return BaseLang(a) == BaseLang(b)
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(langCode string) string {
	if RTLLanguages[BaseLang(langCode)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(langCode string) bool {
	return GetDirection(langCode) == "rtl"
}

// NormalizeLocale converts a language code to the standard format (e.g., "es-ES" → "es_ES").
func NormalizeLocale(langCode string) string {
	return strings.ReplaceAll(langCode, "-", "_")
}

// ToHTMLLang converts a locale code to HTML lang attribute format (e.g., "es_ES" → "es-ES").
func ToHTMLLang(langCode string) string {
	return strings.ReplaceAll(langCode, "_", "-")
}
