package service

// Language is one entry of the student-facing language picker
type Language struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Native string `json:"native"`
}

// Languages is the built-in picker catalogue. Students may also type any
// other language name, which is passed through to the generator as-is.
var Languages = []Language{
	{Code: "ar", Label: "Arabic", Native: "العربية"},
	{Code: "zh", Label: "Chinese", Native: "中文"},
	{Code: "fr", Label: "French", Native: "Français"},
	{Code: "de", Label: "German", Native: "Deutsch"},
	{Code: "it", Label: "Italian", Native: "Italiano"},
	{Code: "ja", Label: "Japanese", Native: "日本語"},
	{Code: "ko", Label: "Korean", Native: "한국어"},
	{Code: "fa", Label: "Persian", Native: "فارسی"},
	{Code: "pt", Label: "Portuguese", Native: "Português"},
	{Code: "ru", Label: "Russian", Native: "Русский"},
	{Code: "es", Label: "Spanish", Native: "Español"},
	{Code: "th", Label: "Thai", Native: "ไทย"},
	{Code: "tr", Label: "Turkish", Native: "Türkçe"},
	{Code: "vi", Label: "Vietnamese", Native: "Tiếng Việt"},
}

// LanguageLabel resolves a language code to its English label. Unknown codes
// are assumed to be a free-text language name ("Tagalog") and returned as-is.
func LanguageLabel(code string) string {
	if code == "" || code == "en" {
		return "English"
	}
	for _, l := range Languages {
		if l.Code == code {
			return l.Label
		}
	}
	return code
}
