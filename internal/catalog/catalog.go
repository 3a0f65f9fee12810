// Package catalog holds the static table of languages users may pick.
package catalog

import "strings"

// DefaultPageSize is the number of entries shown per page of the language list.
const DefaultPageSize = 15

// Entry is a supported language code and its display name.
type Entry struct {
	Code string
	Name string
}

// entries is kept in display order; pages are cut from it as-is.
var entries = []Entry{
	{"ar", "العربية (Arabic)"},
	{"en", "English"},
	{"es", "Español (Spanish)"},
	{"fr", "Français (French)"},
	{"de", "Deutsch (German)"},
	{"it", "Italiano (Italian)"},
	{"pt", "Português (Portuguese)"},
	{"ru", "Русский (Russian)"},
	{"zh", "中文 (Chinese)"},
	{"ja", "日本語 (Japanese)"},
	{"ko", "한국어 (Korean)"},
	{"tr", "Türkçe (Turkish)"},
	{"nl", "Nederlands (Dutch)"},
	{"pl", "Polski (Polish)"},
	{"sv", "Svenska (Swedish)"},
	{"da", "Dansk (Danish)"},
	{"no", "Norsk (Norwegian)"},
	{"fi", "Suomi (Finnish)"},
	{"cs", "Čeština (Czech)"},
	{"hu", "Magyar (Hungarian)"},
	{"ro", "Română (Romanian)"},
	{"bg", "Български (Bulgarian)"},
	{"hr", "Hrvatski (Croatian)"},
	{"sk", "Slovenčina (Slovak)"},
	{"sl", "Slovenščina (Slovenian)"},
	{"et", "Eesti (Estonian)"},
	{"lv", "Latviešu (Latvian)"},
	{"lt", "Lietuvių (Lithuanian)"},
	{"mt", "Malti (Maltese)"},
	{"ga", "Gaeilge (Irish)"},
	{"cy", "Cymraeg (Welsh)"},
	{"is", "Íslenska (Icelandic)"},
	{"mk", "Македонски (Macedonian)"},
	{"sq", "Shqip (Albanian)"},
	{"eu", "Euskera (Basque)"},
	{"ca", "Català (Catalan)"},
	{"gl", "Galego (Galician)"},
	{"hi", "हिन्दी (Hindi)"},
	{"th", "ไทย (Thai)"},
	{"vi", "Tiếng Việt (Vietnamese)"},
	{"id", "Bahasa Indonesia"},
	{"ms", "Bahasa Melayu (Malay)"},
	{"tl", "Filipino (Tagalog)"},
	{"sw", "Kiswahili (Swahili)"},
	{"af", "Afrikaans"},
	{"am", "አማርኛ (Amharic)"},
	{"be", "Беларуская (Belarusian)"},
	{"bn", "বাংলা (Bengali)"},
	{"bs", "Bosanski (Bosnian)"},
	{"el", "Ελληνικά (Greek)"},
	{"fa", "فارسی (Persian)"},
	{"gu", "ગુજરાતી (Gujarati)"},
	{"kn", "ಕನ್ನಡ (Kannada)"},
	{"ml", "മലയാളം (Malayalam)"},
	{"mr", "मराठी (Marathi)"},
	{"ne", "नेपाली (Nepali)"},
	{"pa", "ਪੰਜਾਬੀ (Punjabi)"},
	{"si", "සිංහල (Sinhala)"},
	{"ta", "தமிழ் (Tamil)"},
	{"te", "తెలుగు (Telugu)"},
	{"ur", "اردو (Urdu)"},
	{"uz", "O'zbek (Uzbek)"},
	{"kk", "Қазақша (Kazakh)"},
	{"ky", "Кыргызча (Kyrgyz)"},
	{"mn", "Монгол (Mongolian)"},
	{"my", "မြန်မာ (Myanmar)"},
	{"km", "ខ្មែរ (Khmer)"},
	{"lo", "ລາວ (Lao)"},
	{"ka", "ქართული (Georgian)"},
	{"hy", "Հայերեն (Armenian)"},
	{"az", "Azərbaycan (Azerbaijani)"},
}

// byCode indexes entries by code.
var byCode = map[string]string{}

func init() {
	for _, e := range entries {
		byCode[e.Code] = e.Name
	}
}

// Catalog answers questions about the supported language table.
// The zero value is ready to use.
type Catalog struct{}

// New returns the catalog of supported languages.
func New() *Catalog {
	return &Catalog{}
}

// Normalize lower-cases and trims a language code.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// IsSupported reports whether code is in the table.
func (c *Catalog) IsSupported(code string) bool {
	_, ok := byCode[Normalize(code)]
	return ok
}

// DisplayName returns the human-readable name for code, or code itself if it is unknown.
func (c *Catalog) DisplayName(code string) string {
	if name, ok := byCode[Normalize(code)]; ok {
		return name
	}
	return code
}

// Entries returns all supported languages in display order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of supported languages.
func (c *Catalog) Len() int {
	return len(entries)
}

// Page returns the 1-based page n of entries and the total page count.
// Out-of-range pages are clamped.
func (c *Catalog) Page(n, size int) ([]Entry, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (len(entries) + size - 1) / size
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	start := (n - 1) * size
	end := start + size
	if end > len(entries) {
		end = len(entries)
	}
	out := make([]Entry, end-start)
	copy(out, entries[start:end])
	return out, pages
}
