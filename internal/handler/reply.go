package handler

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hororrklama-coder/DiscTransla/internal/catalog"
	"github.com/hororrklama-coder/DiscTransla/internal/domain"
	"github.com/hororrklama-coder/DiscTransla/internal/translator"
)

// MaxMessageLength is Discord's limit on message content.
const MaxMessageLength = 2000

// previewLength caps the quoted original shown above a translation.
const previewLength = 1000

const (
	msgNothingToTranslate = "This message has no text to translate."
	msgDetectionFailed    = "Could not detect the language of this message."
	msgUnsupported        = "This language is not supported for translation."
	msgNoTranslation      = "Sorry, this message cannot be translated."
	msgInternalError      = "An error occurred during translation"
	msgSetLanguageFailed  = "Failed to update language. Please try again."
)

// A few well-known codes shown when a code is rejected.
var suggestedCodes = []string{"ar", "en", "es", "fr", "de", "it", "ru", "zh", "ja", "ko"}

// failureMessage maps a translation error to the text shown to the user.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, translator.ErrDetectionFailed):
		return msgDetectionFailed
	case errors.Is(err, translator.ErrUnsupportedLanguage):
		return msgUnsupported
	case errors.Is(err, translator.ErrNoTranslation):
		return msgNoTranslation
	default:
		return fmt.Sprintf("%s: %v", msgInternalError, err)
	}
}

func unsupportedLanguageMessage(code string) string {
	return fmt.Sprintf("Language `%s` is not supported.\nSome supported languages: %s\nUse `/%s` for the complete list.",
		code, strings.Join(suggestedCodes, ", "), CommandLanguages)
}

// renderResult formats a translation for the user: a quoted preview of the
// original followed by the translation, which absorbs any truncation.
func renderResult(languages *catalog.Catalog, original string, res *domain.Result, target string) string {
	var b strings.Builder
	if preview := strings.TrimSpace(original); preview != "" {
		preview = truncate(preview, previewLength)
		fmt.Fprintf(&b, "**Original** (%s)\n> %s\n\n",
			languages.DisplayName(res.SourceLang), strings.ReplaceAll(preview, "\n", "\n> "))
	}
	fmt.Fprintf(&b, "**Translation** (%s → %s)\n%s",
		languages.DisplayName(res.SourceLang), languages.DisplayName(target), res.Text)
	return truncate(b.String(), MaxMessageLength)
}

// languagesPage renders one page of the language table.
func languagesPage(languages *catalog.Catalog, page int) string {
	entries, pages := languages.Page(page, catalog.DefaultPageSize)
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Supported languages** (page %d/%d)\n", page, pages)
	for _, e := range entries {
		fmt.Fprintf(&b, "`%s` - %s\n", e.Code, e.Name)
	}
	fmt.Fprintf(&b, "\nUse `/%s <code>` to set your preferred language.\n", CommandSetLanguage)
	fmt.Fprintf(&b, "Total supported languages: %d", languages.Len())
	return b.String()
}

// truncate shortens s to at most limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
