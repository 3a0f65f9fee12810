// Package detect guesses the language of short chat messages.
//
// Detection is deterministic: both engines are pure functions of their input,
// so the same text always yields the same code.
package detect

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/abadojack/whatlanggo"
	"github.com/pemistahl/lingua-go"
)

// Unknown is returned when the language cannot be determined.
const Unknown = "unknown"

// MinLength is the minimum cleaned length, in runes, worth running detection on.
const MinLength = 3

// Engine names accepted by New.
const (
	EngineLingua     = "lingua"
	EngineWhatlanggo = "whatlanggo"
)

// aliases maps engine output onto the codes used by the catalog.
var aliases = map[string]string{
	"nb": "no",
	"nn": "no",
	"iw": "he",
	"in": "id",
}

// engine returns an ISO 639-1 code, or "" when it has no answer.
type engine interface {
	detect(text string) string
}

// Options narrows what a Detector reports.
type Options struct {
	// Languages lists the codes Detect may return; any other result is
	// Unknown. Empty allows every code the engine knows.
	Languages []string
	// LowAccuracy makes lingua use its smaller trigram models.
	LowAccuracy bool
}

// Detector detects the language of text.
type Detector struct {
	engine  engine
	allowed map[string]bool
	logger  *slog.Logger
}

// New creates a Detector backed by the named engine.
func New(name string, opts Options, logger *slog.Logger) (*Detector, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var allowed map[string]bool
	if len(opts.Languages) > 0 {
		allowed = make(map[string]bool, len(opts.Languages))
		for _, code := range opts.Languages {
			allowed[strings.ToLower(strings.TrimSpace(code))] = true
		}
	}

	var e engine
	switch strings.ToLower(name) {
	case "", EngineLingua:
		e = &linguaEngine{languages: linguaLanguages(allowed), lowAccuracy: opts.LowAccuracy}
	case EngineWhatlanggo:
		e = whatlangEngine{}
	default:
		return nil, fmt.Errorf("unknown detection engine: %s", name)
	}

	return &Detector{engine: e, allowed: allowed, logger: logger}, nil
}

// Detect returns the language code of text or Unknown. It never fails:
// engine errors and panics are reported as Unknown.
func (d *Detector) Detect(text string) (code string) {
	cleaned := Clean(text)
	if len([]rune(cleaned)) < MinLength {
		return Unknown
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("language detection panicked", "panic", r)
			code = Unknown
		}
	}()

	code = canonical(d.engine.detect(cleaned))
	if code == "" {
		return Unknown
	}
	if d.allowed != nil && !d.allowed[code] {
		d.logger.Debug("detected language not allowed", "language", code)
		return Unknown
	}
	return code
}

// canonical lower-cases an engine code and applies the catalog aliases.
func canonical(code string) string {
	code = strings.ToLower(code)
	if alias, ok := aliases[code]; ok {
		return alias
	}
	return code
}

// Warm forces the engine to load its models.
func (d *Detector) Warm() {
	d.Detect("The quick brown fox jumps over the lazy dog")
}

// Clean replaces punctuation and symbols with spaces and collapses whitespace.
func Clean(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

// linguaLanguages maps allowed codes onto lingua languages. Nil means all;
// lingua needs at least two languages to choose from.
func linguaLanguages(allowed map[string]bool) []lingua.Language {
	if allowed == nil {
		return nil
	}
	var languages []lingua.Language
	for _, l := range lingua.AllLanguages() {
		if allowed[canonical(l.IsoCode639_1().String())] {
			languages = append(languages, l)
		}
	}
	if len(languages) < 2 {
		return nil
	}
	return languages
}

// linguaEngine builds its detector on first use; model loading is lazy too.
type linguaEngine struct {
	languages   []lingua.Language
	lowAccuracy bool

	once     sync.Once
	detector lingua.LanguageDetector
}

func (e *linguaEngine) detect(text string) string {
	e.once.Do(func() {
		var b lingua.LanguageDetectorBuilder
		if e.languages != nil {
			b = lingua.NewLanguageDetectorBuilder().FromLanguages(e.languages...)
		} else {
			b = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
		}
		if e.lowAccuracy {
			b = b.WithLowAccuracyMode()
		}
		e.detector = b.Build()
	})

	language, ok := e.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return language.IsoCode639_1().String()
}

type whatlangEngine struct{}

func (whatlangEngine) detect(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
