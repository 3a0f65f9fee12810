// Package domain contains the core domain types for the translation bot.
package domain

// Request is the input to the translation orchestrator.
type Request struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
	SourceLang string `json:"sourceLang,omitempty"` // detected when empty
}

// Result is the output of a successful translation.
type Result struct {
	Text             string `json:"text"`
	SourceLang       string `json:"sourceLang"`
	ChunksProcessed  int    `json:"chunksProcessed,omitempty"`
	ChunksTranslated int    `json:"chunksTranslated,omitempty"`
}

// Job is a deferred translation whose reply replaces the original
// interaction response.
type Job struct {
	ApplicationID    string `json:"applicationId"`
	InteractionToken string `json:"interactionToken"`
	UserID           string `json:"userId"`
	Text             string `json:"text"`
	TargetLang       string `json:"targetLang"`
	SourceLang       string `json:"sourceLang,omitempty"`
}

// JobEnvelope wraps a Job when it travels as a raw Lambda event.
type JobEnvelope struct {
	Job *Job `json:"job"`
}
