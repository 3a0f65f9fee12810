package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/hororrklama-coder/DiscTransla/internal/catalog"
	"github.com/hororrklama-coder/DiscTransla/internal/domain"
)

// ResponseEditor replaces the content of a deferred interaction response.
type ResponseEditor interface {
	EditOriginal(ctx context.Context, applicationID, token, content string) error
}

// DiscordEditor edits responses through the Discord webhook API.
type DiscordEditor struct {
	session *discordgo.Session
}

// NewDiscordEditor returns an editor using session. Interaction webhooks
// are authorized by their token, so the session needs no bot token.
func NewDiscordEditor(session *discordgo.Session) *DiscordEditor {
	return &DiscordEditor{session: session}
}

// EditOriginal edits the @original message of the interaction.
func (e *DiscordEditor) EditOriginal(ctx context.Context, applicationID, token, content string) error {
	_, err := e.session.WebhookMessageEdit(applicationID, token, "@original",
		&discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to edit interaction response: %w", err)
	}
	return nil
}

// JobRunner completes deferred translations.
type JobRunner struct {
	translator Translator
	editor     ResponseEditor
	languages  *catalog.Catalog
	logger     *slog.Logger
}

// NewJobRunner creates a JobRunner.
func NewJobRunner(translator Translator, editor ResponseEditor, logger *slog.Logger) *JobRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRunner{
		translator: translator,
		editor:     editor,
		languages:  catalog.New(),
		logger:     logger,
	}
}

// Run translates the job's text and posts the outcome as the interaction
// response. Failures are reported to the user, not returned.
func (r *JobRunner) Run(ctx context.Context, job domain.Job) {
	content := r.Reply(ctx, job)

	if err := r.editor.EditOriginal(ctx, job.ApplicationID, job.InteractionToken, content); err != nil {
		r.logger.Error("failed to deliver translation", "user", job.UserID, "error", err)
	}
}

// Reply translates the job's text and returns the message for the user.
func (r *JobRunner) Reply(ctx context.Context, job domain.Job) string {
	res, err := r.translator.Translate(ctx, domain.Request{
		Text:       job.Text,
		TargetLang: job.TargetLang,
		SourceLang: job.SourceLang,
	})
	if err != nil {
		r.logger.Warn("translation failed", "user", job.UserID, "target", job.TargetLang, "error", err)
		return truncate(failureMessage(err), MaxMessageLength)
	}

	r.logger.Info("translation completed",
		"user", job.UserID,
		"source", res.SourceLang,
		"target", job.TargetLang,
		"chunks", res.ChunksProcessed,
		"translated", res.ChunksTranslated)

	return renderResult(r.languages, job.Text, res, job.TargetLang)
}
