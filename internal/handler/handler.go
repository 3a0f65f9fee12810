// Package handler answers Discord HTTP interactions for the translation bot.
package handler

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/hororrklama-coder/DiscTransla/internal/catalog"
	"github.com/hororrklama-coder/DiscTransla/internal/dispatch"
	"github.com/hororrklama-coder/DiscTransla/internal/domain"
)

// Translator runs one translation request.
type Translator interface {
	Translate(ctx context.Context, req domain.Request) (*domain.Result, error)
}

// Preferences stores each user's preferred language.
type Preferences interface {
	Get(ctx context.Context, userID string) string
	Set(ctx context.Context, userID, code string) bool
	Count(ctx context.Context) int
}

// Options configures a Handler.
type Options struct {
	Preferences Preferences
	Dispatcher  dispatch.Dispatcher
	PublicKey   ed25519.PublicKey
	Logger      *slog.Logger
}

// Handler turns interactions into responses. Translations are deferred:
// the handler acknowledges the interaction and dispatches a job that
// edits the response once the translation is done.
type Handler struct {
	prefs      Preferences
	dispatcher dispatch.Dispatcher
	publicKey  ed25519.PublicKey
	languages  *catalog.Catalog
	logger     *slog.Logger
}

// New creates a Handler.
func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		prefs:      opts.Preferences,
		dispatcher: opts.Dispatcher,
		publicKey:  opts.PublicKey,
		languages:  catalog.New(),
		logger:     logger,
	}
}

// HandleInteraction returns the immediate response to i, or nil when the
// interaction type is not handled.
func (h *Handler) HandleInteraction(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	switch i.Type {
	case discordgo.InteractionPing:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
	case discordgo.InteractionApplicationCommand:
		return h.handleCommand(ctx, i)
	default:
		h.logger.Debug("ignoring interaction", "type", int(i.Type))
		return nil
	}
}

func (h *Handler) handleCommand(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data := i.ApplicationCommandData()
	userID := interactionUser(i)

	h.logger.Info("command received", "command", data.Name, "user", userID)

	switch data.Name {
	case CommandTranslateMessage:
		return h.translateMessage(ctx, i, data, userID)
	case CommandTranslate:
		return h.translateText(ctx, i, data, userID)
	case CommandSetLanguage:
		return h.setLanguage(ctx, data, userID)
	case CommandMyLanguage:
		return h.myLanguage(ctx, userID)
	case CommandLanguages:
		return h.listLanguages(data)
	case CommandBotInfo:
		return h.botInfo(ctx)
	default:
		return ephemeral(fmt.Sprintf("Unknown command: %s", data.Name))
	}
}

// deferJob dispatches job and acknowledges the interaction. The job edits the
// deferred response when it completes.
func (h *Handler) deferJob(ctx context.Context, job domain.Job) *discordgo.InteractionResponse {
	if err := h.dispatcher.Dispatch(ctx, job); err != nil {
		h.logger.Error("failed to dispatch translation", "user", job.UserID, "error", err)
		return ephemeral(failureMessage(err))
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}
}

// interactionUser returns the invoking user's ID, in a guild or a DM.
func interactionUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: truncate(content, MaxMessageLength),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}
