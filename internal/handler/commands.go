package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/hororrklama-coder/DiscTransla/internal/catalog"
	"github.com/hororrklama-coder/DiscTransla/internal/domain"
)

// Command names.
const (
	CommandTranslateMessage = "Translate"
	CommandTranslate        = "translate"
	CommandSetLanguage      = "set_language"
	CommandMyLanguage       = "my_language"
	CommandLanguages        = "languages"
	CommandBotInfo          = "bot_info"
)

// Commands returns the application commands the handler answers.
func Commands() []*discordgo.ApplicationCommand {
	minPage := 1.0

	return []*discordgo.ApplicationCommand{
		{
			Name: CommandTranslateMessage,
			Type: discordgo.MessageApplicationCommand,
		},
		{
			Name:        CommandTranslate,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Translate text into your preferred language",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Text to translate",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "to",
					Description: "Target language code (default: your preferred language)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "from",
					Description: "Source language code (default: detected)",
				},
			},
		},
		{
			Name:        CommandSetLanguage,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Set your preferred language for translation",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "language",
					Description: "Language code (e.g. ar, en, es)",
					Required:    true,
				},
			},
		},
		{
			Name:        CommandMyLanguage,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Show your current preferred language",
		},
		{
			Name:        CommandLanguages,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Show all supported languages",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number",
					MinValue:    &minPage,
				},
			},
		},
		{
			Name:        CommandBotInfo,
			Type:        discordgo.ChatApplicationCommand,
			Description: "Information about the bot",
		},
	}
}

// options indexes command options by name.
func options(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		out[opt.Name] = opt
	}
	return out
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

// translateMessage handles the message context-menu command.
func (h *Handler) translateMessage(ctx context.Context, i *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData, userID string) *discordgo.InteractionResponse {
	var text string
	if data.Resolved != nil {
		if msg, ok := data.Resolved.Messages[data.TargetID]; ok && msg != nil {
			text = msg.Content
		}
	}
	if strings.TrimSpace(text) == "" {
		return ephemeral(msgNothingToTranslate)
	}

	return h.deferJob(ctx, domain.Job{
		ApplicationID:    i.AppID,
		InteractionToken: i.Token,
		UserID:           userID,
		Text:             text,
		TargetLang:       h.prefs.Get(ctx, userID),
	})
}

// translateText handles /translate text [to] [from].
func (h *Handler) translateText(ctx context.Context, i *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData, userID string) *discordgo.InteractionResponse {
	opts := options(data)

	text := stringOption(opts, "text")
	if text == "" {
		return ephemeral(msgNothingToTranslate)
	}

	target := catalog.Normalize(stringOption(opts, "to"))
	if target == "" {
		target = h.prefs.Get(ctx, userID)
	} else if !h.languages.IsSupported(target) {
		return ephemeral(unsupportedLanguageMessage(target))
	}

	source := catalog.Normalize(stringOption(opts, "from"))
	if source != "" && !h.languages.IsSupported(source) {
		return ephemeral(unsupportedLanguageMessage(source))
	}

	return h.deferJob(ctx, domain.Job{
		ApplicationID:    i.AppID,
		InteractionToken: i.Token,
		UserID:           userID,
		Text:             text,
		TargetLang:       target,
		SourceLang:       source,
	})
}

func (h *Handler) setLanguage(ctx context.Context, data discordgo.ApplicationCommandInteractionData, userID string) *discordgo.InteractionResponse {
	code := catalog.Normalize(stringOption(options(data), "language"))

	if !h.languages.IsSupported(code) {
		return ephemeral(unsupportedLanguageMessage(code))
	}

	if !h.prefs.Set(ctx, userID, code) {
		return ephemeral(msgSetLanguageFailed)
	}

	return ephemeral(fmt.Sprintf("Your preferred language has been set to: **%s**\n"+
		"Use the Translate action on any message to translate it into your language.",
		h.languages.DisplayName(code)))
}

func (h *Handler) myLanguage(ctx context.Context, userID string) *discordgo.InteractionResponse {
	code := h.prefs.Get(ctx, userID)
	return ephemeral(fmt.Sprintf("Your current preferred language is: **%s** (`%s`)\n"+
		"To change your language use `/%s`.",
		h.languages.DisplayName(code), code, CommandSetLanguage))
}

func (h *Handler) listLanguages(data discordgo.ApplicationCommandInteractionData) *discordgo.InteractionResponse {
	page := 1
	if opt, ok := options(data)["page"]; ok {
		page = int(opt.IntValue())
	}
	return ephemeral(languagesPage(h.languages, page))
}

func (h *Handler) botInfo(ctx context.Context) *discordgo.InteractionResponse {
	var b strings.Builder
	b.WriteString("**Instant translation bot**\n")
	fmt.Fprintf(&b, "Supported languages: %d\n", h.languages.Len())
	fmt.Fprintf(&b, "Registered users: %d\n", h.prefs.Count(ctx))
	b.WriteString("Translations are private and powered by the free MyMemory and LibreTranslate services.")
	return ephemeral(b.String())
}
