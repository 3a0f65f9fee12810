package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/hororrklama-coder/DiscTransla/internal/handler"
)

// commandRegistrar is the part of *discordgo.Session used by register.
type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

func newRegisterCmd() *cobra.Command {
	var guild string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the bot's application commands with Discord",
		Long: `Replace the application's commands with the ones the bot answers.

Global commands can take up to an hour to appear; use --guild to register
them on one server immediately while testing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Discord.Token == "" || cfg.Discord.ApplicationID == "" {
				return fmt.Errorf("discord.token and discord.application_id are required")
			}

			session, err := discordgo.New("Bot " + cfg.Discord.Token)
			if err != nil {
				return fmt.Errorf("failed to create discord session: %w", err)
			}

			registered, err := register(cmd, session, cfg.Discord.ApplicationID, guild)
			if err != nil {
				return err
			}
			logger.Info("commands registered", "count", registered, "guild", guild)
			return nil
		},
	}

	cmd.Flags().StringVar(&guild, "guild", "", "register on this guild only")
	cmd.Flags().String("token", "", "bot token")
	cmd.Flags().String("app-id", "", "application ID")

	return cmd
}

func register(cmd *cobra.Command, r commandRegistrar, appID, guild string) (int, error) {
	created, err := r.ApplicationCommandBulkOverwrite(appID, guild, handler.Commands(), discordgo.WithContext(cmd.Context()))
	if err != nil {
		return 0, fmt.Errorf("failed to register commands: %w", err)
	}
	for _, c := range created {
		fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", c.Name, c.ID)
	}
	return len(created), nil
}
