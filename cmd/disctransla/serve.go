package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/hororrklama-coder/DiscTransla/internal/app"
	"github.com/hororrklama-coder/DiscTransla/internal/dispatch"
	"github.com/hororrklama-coder/DiscTransla/internal/handler"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Discord HTTP interactions",
		Long: `Serve the interactions endpoint configured in the Discord developer portal.

Translations run in the background and replace the deferred response
when done. SIGINT or SIGTERM stops accepting requests, waits for running
translations and releases the HTTP client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			publicKey, err := hex.DecodeString(cfg.Discord.PublicKey)
			if err != nil || len(publicKey) != ed25519.PublicKeySize {
				return fmt.Errorf("discord.public_key must be a hex-encoded Ed25519 key")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := discordgo.New("Bot " + cfg.Discord.Token)
			if err != nil {
				return fmt.Errorf("failed to create discord session: %w", err)
			}

			runner := handler.NewJobRunner(a.Translator, handler.NewDiscordEditor(session), logger)
			jobs := dispatch.NewLocal(runner.Run, logger)

			h := handler.New(handler.Options{
				Preferences: a.Prefs,
				Dispatcher:  jobs,
				PublicKey:   ed25519.PublicKey(publicKey),
				Logger:      logger,
			})

			mux := http.NewServeMux()
			mux.Handle("/interactions", h)
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			srv := &http.Server{
				Addr:              cfg.ServerAddr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("serving interactions", "addr", cfg.ServerAddr)
				errCh <- srv.ListenAndServe()
			}()

			go a.Detector.Warm()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
			case <-ctx.Done():
				logger.Info("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown incomplete", "error", err)
			}

			jobs.Wait()
			logger.Info("stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("public-key", "", "application public key (hex)")
	cmd.Flags().String("prefs", "user_languages.json", "preference file or database path")
	cmd.Flags().String("prefs-store", "file", "preference backing: file, sqlite or s3")
	cmd.Flags().String("engine", "lingua", "language detection engine: lingua or whatlanggo")
	cmd.Flags().Bool("low-accuracy", false, "use lingua's smaller, less accurate models")

	return cmd
}
