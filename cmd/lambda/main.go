// Package main is the AWS Lambda entry point of the translation bot. One
// function serves Discord interactions through a function URL or API
// Gateway, completes deferred translations it sends to itself, and answers
// scheduled keep-warm pings.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/bwmarrin/discordgo"

	"github.com/hororrklama-coder/DiscTransla/internal/app"
	"github.com/hororrklama-coder/DiscTransla/internal/config"
	"github.com/hororrklama-coder/DiscTransla/internal/dispatch"
	"github.com/hororrklama-coder/DiscTransla/internal/domain"
	"github.com/hororrklama-coder/DiscTransla/internal/handler"
)

// service holds everything one Lambda instance reuses across invocations.
type service struct {
	app          *app.App
	handler      *handler.Handler
	runner       *handler.JobRunner
	lambda       invoker
	functionName string
	logger       *slog.Logger
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("DISCTRANSLA_CONFIG"), nil)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	s, err := newService(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	// SIGTERM reaches the function only when an extension is registered.
	lambda.StartWithOptions(s.handleRequest, lambda.WithEnableSIGTERM(s.shutdown))
}

// shutdown releases the HTTP client and the preference backing.
func (s *service) shutdown() {
	if err := s.app.Close(); err != nil {
		s.logger.Warn("shutdown incomplete", "error", err)
		return
	}
	s.logger.Info("stopped")
}

func newService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := lambdasdk.NewFromConfig(awsCfg)
	functionName := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")

	publicKey, err := hex.DecodeString(cfg.Discord.PublicKey)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("discord.public_key must be a hex-encoded Ed25519 key")
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &service{
		app: a,
		handler: handler.New(handler.Options{
			Preferences: a.Prefs,
			Dispatcher:  dispatch.NewLambda(client, functionName),
			PublicKey:   ed25519.PublicKey(publicKey),
			Logger:      logger,
		}),
		runner:       handler.NewJobRunner(a.Translator, handler.NewDiscordEditor(session), logger),
		lambda:       client,
		functionName: functionName,
		logger:       logger,
	}, nil
}

func (s *service) handleRequest(ctx context.Context, event json.RawMessage) (interface{}, error) {
	if p, ok := parsePing(event); ok {
		return s.handlePing(ctx, p)
	}

	if job, ok := parseJob(event); ok {
		s.runner.Run(ctx, *job)
		return map[string]string{"status": "done"}, nil
	}

	var req events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, fmt.Errorf("unrecognized event: %w", err)
	}
	return s.handler.HandleAPIGateway(ctx, req)
}

// parseJob extracts a deferred translation sent by dispatch.Lambda.
func parseJob(event json.RawMessage) (*domain.Job, bool) {
	var env domain.JobEnvelope
	if err := json.Unmarshal(event, &env); err != nil || env.Job == nil {
		return nil, false
	}
	return env.Job, true
}
