// Package app assembles the translation pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hororrklama-coder/DiscTransla/internal/backend"
	"github.com/hororrklama-coder/DiscTransla/internal/config"
	"github.com/hororrklama-coder/DiscTransla/internal/detect"
	"github.com/hororrklama-coder/DiscTransla/internal/prefs"
	"github.com/hororrklama-coder/DiscTransla/internal/translator"
)

// App holds the long-lived components shared by every request.
type App struct {
	Config     *config.Config
	Client     *backend.Client
	Detector   *detect.Detector
	Translator *translator.Translator
	Prefs      *prefs.Store

	closers []func() error
	logger  *slog.Logger
}

// New builds the backends, detector, orchestrator and preference store.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	detector, err := detect.New(cfg.DetectEngine, cfg.Detection(), logger)
	if err != nil {
		return nil, err
	}

	client := backend.NewClient()
	a := &App{
		Config:   cfg,
		Client:   client,
		Detector: detector,
		logger:   logger,
	}

	primary := backend.WithBreaker(
		backend.WithRateLimit(backend.NewMyMemory(client, cfg.Primary, logger), cfg.PrimaryRPS, 1),
		cfg.Breaker, logger)
	secondary := backend.WithBreaker(
		backend.WithRateLimit(backend.NewLibreTranslate(client, cfg.Secondary, logger), cfg.SecondaryRPS, 1),
		cfg.Breaker, logger)
	a.Translator = translator.New(primary, secondary, detector, cfg.Translator(), logger)

	backing, err := a.openBacking(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Prefs = prefs.Open(ctx, backing, cfg.DefaultLanguage, logger)

	return a, nil
}

func (a *App) openBacking(ctx context.Context) (prefs.Backing, error) {
	p := a.Config.Prefs
	switch p.Backend {
	case config.PrefsFile:
		return prefs.NewFileBacking(p.Path), nil
	case config.PrefsSQLite:
		b, err := prefs.OpenSQLite(p.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, b.Close)
		return b, nil
	case config.PrefsS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return prefs.NewS3Backing(s3.NewFromConfig(awsCfg), p.Bucket, p.Key), nil
	default:
		return nil, fmt.Errorf("unknown prefs backend %q", p.Backend)
	}
}

// Close releases the HTTP client and any open preference database.
func (a *App) Close() error {
	a.Client.Close()

	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
