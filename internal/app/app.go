// Package app assembles the news agent from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	_ "github.com/lib/pq"

	"github.com/frodopackets/DeathStrandsing/internal/config"
	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/infrastructure/fulltext"
	"github.com/frodopackets/DeathStrandsing/internal/infrastructure/googlenews"
	"github.com/frodopackets/DeathStrandsing/internal/infrastructure/llm"
	"github.com/frodopackets/DeathStrandsing/internal/infrastructure/snspub"
	"github.com/frodopackets/DeathStrandsing/internal/infrastructure/storage"
	"github.com/frodopackets/DeathStrandsing/internal/infrastructure/summarizer"
	"github.com/frodopackets/DeathStrandsing/internal/logging"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
	"github.com/frodopackets/DeathStrandsing/internal/relevance"
	"github.com/frodopackets/DeathStrandsing/internal/usecase"
)

// Application holds the wired agent and the resources it owns.
type Application struct {
	cfg      config.Config
	runner   *usecase.Runner
	recorder ports.RunRecorder
	db       *sql.DB
}

// New builds every adapter from cfg and wires them into a Runner.
// The context is used for AWS credential resolution only.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Publish.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Publish.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var bedrockAPI llm.BedrockAPI
	if cfg.Models.Provider == config.ProviderBedrock {
		bedrockAPI = bedrockruntime.NewFromConfig(awsCfg)
	}
	modelClient, err := llm.NewClient(cfg.Models, bedrockAPI)
	if err != nil {
		return nil, fmt.Errorf("build model client: %w", err)
	}

	var source ports.NewsSource = googlenews.NewSource("", nil, baseLogger.With("component", "source"))
	if cfg.Agent.EnrichContent {
		source = fulltext.NewEnricher(source, baseLogger.With("component", "enricher"))
	}

	app := &Application{cfg: cfg}

	var recorder ports.RunRecorder
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open run archive: %w", err)
		}
		app.db = db
		app.recorder = storage.NewPostgresRecorder(db)
		recorder = app.recorder
	}

	app.runner = usecase.NewRunner(usecase.RunParams{
		Topic:       cfg.Agent.Topic,
		WindowHours: cfg.Agent.WindowHours,
		MaxArticles: cfg.Agent.MaxArticles,
		Budget:      cfg.Run.Budget(),
	}, usecase.RunnerDeps{
		Source:     source,
		Ranker:     relevance.New(cfg.Agent.RelevanceFloor),
		Summarizer: summarizer.NewService(modelClient, cfg.Models, cfg.Agent.Verbosity, baseLogger.With("component", "summarizer")),
		Publisher:  snspub.NewPublisher(sns.NewFromConfig(awsCfg), cfg.Publish, baseLogger.With("component", "publisher")),
		Recorder:   recorder,
		Logger:     baseLogger.With("component", "runner"),
	})

	return app, nil
}

// RunOnce executes a single run triggered now.
func (a *Application) RunOnce(ctx context.Context) (domain.RunReport, error) {
	trigger := time.Now().In(a.cfg.Scheduler.Location())
	return a.runner.Execute(ctx, trigger)
}

// Runner exposes the orchestrator for scheduler wiring.
func (a *Application) Runner() *usecase.Runner {
	return a.runner
}

// RecentRuns reads the newest reports from the run archive.
func (a *Application) RecentRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if a.recorder == nil {
		return nil, fmt.Errorf("%w: run history requires database dsn", domain.ErrConfigInvalid)
	}
	return a.recorder.RecentRuns(ctx, limit)
}

// Close releases resources held by the application.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
