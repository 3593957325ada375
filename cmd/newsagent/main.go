package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/frodopackets/DeathStrandsing/internal/app"
	"github.com/frodopackets/DeathStrandsing/internal/config"
	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/infrastructure/scheduler"
	"github.com/frodopackets/DeathStrandsing/internal/logging"
	"github.com/frodopackets/DeathStrandsing/internal/usecase"
)

func main() {
	once := flag.Bool("once", true, "run one fetch-summarize-publish cycle and exit")
	cronMode := flag.Bool("cron", false, "keep running on the configured cron schedule")
	history := flag.Int("history", 0, "print the most recent N run reports and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	switch {
	case *history > 0:
		reports, err := application.RecentRuns(ctx, *history)
		if err != nil {
			logger.Error("run history unavailable", "error", err)
			os.Exit(1)
		}
		printHistory(reports)
	case *cronMode:
		if err := runScheduled(ctx, cfg, application, logger); err != nil {
			logger.Error("scheduler stopped", "error", err)
			os.Exit(1)
		}
	case *once:
		// The runner logs the outcome; a failed run only needs the exit code.
		if _, err := application.RunOnce(ctx); err != nil {
			os.Exit(1)
		}
	}
}

func runScheduled(ctx context.Context, cfg config.Config, application *app.Application, logger *slog.Logger) error {
	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, application.Runner())

	if err := sched.Start(ctx); err != nil {
		return err
	}
	logger.Info("scheduler started", "cron", cfg.Scheduler.CronExpression, "timezone", cfg.Scheduler.Timezone)

	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

func printHistory(reports []domain.RunReport) {
	if len(reports) == 0 {
		fmt.Println("no recorded runs")
		return
	}
	for _, r := range reports {
		status := string(r.State)
		if r.State == domain.StateFailed {
			status = fmt.Sprintf("%s (%s at %s)", r.State, r.Cause, r.FailedStage)
		}
		detail := fmt.Sprintf("articles=%d", r.Articles)
		if r.NoNews {
			detail = "no news"
		}
		fmt.Printf("%s  %s  %s  %s\n", r.StartedAt.Format(time.RFC3339), r.RunID, status, detail)
	}
}
