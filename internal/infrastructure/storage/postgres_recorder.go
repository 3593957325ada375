// Package storage archives run outcomes in Postgres. The archive powers
// the local runner's history view; runs work fine without it.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

// PostgresRecorder persists run reports into the run_reports table.
type PostgresRecorder struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunRecorder = (*PostgresRecorder)(nil)

// NewPostgresRecorder wires a sql.DB implementation.
func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveRun upserts the report keyed by run id.
func (r *PostgresRecorder) SaveRun(ctx context.Context, report domain.RunReport) error {
	if r.db == nil {
		return nil
	}

	messageID := ""
	if report.Receipt != nil {
		messageID = report.Receipt.MessageID
	}

	query, args, err := r.builder.
		Insert("run_reports").
		Columns("run_id", "topic", "state", "failed_stage", "cause",
			"article_count", "scored_count", "no_news", "message_id",
			"started_at", "finished_at").
		Values(report.RunID, report.Topic, string(report.State), string(report.FailedStage), report.Cause,
			report.Articles, report.Scored, report.NoNews, messageID,
			report.StartedAt, report.FinishedAt).
		Suffix(`ON CONFLICT (run_id) DO UPDATE
             SET state = EXCLUDED.state,
                 failed_stage = EXCLUDED.failed_stage,
                 cause = EXCLUDED.cause,
                 article_count = EXCLUDED.article_count,
                 scored_count = EXCLUDED.scored_count,
                 no_news = EXCLUDED.no_news,
                 message_id = EXCLUDED.message_id,
                 finished_at = EXCLUDED.finished_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}

	return nil
}

// RecentRuns returns the newest reports, most recent first.
func (r *PostgresRecorder) RecentRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query, args, err := r.builder.
		Select("run_id", "topic", "state", "failed_stage", "cause",
			"article_count", "scored_count", "no_news", "message_id",
			"started_at", "finished_at").
		From("run_reports").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var reports []domain.RunReport
	for rows.Next() {
		var (
			report    domain.RunReport
			state     string
			stage     string
			messageID string
		)
		if err := rows.Scan(&report.RunID, &report.Topic, &state, &stage, &report.Cause,
			&report.Articles, &report.Scored, &report.NoNews, &messageID,
			&report.StartedAt, &report.FinishedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		report.State = domain.RunState(state)
		report.FailedStage = domain.Stage(stage)
		if messageID != "" {
			report.Receipt = &domain.DeliveryReceipt{Accepted: true, MessageID: messageID}
		}
		reports = append(reports, report)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return reports, nil
}
