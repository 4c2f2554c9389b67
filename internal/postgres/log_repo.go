package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joshjon/relay/internal/notiflog"
	"github.com/joshjon/relay/internal/notification"
)

var _ notiflog.Repository = (*LogRepository)(nil)

// LogRepository implements notiflog.Repository using PostgreSQL.
type LogRepository struct {
	dbtx DBTX
}

// NewLogRepository creates a LogRepository backed by the given pgx pool.
func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{dbtx: pool}
}

func (r *LogRepository) Append(ctx context.Context, e *notiflog.Entry) error {
	_, err := r.dbtx.Exec(ctx, `
		INSERT INTO notification_logs (
			id, task_id, attempt_number, http_status, response_body,
			error_message, latency_ms, success, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		e.ID.String(), e.TaskID.String(), e.AttemptNumber, e.HTTPStatus, e.ResponseBody,
		e.ErrorMessage, e.LatencyMs, e.Success, pgTimestamptz(e.CreatedAt),
	)
	return err
}

func (r *LogRepository) FindByTaskID(ctx context.Context, taskID notification.TaskID) ([]*notiflog.Entry, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT id, task_id, attempt_number, http_status, response_body,
		       error_message, latency_ms, success, created_at
		FROM notification_logs
		WHERE task_id = $1
		ORDER BY attempt_number ASC
	`, taskID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*notiflog.Entry
	for rows.Next() {
		var (
			e         notiflog.Entry
			idStr     string
			taskIDStr string
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&idStr, &taskIDStr, &e.AttemptNumber, &e.HTTPStatus, &e.ResponseBody,
			&e.ErrorMessage, &e.LatencyMs, &e.Success, &createdAt); err != nil {
			return nil, err
		}
		id, err := notiflog.ParseEntryID(idStr)
		if err != nil {
			return nil, err
		}
		tid, err := notification.ParseTaskID(taskIDStr)
		if err != nil {
			return nil, err
		}
		e.ID = id
		e.TaskID = tid
		e.CreatedAt = createdAt.Time
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *LogRepository) RecentLatenciesMs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT latency_ms FROM notification_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var latency int64
		if err := rows.Scan(&latency); err != nil {
			return nil, err
		}
		out = append(out, latency)
	}
	return out, rows.Err()
}
