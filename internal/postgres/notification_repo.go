package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshjon/kit/errtag"
	"github.com/joshjon/kit/tx"

	"github.com/joshjon/relay/internal/notification"
)

var _ notification.Repository = (*NotificationRepository)(nil)

// NotificationRepository implements notification.Repository using
// PostgreSQL. There is no sqlc layer here (none was available to generate
// against); each method issues hand-written SQL directly against DBTX,
// following the same one-method-per-operation shape the teacher's sqlc
// wrapper used.
type NotificationRepository struct {
	dbtx DBTX
	txer *tx.PGXRepositoryTxer[notification.Repository]
}

// NewNotificationRepository creates a NotificationRepository backed by the given pgx pool.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{
		dbtx: pool,
		txer: tx.NewPGXRepositoryTxer(pool, tx.PGXRepositoryTxerConfig[notification.Repository]{
			Timeout: tx.DefaultTimeout,
			WithTxFunc: func(repo notification.Repository, txer *tx.PGXRepositoryTxer[notification.Repository], pgxTx pgx.Tx) notification.Repository {
				cpy := *repo.(*NotificationRepository)
				cpy.dbtx = pgxTx
				cpy.txer = txer
				return notification.Repository(&cpy)
			},
		}),
	}
}

func (r *NotificationRepository) Insert(ctx context.Context, t *notification.Task) error {
	headers, err := marshalHeaders(t.Headers)
	if err != nil {
		return err
	}
	_, err = r.dbtx.Exec(ctx, `
		INSERT INTO notifications (
			id, source_system, target_url, http_method, headers, body,
			status, retry_count, max_retries, next_retry_at,
			last_http_status, last_error, created_at, updated_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		t.ID.String(), t.SourceSystem, t.TargetURL, string(t.HTTPMethod), headers, []byte(t.Body),
		string(t.Status), t.RetryCount, t.MaxRetries, pgTimestamptzPtr(t.NextRetryAt),
		t.LastHTTPStatus, t.LastError, pgTimestamptz(t.CreatedAt), pgTimestamptz(t.UpdatedAt), pgTimestamptzPtr(t.CompletedAt),
	)
	return tagNotificationErr(err)
}

func (r *NotificationRepository) FindByTaskID(ctx context.Context, id notification.TaskID) (*notification.Task, error) {
	row := r.dbtx.QueryRow(ctx, `
		SELECT id, source_system, target_url, http_method, headers, body,
		       status, retry_count, max_retries, next_retry_at,
		       last_http_status, last_error, created_at, updated_at, completed_at
		FROM notifications WHERE id = $1
	`, id.String())
	return scanTask(row)
}

func (r *NotificationRepository) CompareAndSetStatus(ctx context.Context, id notification.TaskID, expected, next notification.Status, now time.Time) (bool, error) {
	tag, err := r.dbtx.Exec(ctx, `
		UPDATE notifications SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, string(next), pgTimestamptz(now), id.String(), string(expected))
	if err != nil {
		return false, tagNotificationErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *NotificationRepository) Save(ctx context.Context, t *notification.Task) error {
	headers, err := marshalHeaders(t.Headers)
	if err != nil {
		return err
	}
	tag, err := r.dbtx.Exec(ctx, `
		UPDATE notifications SET
			status = $1, retry_count = $2, max_retries = $3, next_retry_at = $4,
			last_http_status = $5, last_error = $6, updated_at = $7, completed_at = $8,
			headers = $9
		WHERE id = $10
	`,
		string(t.Status), t.RetryCount, t.MaxRetries, pgTimestamptzPtr(t.NextRetryAt),
		t.LastHTTPStatus, t.LastError, pgTimestamptz(t.UpdatedAt), pgTimestamptzPtr(t.CompletedAt),
		headers, t.ID.String(),
	)
	if err != nil {
		return tagNotificationErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errtag.Tag[notification.ErrTagTaskNotFound](errors.New("notification not found"))
	}
	return nil
}

func (r *NotificationRepository) FindDispatchable(ctx context.Context, now time.Time, limit int) ([]*notification.Task, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT id, source_system, target_url, http_method, headers, body,
		       status, retry_count, max_retries, next_retry_at,
		       last_http_status, last_error, created_at, updated_at, completed_at
		FROM notifications
		WHERE status = $1 AND (next_retry_at IS NULL OR next_retry_at <= $2)
		ORDER BY created_at ASC
		LIMIT $3
	`, string(notification.StatusPending), pgTimestamptz(now), limit)
	if err != nil {
		return nil, tagNotificationErr(err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *NotificationRepository) FindStuck(ctx context.Context, threshold time.Time) ([]*notification.Task, error) {
	rows, err := r.dbtx.Query(ctx, `
		SELECT id, source_system, target_url, http_method, headers, body,
		       status, retry_count, max_retries, next_retry_at,
		       last_http_status, last_error, created_at, updated_at, completed_at
		FROM notifications
		WHERE status = $1 AND updated_at < $2
	`, string(notification.StatusProcessing), pgTimestamptz(threshold))
	if err != nil {
		return nil, tagNotificationErr(err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *NotificationRepository) CountByStatus(ctx context.Context, status notification.Status) (int, error) {
	var n int
	err := r.dbtx.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE status = $1`, string(status)).Scan(&n)
	return n, tagNotificationErr(err)
}

func (r *NotificationRepository) WithTx(txn tx.Tx) notification.Repository {
	return r.txer.WithTx(r, txn)
}

func (r *NotificationRepository) BeginTxFunc(ctx context.Context, fn func(ctx context.Context, txn tx.Tx, repo notification.Repository) error) error {
	return r.txer.BeginTxFunc(ctx, r, fn)
}

func scanTask(row pgx.Row) (*notification.Task, error) {
	var (
		t          notification.Task
		idStr      string
		method     string
		status     string
		headersRaw []byte
		body       []byte
		nextRetry  pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
		completed  pgtype.Timestamptz
	)
	err := row.Scan(
		&idStr, &t.SourceSystem, &t.TargetURL, &method, &headersRaw, &body,
		&status, &t.RetryCount, &t.MaxRetries, &nextRetry,
		&t.LastHTTPStatus, &t.LastError, &createdAt, &updatedAt, &completed,
	)
	if err != nil {
		return nil, tagNotificationErr(err)
	}
	id, err := notification.ParseTaskID(idStr)
	if err != nil {
		return nil, err
	}
	headers, err := unmarshalHeaders(headersRaw)
	if err != nil {
		return nil, err
	}
	t.ID = id
	t.HTTPMethod = notification.HTTPMethod(method)
	t.Status = notification.Status(status)
	t.Headers = headers
	t.Body = body
	t.NextRetryAt = fromPgTimestamptz(nextRetry)
	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time
	t.CompletedAt = fromPgTimestamptz(completed)
	return &t, nil
}

func scanTasks(rows pgx.Rows) ([]*notification.Task, error) {
	var out []*notification.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func tagNotificationErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errtag.Tag[notification.ErrTagTaskNotFound](err)
	}
	if isPGErrCode(err, pgerrcode.UniqueViolation) {
		return errtag.Tag[notification.ErrTagDuplicateTaskID](err)
	}
	return tx.TagPGXTimeoutErr(err)
}

func isPGErrCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
