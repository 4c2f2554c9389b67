package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/joshjon/kit/errtag"
	"github.com/joshjon/kit/tx"
	sqlitelib "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/joshjon/relay/internal/notification"
)

var _ notification.Repository = (*NotificationRepository)(nil)

// NotificationRepository implements notification.Repository using SQLite.
// As with the Postgres sibling, there is no sqlc layer: every method issues
// hand-written SQL directly against DBTX.
type NotificationRepository struct {
	dbtx DBTX
	txer *tx.SQLiteRepositoryTxer[notification.Repository]
}

// NewNotificationRepository creates a NotificationRepository backed by the given SQLite DB.
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{
		dbtx: db,
		txer: tx.NewSQLiteRepositoryTxer(db, tx.SQLiteRepositoryTxerConfig[notification.Repository]{
			Timeout: tx.DefaultTimeout,
			WithTxFunc: func(repo notification.Repository, txer *tx.SQLiteRepositoryTxer[notification.Repository], sqlTx *sql.Tx) notification.Repository {
				cpy := *repo.(*NotificationRepository)
				cpy.dbtx = sqlTx
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
	_, err = r.dbtx.ExecContext(ctx, `
		INSERT INTO notifications (
			id, source_system, target_url, http_method, headers, body,
			status, retry_count, max_retries, next_retry_at,
			last_http_status, last_error, created_at, updated_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID.String(), t.SourceSystem, t.TargetURL, string(t.HTTPMethod), string(headers), string(t.Body),
		string(t.Status), t.RetryCount, t.MaxRetries, sqliteTimePtr(t.NextRetryAt),
		t.LastHTTPStatus, t.LastError, sqliteTime(t.CreatedAt), sqliteTime(t.UpdatedAt), sqliteTimePtr(t.CompletedAt),
	)
	return tagNotificationErr(err)
}

func (r *NotificationRepository) FindByTaskID(ctx context.Context, id notification.TaskID) (*notification.Task, error) {
	row := r.dbtx.QueryRowContext(ctx, `
		SELECT id, source_system, target_url, http_method, headers, body,
		       status, retry_count, max_retries, next_retry_at,
		       last_http_status, last_error, created_at, updated_at, completed_at
		FROM notifications WHERE id = ?
	`, id.String())
	return scanTaskRow(row)
}

func (r *NotificationRepository) CompareAndSetStatus(ctx context.Context, id notification.TaskID, expected, next notification.Status, now time.Time) (bool, error) {
	res, err := r.dbtx.ExecContext(ctx, `
		UPDATE notifications SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(next), sqliteTime(now), id.String(), string(expected))
	if err != nil {
		return false, tagNotificationErr(err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *NotificationRepository) Save(ctx context.Context, t *notification.Task) error {
	headers, err := marshalHeaders(t.Headers)
	if err != nil {
		return err
	}
	res, err := r.dbtx.ExecContext(ctx, `
		UPDATE notifications SET
			status = ?, retry_count = ?, max_retries = ?, next_retry_at = ?,
			last_http_status = ?, last_error = ?, updated_at = ?, completed_at = ?,
			headers = ?
		WHERE id = ?
	`,
		string(t.Status), t.RetryCount, t.MaxRetries, sqliteTimePtr(t.NextRetryAt),
		t.LastHTTPStatus, t.LastError, sqliteTime(t.UpdatedAt), sqliteTimePtr(t.CompletedAt),
		string(headers), t.ID.String(),
	)
	if err != nil {
		return tagNotificationErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errtag.Tag[notification.ErrTagTaskNotFound](errors.New("notification not found"))
	}
	return nil
}

func (r *NotificationRepository) FindDispatchable(ctx context.Context, now time.Time, limit int) ([]*notification.Task, error) {
	rows, err := r.dbtx.QueryContext(ctx, `
		SELECT id, source_system, target_url, http_method, headers, body,
		       status, retry_count, max_retries, next_retry_at,
		       last_http_status, last_error, created_at, updated_at, completed_at
		FROM notifications
		WHERE status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at ASC
		LIMIT ?
	`, string(notification.StatusPending), sqliteTime(now), limit)
	if err != nil {
		return nil, tagNotificationErr(err)
	}
	defer rows.Close()
	return scanTaskRows(rows)
}

func (r *NotificationRepository) FindStuck(ctx context.Context, threshold time.Time) ([]*notification.Task, error) {
	rows, err := r.dbtx.QueryContext(ctx, `
		SELECT id, source_system, target_url, http_method, headers, body,
		       status, retry_count, max_retries, next_retry_at,
		       last_http_status, last_error, created_at, updated_at, completed_at
		FROM notifications
		WHERE status = ? AND updated_at < ?
	`, string(notification.StatusProcessing), sqliteTime(threshold))
	if err != nil {
		return nil, tagNotificationErr(err)
	}
	defer rows.Close()
	return scanTaskRows(rows)
}

func (r *NotificationRepository) CountByStatus(ctx context.Context, status notification.Status) (int, error) {
	var n int
	err := r.dbtx.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE status = ?`, string(status)).Scan(&n)
	return n, tagNotificationErr(err)
}

func (r *NotificationRepository) WithTx(txn tx.Tx) notification.Repository {
	return r.txer.WithTx(r, txn)
}

func (r *NotificationRepository) BeginTxFunc(ctx context.Context, fn func(ctx context.Context, txn tx.Tx, repo notification.Repository) error) error {
	return r.txer.BeginTxFunc(ctx, r, fn)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskRow(row rowScanner) (*notification.Task, error) {
	var (
		t          notification.Task
		idStr      string
		method     string
		status     string
		headersRaw string
		body       string
		nextRetry  *string
		createdAt  string
		updatedAt  string
		completed  *string
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
	headers, err := unmarshalHeaders([]byte(headersRaw))
	if err != nil {
		return nil, err
	}
	createdAtT, err := parseSQLiteTime(createdAt)
	if err != nil {
		return nil, err
	}
	updatedAtT, err := parseSQLiteTime(updatedAt)
	if err != nil {
		return nil, err
	}
	nextRetryT, err := parseSQLiteTimePtr(nextRetry)
	if err != nil {
		return nil, err
	}
	completedT, err := parseSQLiteTimePtr(completed)
	if err != nil {
		return nil, err
	}

	t.ID = id
	t.HTTPMethod = notification.HTTPMethod(method)
	t.Status = notification.Status(status)
	t.Headers = headers
	t.Body = []byte(body)
	t.NextRetryAt = nextRetryT
	t.CreatedAt = createdAtT
	t.UpdatedAt = updatedAtT
	t.CompletedAt = completedT
	return &t, nil
}

func scanTaskRows(rows *sql.Rows) ([]*notification.Task, error) {
	var out []*notification.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
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
	if errors.Is(err, sql.ErrNoRows) {
		return errtag.Tag[notification.ErrTagTaskNotFound](err)
	}
	if isSQLiteErrCode(err, sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY) {
		return errtag.Tag[notification.ErrTagDuplicateTaskID](err)
	}
	return tx.TagSQLiteTimeoutErr(err)
}

func isSQLiteErrCode(err error, codes ...int) bool {
	var sqliteErr *sqlitelib.Error
	if errors.As(err, &sqliteErr) {
		for _, code := range codes {
			if sqliteErr.Code() == code {
				return true
			}
		}
	}
	return false
}
