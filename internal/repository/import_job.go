package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

const importJobsTable = "import_jobs"

var importJobColumns = []string{
	"id", "source_path", "family", "format", "content_hash",
	"status", "item_count", "error_message", "started_at", "finished_at",
}

type ImportJobRepository interface {
	Start(ctx context.Context, job *entity.ImportJob) error
	Finish(ctx context.Context, id uuid.UUID, status constants.ImportStatus, itemCount int, message string) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error)
	// FindSucceededByHash returns common.ErrNotFound when no earlier
	// import of the same content succeeded.
	FindSucceededByHash(ctx context.Context, hash string) (*entity.ImportJob, error)
	List(ctx context.Context, limit int) ([]*entity.ImportJob, error)
}

type importJobRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewImportJobRepository(db *DB, logger *slog.Logger) ImportJobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &importJobRepo{db: db, logger: logger}
}

func (r *importJobRepo) Start(ctx context.Context, job *entity.ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = string(constants.ImportStatusRunning)
	}
	q, args := r.db.builder().Insert(importJobsTable).
		Columns(importJobColumns...).
		Values(job.ID.String(), job.SourcePath, job.Family, job.Format, job.ContentHash,
			job.Status, job.ItemCount, job.ErrorMessage, job.StartedAt, job.FinishedAt).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, q, args...); err != nil {
		r.logger.Error("import_job start failed", "source_path", job.SourcePath, "err", err)
		return fmt.Errorf("%w: insert import job: %v", common.ErrDatabase, err)
	}
	r.logger.Info("import_job started", "import_id", job.ID, "source_path", job.SourcePath, "format", job.Format)
	return nil
}

func (r *importJobRepo) Finish(ctx context.Context, id uuid.UUID, status constants.ImportStatus, itemCount int, message string) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: finish import job with status %s", common.ErrInvalidInput, status)
	}
	var msg *string
	if message != "" {
		msg = &message
	}
	q, args := r.db.builder().Update(importJobsTable).
		Set("status", string(status)).
		Set("item_count", itemCount).
		Set("error_message", msg).
		Set("finished_at", time.Now().UTC()).
		Where(entsql.EQ("id", id.String())).
		Query()
	res, err := r.db.SQL.ExecContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("import_job finish failed", "import_id", id, "status", status, "err", err)
		return fmt.Errorf("%w: finish import job: %v", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("import job %s: %w", id, common.ErrNotFound)
	}
	if status == constants.ImportStatusSucceeded {
		r.logger.Info("import_job finished", "import_id", id, "status", status, "items", itemCount)
	} else {
		r.logger.Warn("import_job finished", "import_id", id, "status", status, "error", message)
	}
	return nil
}

func (r *importJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error) {
	q, args := r.db.builder().Select(importJobColumns...).
		From(entsql.Table(importJobsTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	job, err := scanImportJob(r.db.SQL.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, fmt.Errorf("import job %s: %w", id, err)
	}
	return job, nil
}

func (r *importJobRepo) FindSucceededByHash(ctx context.Context, hash string) (*entity.ImportJob, error) {
	q, args := r.db.builder().Select(importJobColumns...).
		From(entsql.Table(importJobsTable)).
		Where(entsql.And(
			entsql.EQ("content_hash", hash),
			entsql.EQ("status", string(constants.ImportStatusSucceeded)),
		)).
		OrderBy(entsql.Desc("started_at")).
		Limit(1).
		Query()
	return scanImportJob(r.db.SQL.QueryRowContext(ctx, q, args...))
}

func (r *importJobRepo) List(ctx context.Context, limit int) ([]*entity.ImportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	q, args := r.db.builder().Select(importJobColumns...).
		From(entsql.Table(importJobsTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit).
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list import jobs", "error", err)
		return nil, fmt.Errorf("%w: list import jobs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.ImportJob
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImportJob(row rowScanner) (*entity.ImportJob, error) {
	var (
		job      entity.ImportJob
		id       string
		msg      sql.NullString
		finished sql.NullTime
	)
	err := row.Scan(&id, &job.SourcePath, &job.Family, &job.Format, &job.ContentHash,
		&job.Status, &job.ItemCount, &msg, &job.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan import job: %v", common.ErrDatabase, err)
	}
	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: import job id %q: %v", common.ErrDatabase, id, err)
	}
	if msg.Valid {
		job.ErrorMessage = &msg.String
	}
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	return &job, nil
}
