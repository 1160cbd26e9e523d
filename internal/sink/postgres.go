package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/honey-quality-etl/internal/types"
)

// Postgres loads batches into a Postgres table using one transaction per
// batch with upsert-by-(batch_id, sample_id). Reloading an identical batch
// is a no-op at the row level, never a duplicate insert.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL, table string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool, table: table}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// EnsureSchema creates the output and run-report tables if they do not
// exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			batch_id          TEXT NOT NULL,
			sample_id         TEXT NOT NULL,
			moisture          DOUBLE PRECISION NOT NULL,
			ph                DOUBLE PRECISION NOT NULL,
			diastase_activity DOUBLE PRECISION NOT NULL,
			h_m_f             DOUBLE PRECISION NOT NULL,
			quality_score     DOUBLE PRECISION NOT NULL,
			quality_category  TEXT NOT NULL,
			compliance_status TEXT NOT NULL,
			lab_id            TEXT,
			analyst           TEXT,
			region            TEXT,
			collection_date   TIMESTAMPTZ NOT NULL,
			processed_at      TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (batch_id, sample_id)
		)`, p.tableIdent()),
		`CREATE TABLE IF NOT EXISTS etl_runs (
			run_id        UUID PRIMARY KEY,
			source_path   TEXT,
			batch_key     TEXT,
			status        TEXT NOT NULL,
			failure_cause TEXT,
			extracted     INTEGER NOT NULL,
			valid         INTEGER NOT NULL,
			invalid       INTEGER NOT NULL,
			loaded        INTEGER NOT NULL,
			rejections    JSONB,
			started_at    TIMESTAMPTZ NOT NULL,
			finished_at   TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Load commits the batch in a single transaction: either every row is
// visible afterwards or none is.
func (p *Postgres) Load(ctx context.Context, batchKey string, records []types.CategorizedRecord) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return &LoadError{BatchKey: batchKey, Message: "cannot begin transaction", Retryable: true, Cause: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`INSERT INTO %s
		(batch_id, sample_id, moisture, ph, diastase_activity, h_m_f,
		 quality_score, quality_category, compliance_status,
		 lab_id, analyst, region, collection_date, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (batch_id, sample_id) DO UPDATE SET
			moisture = $3, ph = $4, diastase_activity = $5, h_m_f = $6,
			quality_score = $7, quality_category = $8, compliance_status = $9,
			lab_id = $10, analyst = $11, region = $12,
			collection_date = $13, processed_at = $14`, p.tableIdent())

	batch := &pgx.Batch{}
	for _, rec := range records {
		m := rec.Measurements
		batch.Queue(query,
			rec.Raw.BatchID, rec.Raw.SampleID,
			m.Moisture, m.PH, m.DiastaseActivity, m.HMF,
			rec.QualityScore, string(rec.QualityCategory), string(rec.ComplianceStatus),
			rec.Raw.LabID, rec.Raw.Analyst, rec.Raw.Region,
			rec.CollectionDate, rec.ProcessedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return classifyLoadError(batchKey, err)
		}
	}
	if err := results.Close(); err != nil {
		return classifyLoadError(batchKey, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return &LoadError{BatchKey: batchKey, Message: "cannot commit batch", Retryable: true, Cause: err}
	}
	return nil
}

// SaveRunReport persists the finalized run report once per invocation.
func (p *Postgres) SaveRunReport(ctx context.Context, report *types.RunReport) error {
	rejections, err := json.Marshal(report.Rejections)
	if err != nil {
		return fmt.Errorf("failed to marshal rejections: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO etl_runs
			(run_id, source_path, batch_key, status, failure_cause,
			 extracted, valid, invalid, loaded, rejections, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (run_id) DO NOTHING`,
		report.RunID, report.SourcePath, report.BatchKey, string(report.Status), report.FailureCause,
		report.Extracted, report.Valid, report.Invalid, report.Loaded, rejections,
		report.StartedAt, report.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}
	return nil
}

// tableIdent returns the configured table name as a safely quoted
// identifier; table names cannot be bound as query parameters.
func (p *Postgres) tableIdent() string {
	table := p.table
	if table == "" {
		table = "honey_quality_data"
	}
	parts := strings.Split(table, ".")
	return pgx.Identifier(parts).Sanitize()
}

// classifyLoadError maps Postgres failures onto the sink error taxonomy:
// integrity violations (SQLSTATE class 23) are fatal for the batch,
// everything else is treated as connectivity and retryable.
func classifyLoadError(batchKey string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return &LoadError{BatchKey: batchKey, Message: "constraint violation", Retryable: false, Cause: err}
	}
	return &LoadError{BatchKey: batchKey, Message: "batch write failed", Retryable: true, Cause: err}
}
