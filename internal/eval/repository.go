package eval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/skillforge/skillforge/internal/extractor"
	"github.com/skillforge/skillforge/internal/loggy"
	"github.com/skillforge/skillforge/internal/ulid"
)

// Repository defines operations for persisting evaluation runs
type Repository interface {
	// SaveRun persists a run and its per-example results
	SaveRun(ctx context.Context, run *EvaluationRun) error

	// GetRun retrieves a run by ID including its example results
	GetRun(ctx context.Context, id string) (*EvaluationRun, error)

	// ListRuns retrieves recent runs, newest first, without example results
	ListRuns(ctx context.Context, limit, offset int) ([]*EvaluationRun, error)
}

// SQLRepository implements Repository using a SQL database
type SQLRepository struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLRepository creates a new SQL repository
func NewSQLRepository(db *sql.DB, logger *loggy.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

// SaveRun persists a run and its per-example results in one transaction
func (r *SQLRepository) SaveRun(ctx context.Context, run *EvaluationRun) error {
	if run.ID == "" {
		run.ID = ulid.RunID()
	}

	metricsJSON, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("marshaling run metrics: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := squirrel.Insert("runs").
		Columns("id", "name", "skill_name", "provider", "model", "demo_count", "metrics", "started_at", "completed_at").
		Values(run.ID, run.Name, run.SkillName, run.Provider, run.Model, run.DemoCount, metricsJSON, run.StartedAt, run.CompletedAt)

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building insert run query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("executing insert run query: %w", err)
	}

	for i := range run.Examples {
		ex := &run.Examples[i]
		if ex.ID == "" {
			ex.ID = ulid.ExampleID()
		}
		ex.RunID = run.ID
		if ex.CreatedAt.IsZero() {
			ex.CreatedAt = time.Now()
		}

		scoreJSON, err := json.Marshal(ex.Score)
		if err != nil {
			return fmt.Errorf("marshaling example score: %w", err)
		}

		q := squirrel.Insert("run_examples").
			Columns("id", "run_id", "example_id", "parse_status", "response", "predicted", "expected", "matched", "score", "duration_ms", "created_at").
			Values(ex.ID, ex.RunID, ex.ExampleID, string(ex.ParseStatus), ex.Response, ex.Predicted, ex.Expected, ex.Matched, scoreJSON, ex.Duration.Milliseconds(), ex.CreatedAt)

		query, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("building insert example query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("executing insert example query: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}

	r.logger.Debug("saved evaluation run", "run", run.ID, "examples", len(run.Examples))
	return nil
}

// GetRun retrieves a run by ID including its example results
func (r *SQLRepository) GetRun(ctx context.Context, id string) (*EvaluationRun, error) {
	q := squirrel.Select("id", "name", "skill_name", "provider", "model", "demo_count", "metrics", "started_at", "completed_at").
		From("runs").
		Where(squirrel.Eq{"id": id})

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get run query: %w", err)
	}

	run, err := scanRun(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, err
	}

	examples, err := r.getRunExamples(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Examples = examples
	return run, nil
}

// ListRuns retrieves recent runs, newest first, without example results
func (r *SQLRepository) ListRuns(ctx context.Context, limit, offset int) ([]*EvaluationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	q := squirrel.Select("id", "name", "skill_name", "provider", "model", "demo_count", "metrics", "started_at", "completed_at").
		From("runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list runs query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing list runs query: %w", err)
	}
	defer rows.Close()

	var runs []*EvaluationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func (r *SQLRepository) getRunExamples(ctx context.Context, runID string) ([]ExampleResult, error) {
	q := squirrel.Select("id", "run_id", "example_id", "parse_status", "response", "predicted", "expected", "matched", "score", "duration_ms", "created_at").
		From("run_examples").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("created_at ASC", "id ASC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get run examples query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing get run examples query: %w", err)
	}
	defer rows.Close()

	var examples []ExampleResult
	for rows.Next() {
		var (
			ex         ExampleResult
			status     string
			scoreJSON  []byte
			durationMs int64
		)
		if err := rows.Scan(&ex.ID, &ex.RunID, &ex.ExampleID, &status, &ex.Response,
			&ex.Predicted, &ex.Expected, &ex.Matched, &scoreJSON, &durationMs, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run example: %w", err)
		}
		ex.ParseStatus = extractor.ParseStatus(status)
		ex.Duration = time.Duration(durationMs) * time.Millisecond
		if len(scoreJSON) > 0 {
			if err := json.Unmarshal(scoreJSON, &ex.Score); err != nil {
				return nil, fmt.Errorf("unmarshaling example score: %w", err)
			}
		}
		examples = append(examples, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run examples: %w", err)
	}
	return examples, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*EvaluationRun, error) {
	var (
		run         EvaluationRun
		metricsJSON []byte
	)
	if err := row.Scan(&run.ID, &run.Name, &run.SkillName, &run.Provider, &run.Model,
		&run.DemoCount, &metricsJSON, &run.StartedAt, &run.CompletedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &run.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshaling run metrics: %w", err)
		}
	}
	return &run, nil
}
