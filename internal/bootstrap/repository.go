package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/skillforge/skillforge/internal/loggy"
	"github.com/skillforge/skillforge/internal/skill"
	"github.com/skillforge/skillforge/internal/ulid"
)

// DemoSet is a persisted demonstration selection for a skill. Demo order is
// significant: it is the order demonstrations appear in prompts.
type DemoSet struct {
	ID        string
	SkillName string
	Provider  string
	Model     string
	Threshold float64
	Demos     []skill.Demonstration
	CreatedAt time.Time
}

// Repository defines operations for persisting demonstration sets
type Repository interface {
	// SaveDemoSet persists a demonstration set
	SaveDemoSet(ctx context.Context, set *DemoSet) error

	// GetDemoSet retrieves a demonstration set by ID
	GetDemoSet(ctx context.Context, id string) (*DemoSet, error)

	// GetLatestDemoSet retrieves the newest demonstration set for a skill
	GetLatestDemoSet(ctx context.Context, skillName string) (*DemoSet, error)
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

// SaveDemoSet persists a demonstration set and its demonstrations in one
// transaction
func (r *SQLRepository) SaveDemoSet(ctx context.Context, set *DemoSet) error {
	if set.ID == "" {
		set.ID = ulid.DemoSetID()
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := squirrel.Insert("demo_sets").
		Columns("id", "skill_name", "provider", "model", "threshold", "created_at").
		Values(set.ID, set.SkillName, set.Provider, set.Model, set.Threshold, set.CreatedAt)

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building insert demo set query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("executing insert demo set query: %w", err)
	}

	for i := range set.Demos {
		demo := &set.Demos[i]
		if demo.ID == "" {
			demo.ID = ulid.DemoID()
		}

		q := squirrel.Insert("demonstrations").
			Columns("id", "set_id", "example_id", "code", "language", "response", "labeled", "score", "position").
			Values(demo.ID, set.ID, demo.ExampleID, demo.Code, demo.Language, demo.Response, demo.Labeled, demo.Score, i)

		query, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("building insert demonstration query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("executing insert demonstration query: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing demo set: %w", err)
	}

	r.logger.Debug("saved demonstration set", "set", set.ID, "demos", len(set.Demos))
	return nil
}

// GetDemoSet retrieves a demonstration set by ID
func (r *SQLRepository) GetDemoSet(ctx context.Context, id string) (*DemoSet, error) {
	q := squirrel.Select("id", "skill_name", "provider", "model", "threshold", "created_at").
		From("demo_sets").
		Where(squirrel.Eq{"id": id})

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get demo set query: %w", err)
	}

	var set DemoSet
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&set.ID, &set.SkillName, &set.Provider, &set.Model, &set.Threshold, &set.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("demonstration set not found: %s", id)
		}
		return nil, fmt.Errorf("executing get demo set query: %w", err)
	}

	demos, err := r.getDemos(ctx, set.ID)
	if err != nil {
		return nil, err
	}
	set.Demos = demos
	return &set, nil
}

// GetLatestDemoSet retrieves the newest demonstration set for a skill
func (r *SQLRepository) GetLatestDemoSet(ctx context.Context, skillName string) (*DemoSet, error) {
	q := squirrel.Select("id").
		From("demo_sets").
		Where(squirrel.Eq{"skill_name": skillName}).
		OrderBy("created_at DESC").
		Limit(1)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building latest demo set query: %w", err)
	}

	var id string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no demonstration set found for skill %q", skillName)
		}
		return nil, fmt.Errorf("executing latest demo set query: %w", err)
	}
	return r.GetDemoSet(ctx, id)
}

func (r *SQLRepository) getDemos(ctx context.Context, setID string) ([]skill.Demonstration, error) {
	q := squirrel.Select("id", "example_id", "code", "language", "response", "labeled", "score").
		From("demonstrations").
		Where(squirrel.Eq{"set_id": setID}).
		OrderBy("position ASC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get demonstrations query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing get demonstrations query: %w", err)
	}
	defer rows.Close()

	var demos []skill.Demonstration
	for rows.Next() {
		var demo skill.Demonstration
		if err := rows.Scan(&demo.ID, &demo.ExampleID, &demo.Code, &demo.Language,
			&demo.Response, &demo.Labeled, &demo.Score); err != nil {
			return nil, fmt.Errorf("scanning demonstration: %w", err)
		}
		demos = append(demos, demo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating demonstrations: %w", err)
	}
	return demos, nil
}
