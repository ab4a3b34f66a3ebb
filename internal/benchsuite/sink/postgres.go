package sink

import (
	"encoding/json"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/benchcontext"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/bencherrors"
)

const benchmarkRunTable = "benchmark_run"

// PostgresSink records finalized runs in postgres, one row per envelope, with
// the full report stored as jsonb for ad hoc querying.
type PostgresSink struct {
	db *pgxpool.Pool
}

func NewPostgresSink(ctx *benchcontext.Context, db *pgxpool.Pool) (*PostgresSink, error) {
	if db == nil {
		return nil, errors.WithStack(&bencherrors.ErrInvalidArgument{
			Name:    "db",
			Value:   db,
			Message: "db must be non-nil",
		})
	}
	if err := createTableIfNotExists(ctx, db); err != nil {
		return nil, errors.WithStack(err)
	}
	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) Store(ctx *benchcontext.Context, envelope *Envelope) error {
	sql, args, err := insertBenchmarkRunSQL(envelope)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// insertBenchmarkRunSQL builds the prepared insert statement for one envelope.
func insertBenchmarkRunSQL(envelope *Envelope) (string, []interface{}, error) {
	reportJson, err := json.Marshal(envelope.Report)
	if err != nil {
		return "", nil, errors.WithStack(err)
	}
	r := envelope.Report
	return goqu.Dialect("postgres").
		Insert(benchmarkRunTable).
		Prepared(true).
		Rows(goqu.Record{
			"id":                uuid.NewString(),
			"run_id":            envelope.Metadata.RunID,
			"name":              r.Name,
			"started_at":        r.SuiteStartedAt,
			"load_tests":        len(r.LoadTests),
			"failed_load_tests": r.FailedLoadTests(),
			"workflows":         len(r.Workflows),
			"failed_workflows":  r.FailedWorkflows(),
			"report":            reportJson,
		}).
		ToSQL()
}

func createTableIfNotExists(ctx *benchcontext.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS benchmark_run (
		    id UUID PRIMARY KEY,
		    run_id TEXT NOT NULL,
		    name TEXT NOT NULL,
		    started_at TIMESTAMP NOT NULL,
		    load_tests INT NOT NULL,
		    failed_load_tests INT NOT NULL,
		    workflows INT NOT NULL,
		    failed_workflows INT NOT NULL,
		    report JSONB NOT NULL
	);`)
	return err
}
