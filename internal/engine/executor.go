package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"schema-sync/internal/dialect"
	"schema-sync/internal/diff"
)

// Status is the per-operation outcome.
type Status string

const (
	StatusApplied        Status = "applied"
	StatusAlreadyPresent Status = "already-present"
	StatusFailed         Status = "failed"
	// StatusDeferred marks index/constraint work for a table whose column
	// pass failed: it is not attempted against a partially-updated table
	// and will be picked up by the next run's diff.
	StatusDeferred Status = "deferred"
)

type OpResult struct {
	Op     diff.Operation
	Status Status
	Err    error
}

// Result is the outcome of one reconciliation run. Produced, logged, and
// discarded; the database catalog itself is the only persisted artifact.
type Result struct {
	Outcomes []OpResult
	Skipped  bool
	Reason   error
	Elapsed  time.Duration
}

func (r *Result) Counts() (applied, present, failed, deferred int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusApplied:
			applied++
		case StatusAlreadyPresent:
			present++
		case StatusFailed:
			failed++
		case StatusDeferred:
			deferred++
		}
	}
	return
}

// OK reports whether the run completed with no failed operations. Deferred
// and already-present operations do not count against it.
func (r *Result) OK() bool {
	if r.Skipped {
		return false
	}
	_, _, failed, _ := r.Counts()
	return failed == 0
}

type executor struct {
	db         *sql.DB
	d          dialect.Dialect
	log        zerolog.Logger
	onProgress func()
}

// apply runs every operation with per-statement error isolation: a failing
// column addition never blocks unrelated columns or tables. "Already exists"
// is a legitimate race outcome (a concurrent creator beat us to it) and is
// reported as success. No rollback is attempted; every operation is additive
// and individually safe to leave behind.
func (e *executor) apply(ctx context.Context, plan *diff.Plan) []OpResult {
	results := make([]OpResult, 0, plan.Len())

	// Tables whose column pass had a real failure; their index and
	// constraint work is deferred to the next run. Column operations for a
	// table always precede its index operations in plan order, so a single
	// pass sees failures before it reaches the work they poison.
	failedTables := make(map[string]bool)

	for _, op := range plan.Ops {
		res := OpResult{Op: op}

		switch op.Kind {
		case diff.OpAddIndex, diff.OpAddConstraint:
			if failedTables[op.Table] {
				res.Status = StatusDeferred
				e.report(res)
				results = append(results, res)
				continue
			}
		}

		stmt := e.render(op)
		_, err := e.db.ExecContext(ctx, stmt)
		switch {
		case err == nil:
			res.Status = StatusApplied
		case e.d.IsDuplicateObject(err):
			res.Status = StatusAlreadyPresent
		default:
			res.Status = StatusFailed
			res.Err = &OperationError{Table: op.Table, Object: op.Object(), Err: err}
			if op.Kind == diff.OpAddColumn || op.Kind == diff.OpCreateTable {
				failedTables[op.Table] = true
			}
		}

		e.report(res)
		results = append(results, res)
	}
	return results
}

func (e *executor) render(op diff.Operation) string {
	switch op.Kind {
	case diff.OpCreateTable:
		return e.d.CreateTableQuery(op.TableSpec)
	case diff.OpAddColumn:
		return e.d.AddColumnQuery(op.Table, op.Column)
	case diff.OpAddIndex:
		return e.d.CreateIndexQuery(op.Index)
	default:
		return e.d.AddConstraintQuery(op.Constraint)
	}
}

func (e *executor) report(res OpResult) {
	ev := e.log.Info()
	if res.Status == StatusFailed {
		ev = e.log.Error().Err(res.Err)
	}
	ev.Str("table", res.Op.Table).
		Str("object", res.Op.Object()).
		Str("kind", string(res.Op.Kind)).
		Str("status", string(res.Status)).
		Msg("schema operation")

	if e.onProgress != nil {
		e.onProgress()
	}
}
