// Package engine reconciles a declared data model against a live database
// schema at process startup. It is strictly additive and strictly
// best-effort: whatever happens in here, the hosting process still starts
// and serves. Outcomes surface through logs and the returned Result, never
// through a crash.
package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"schema-sync/internal/dialect"
	"schema-sync/internal/diff"
	"schema-sync/internal/schema"
)

const (
	// DefaultLockKey is the advisory lock identity shared by all instances
	// of one deployment. Stable on purpose.
	DefaultLockKey = 834726

	// DefaultLockTimeout keeps boot snappy when another instance holds the
	// lock.
	DefaultLockTimeout = 3 * time.Second
)

type Options struct {
	// Enabled gates the whole run; false skips reconciliation and leaves
	// the schema exactly as-is.
	Enabled     bool
	SchemaName  string
	LockKey     int64
	LockTimeout time.Duration
	Logger      zerolog.Logger
	// OnProgress is called once per executed operation.
	OnProgress func()
}

func (o *Options) fill() {
	if o.LockKey == 0 {
		o.LockKey = DefaultLockKey
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = DefaultLockTimeout
	}
}

// Plan introspects the live schema and computes the additive plan without
// taking the lock or executing anything. Read-only; used by dry runs.
func Plan(ctx context.Context, db *sql.DB, d dialect.Dialect, declared []*schema.Table, schemaName string) (*diff.Plan, error) {
	names := make([]string, len(declared))
	for i, t := range declared {
		names[i] = t.Name
	}
	live, err := schema.Introspect(db, d, d.GetSchemaName(schemaName), names)
	if err != nil {
		return nil, &IntrospectionError{Err: err}
	}
	return diff.Build(declared, live), nil
}

// Reconcile runs one full pass: acquire the startup lock, introspect,
// diff, apply. A non-nil error (ErrLockTimeout, *IntrospectionError, or a
// lock acquisition failure) is advisory: the documented policy is to log it
// and continue serving. Per-operation failures live in the Result, not in
// the error.
func Reconcile(ctx context.Context, db *sql.DB, d dialect.Dialect, declared []*schema.Table, opts Options) (*Result, error) {
	opts.fill()
	log := opts.Logger
	start := time.Now()

	if !opts.Enabled {
		log.Info().Msg("schema reconciliation disabled, skipping")
		return &Result{Skipped: true, Reason: ErrDisabled}, nil
	}

	lock, err := acquireStartupLock(ctx, db, d, opts.LockKey, opts.LockTimeout)
	if err != nil {
		log.Warn().Err(err).Msg("skipping reconciliation: another instance holds the startup lock or it is unreachable")
		return &Result{Skipped: true, Reason: err, Elapsed: time.Since(start)}, err
	}
	defer lock.Release()

	plan, err := Plan(ctx, db, d, declared, opts.SchemaName)
	if err != nil {
		log.Error().Err(err).Msg("aborting reconciliation: live schema unreadable")
		return &Result{Skipped: true, Reason: err, Elapsed: time.Since(start)}, err
	}

	if plan.Empty() {
		log.Info().Msg("schema up to date, nothing to apply")
		return &Result{Elapsed: time.Since(start)}, nil
	}

	log.Info().Int("operations", plan.Len()).Msg("applying schema changes")
	exec := &executor{db: db, d: d, log: log, onProgress: opts.OnProgress}
	res := &Result{Outcomes: exec.apply(ctx, plan), Elapsed: time.Since(start)}

	applied, present, failed, deferred := res.Counts()
	log.Info().
		Int("applied", applied).
		Int("already_present", present).
		Int("failed", failed).
		Int("deferred", deferred).
		Dur("elapsed", res.Elapsed).
		Msg("schema reconciliation complete")
	return res, nil
}
