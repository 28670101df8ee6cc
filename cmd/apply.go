package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"schema-sync/internal/dialect"
	"schema-sync/internal/engine"
	"schema-sync/internal/schema"
)

var (
	tables  []string
	timeout time.Duration
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile the live schema with the declared model",
	RunE: func(cmd *cobra.Command, args []string) error {
		declared, err := loadDeclaredTables()
		if err != nil {
			return err
		}

		d := dialect.GetDialect(DriverName)
		logger := newLogger()
		enabled, lockKey, lockTimeout := GetReconcileSettings()
		if timeout > 0 { // Flag override
			lockTimeout = timeout
		}

		fmt.Printf("Reconciling %d declared table(s) via %s\n", len(declared), DriverName)
		start := time.Now()

		// Progress bar over executed operations
		uiprogress.Start()
		bar := uiprogress.AddBar(100).AppendCompleted().PrependElapsed()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Applying:   "
		})

		res, runErr := engine.Reconcile(context.Background(), DB, d, declared, engine.Options{
			Enabled:     enabled,
			SchemaName:  SchemaName,
			LockKey:     lockKey,
			LockTimeout: lockTimeout,
			Logger:      logger,
			OnProgress: func() {
				bar.Incr()
			},
		})

		uiprogress.Stop()

		// Lock timeouts and unreadable metadata skip the run by design:
		// another instance is doing the work, or the schema is assumed
		// unchanged. Either way the host keeps booting, so exit zero.
		if runErr != nil {
			if errors.Is(runErr, engine.ErrLockTimeout) {
				fmt.Println("⏭  Skipped: another instance holds the startup lock.")
				return nil
			}
			var introspection *engine.IntrospectionError
			if errors.As(runErr, &introspection) {
				fmt.Printf("⏭  Skipped: %v\n", introspection)
				return nil
			}
			return runErr
		}

		if res.Skipped {
			fmt.Println("⏭  Reconciliation disabled in config; schema left as-is.")
			return nil
		}

		elapsed := time.Since(start)

		// Final report
		fmt.Println("\n📊 Reconciliation Report (declaration order):")
		for i, o := range res.Outcomes {
			icon := "✓"
			if o.Status == engine.StatusFailed {
				icon = "!"
			}
			fmt.Printf("[%s] [%02d/%02d] %-20s %-14s : %s - %s\n",
				icon, i+1, len(res.Outcomes), o.Op.Table, o.Op.Object(), o.Op.Kind, o.Status)
			if o.Err != nil {
				fmt.Printf("    └ Error: %v\n", o.Err)
			}
		}
		applied, present, failed, deferred := res.Counts()
		fmt.Println("--------------------------------------------------")
		fmt.Printf("Applied: %d | Already present: %d | Failed: %d | Deferred: %d\n",
			applied, present, failed, deferred)
		fmt.Printf("Done! Time Elapsed: %s\n", elapsed)

		return nil
	},
}

// loadDeclaredTables builds the immutable declared snapshot for this run,
// optionally narrowed by --tables (flag > config > all).
func loadDeclaredTables() ([]*schema.Table, error) {
	declared, err := schema.LoadDeclared(viper.GetViper())
	if err != nil {
		return nil, err
	}

	targetNames := tables
	if len(targetNames) == 0 {
		targetNames = viper.GetStringSlice("reconcile.tables")
	}
	if len(targetNames) == 0 {
		return declared, nil
	}

	requested := make(map[string]bool)
	for _, t := range targetNames {
		requested[strings.ToLower(t)] = true
	}

	var filtered []*schema.Table
	for _, t := range declared {
		if requested[strings.ToLower(t.Name)] {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no matching tables found for inputs: %v", targetNames)
	}
	return filtered, nil
}

func init() {
	RootCmd.AddCommand(applyCmd)

	// CLI Flags
	applyCmd.Flags().StringSliceVarP(&tables, "tables", "t", []string{}, "Specific tables to reconcile (comma-separated)")
	applyCmd.Flags().DurationVar(&timeout, "lock-timeout", 0, "Startup lock wait (overrides config)")

	viper.SetDefault("reconcile.enabled", true)
	viper.SetDefault("reconcile.lock_timeout", engine.DefaultLockTimeout)
}
