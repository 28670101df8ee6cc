package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"schema-sync/internal/dialect"
	"schema-sync/internal/engine"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the additive changes a reconciliation run would apply",
	RunE: func(cmd *cobra.Command, args []string) error {
		declared, err := loadDeclaredTables()
		if err != nil {
			return err
		}

		d := dialect.GetDialect(DriverName)

		fmt.Printf("Planning against %s (%d declared table(s))\n", DriverName, len(declared))
		plan, err := engine.Plan(context.Background(), DB, d, declared, SchemaName)
		if err != nil {
			return err
		}

		if plan.Empty() {
			fmt.Println("✓ Schema up to date. Nothing to apply.")
			return nil
		}

		fmt.Printf("🔍 %d pending operation(s):\n", plan.Len())
		for i, op := range plan.Ops {
			fmt.Printf("[%02d] %-14s %s.%s\n", i+1, op.Kind, op.Table, op.Object())
		}
		fmt.Println("\nNo DDL was issued. Run 'schema-sync apply' to execute.")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(planCmd)
}
