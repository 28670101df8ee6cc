package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dsn        string
	DB         *sql.DB
	SchemaName string // Only relevant for MySQL/MSSQL mostly, or passed to the introspector
	cfgFile    string
	DriverName string // "postgres", "mysql", "sqlserver", "oracle", "sqlite"
)

var RootCmd = &cobra.Command{
	Use:   "schema-sync",
	Short: "Additive schema reconciliation for relational databases",
	Long: `
  ___  ___ _  _ ___ __  __   _     ___ _   _ _  _  ___
 / __|/ __| || | __|  \/  | /_\   / __| | | | \| |/ __|
 \__ \ (__| __ | _|| |\/| |/ _ \  \__ \ |_| | .' | (__
 |___/\___|_||_|___|_|  |_/_/ \_\ |___/\___/|_|\_|\___|

SCHEMA SYNC - declared-model vs live-schema reconciliation.
Compares your declared tables against the live catalog and applies the
minimal additive changes (columns, indexes, constraints). Never drops,
never alters, never blocks startup.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Use Viper to get DSN (Flag > Config > Default)
		connStr := viper.GetString("database.dsn")
		configDriver := viper.GetString("database.driver")

		// Fall back to the databases list with an active entry.
		if connStr == "" {
			cfg, err := GetActiveDBConfig()
			if err != nil {
				return fmt.Errorf("database.dsn is required (via flag, config, or an active databases entry): %w", err)
			}
			connStr = cfg.DSN
			configDriver = cfg.Driver
		}

		// Explicit driver from config wins, fall back to detection.
		if configDriver != "" {
			DriverName = configDriver
		} else {
			switch {
			case strings.Contains(connStr, "postgres") || strings.Contains(connStr, "sslmode"):
				DriverName = "postgres"
			case strings.Contains(connStr, "oracle"):
				DriverName = "oracle"
			case strings.HasSuffix(connStr, ".db") || strings.Contains(connStr, ":memory:"):
				DriverName = "sqlite"
			default:
				DriverName = "mysql"
			}
		}

		var err error
		DB, err = sql.Open(DriverName, connStr)
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		if err := DB.Ping(); err != nil {
			return fmt.Errorf("failed to connect to db: %w", err)
		}

		// Fetch current database/schema name for the introspector
		switch DriverName {
		case "mysql":
			if err := DB.QueryRow("SELECT DATABASE()").Scan(&SchemaName); err != nil {
				return fmt.Errorf("failed to get database name: %w", err)
			}
			if SchemaName == "" {
				return fmt.Errorf("no database selected in DSN")
			}
		case "sqlserver", "mssql":
			SchemaName = "dbo"
		case "postgres":
			SchemaName = "public"
		}

		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newLogger builds the structured logger the engine reports through.
func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "schema-sync").Logger()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Define flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./schema-sync.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database Source Name (DSN)")

	// Bind dsn flag to viper
	viper.BindPFlag("database.dsn", RootCmd.PersistentFlags().Lookup("dsn"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			exePath := filepath.Dir(ex)
			viper.AddConfigPath(exePath)
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("schema-sync")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
