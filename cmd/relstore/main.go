// Package main contains the CLI for the relational storage layer. It uses
// cobra for command dispatch, mirroring the teacher tool's command
// structure: one subcommand per Database operation, flags bound to a
// per-command options struct, fmt.Errorf for wrapped errors.
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"relstore/internal/config"
	"relstore/internal/core"
	"relstore/internal/kv"
	"relstore/internal/store"
	"relstore/internal/tuple"
)

type commonFlags struct {
	configPath string
}

type createTableFlags struct {
	commonFlags
	tableFile string
}

type addIndexFlags struct {
	commonFlags
	table  string
	name   string
	fields []string
}

type insertFlags struct {
	commonFlags
	table      string
	recordFile string
}

type getFlags struct {
	commonFlags
	table string
	pk    []string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "relstore",
		Short: "Relational storage layer over an ordered transactional key-value store",
	}

	rootCmd.AddCommand(createTableCmd())
	rootCmd.AddCommand(addIndexCmd())
	rootCmd.AddCommand(insertCmd())
	rootCmd.AddCommand(getCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func createTableCmd() *cobra.Command {
	flags := &createTableFlags{}
	cmd := &cobra.Command{
		Use:   "create-table",
		Short: "Create or overwrite a table schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCreateTable(flags)
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to the store config TOML file (required)")
	cmd.Flags().StringVar(&flags.tableFile, "table", "", "Path to the table-definition TOML file (required)")
	return cmd
}

func runCreateTable(flags *createTableFlags) error {
	if flags.configPath == "" {
		return fmt.Errorf("--config is required")
	}
	if flags.tableFile == "" {
		return fmt.Errorf("--table is required")
	}

	table, err := parseTableFile(flags.tableFile)
	if err != nil {
		return err
	}

	db, closeDB, err := openDatabase(flags.configPath)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := db.CreateTable(context.Background(), table); err != nil {
		return fmt.Errorf("relstore: create-table failed: %w", err)
	}
	fmt.Printf("table %q created\n", table.Name)
	return nil
}

func addIndexCmd() *cobra.Command {
	flags := &addIndexFlags{}
	cmd := &cobra.Command{
		Use:   "add-index",
		Short: "Append a secondary index to an existing table schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runAddIndex(flags)
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to the store config TOML file (required)")
	cmd.Flags().StringVar(&flags.table, "table", "", "Table name (required)")
	cmd.Flags().StringVar(&flags.name, "name", "", "Index name (required)")
	cmd.Flags().StringSliceVar(&flags.fields, "fields", nil, "Ordered comma-separated list of indexed field names (required)")
	return cmd
}

func runAddIndex(flags *addIndexFlags) error {
	if flags.configPath == "" {
		return fmt.Errorf("--config is required")
	}
	if flags.table == "" {
		return fmt.Errorf("--table is required")
	}
	if flags.name == "" || len(flags.fields) == 0 {
		return fmt.Errorf("--name and --fields are required")
	}

	db, closeDB, err := openDatabase(flags.configPath)
	if err != nil {
		return err
	}
	defer closeDB()

	index := core.Index{Name: flags.name, Fields: flags.fields}
	if err := db.AddIndex(context.Background(), flags.table, index); err != nil {
		return fmt.Errorf("relstore: add-index failed: %w", err)
	}
	fmt.Printf("index %q added to table %q\n", flags.name, flags.table)
	return nil
}

func insertCmd() *cobra.Command {
	flags := &insertFlags{}
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert a record into a table",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInsert(flags)
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to the store config TOML file (required)")
	cmd.Flags().StringVar(&flags.table, "table", "", "Table name (required)")
	cmd.Flags().StringVar(&flags.recordFile, "record", "", "Path to the record-definition TOML file (required)")
	return cmd
}

func runInsert(flags *insertFlags) error {
	if flags.configPath == "" {
		return fmt.Errorf("--config is required")
	}
	if flags.table == "" {
		return fmt.Errorf("--table is required")
	}
	if flags.recordFile == "" {
		return fmt.Errorf("--record is required")
	}

	record, err := parseRecordFile(flags.recordFile)
	if err != nil {
		return err
	}

	db, closeDB, err := openDatabase(flags.configPath)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := db.Insert(context.Background(), flags.table, record); err != nil {
		return fmt.Errorf("relstore: insert failed: %w", err)
	}
	fmt.Printf("record inserted into table %q\n", flags.table)
	return nil
}

func getCmd() *cobra.Command {
	flags := &getFlags{}
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch a record by primary key",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runGet(flags)
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to the store config TOML file (required)")
	cmd.Flags().StringVar(&flags.table, "table", "", "Table name (required)")
	cmd.Flags().StringSliceVar(&flags.pk, "pk", nil, "Ordered comma-separated primary-key column values, as strings")
	return cmd
}

func runGet(flags *getFlags) error {
	if flags.configPath == "" {
		return fmt.Errorf("--config is required")
	}
	if flags.table == "" {
		return fmt.Errorf("--table is required")
	}
	if len(flags.pk) == 0 {
		return fmt.Errorf("--pk is required")
	}

	db, closeDB, err := openDatabase(flags.configPath)
	if err != nil {
		return err
	}
	defer closeDB()

	pkValues := make([]tuple.Value, len(flags.pk))
	for i, v := range flags.pk {
		pkValues[i] = tuple.Str(v)
	}

	record, ok, err := db.GetRecordByPK(context.Background(), flags.table, pkValues...)
	if err != nil {
		return fmt.Errorf("relstore: get failed: %w", err)
	}
	if !ok {
		fmt.Println("no record found")
		return nil
	}

	for i, col := range record.Columns {
		fmt.Printf("  [%d] %s\n", i, col.String())
	}
	return nil
}

func openDatabase(configPath string) (db *store.Database, closeFn func(), err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	engine, err := kv.OpenMySQLWithRetries(context.Background(), cfg.DSN, cfg.MaxRetries)
	if err != nil {
		return nil, nil, fmt.Errorf("relstore: failed to connect to storage engine: %w", err)
	}

	return store.New(engine, cfg.RootSubspace), func() { _ = engine.Close() }, nil
}
