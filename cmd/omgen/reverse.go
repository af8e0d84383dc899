package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/syssam/omgen/compiler/load"
)

// drivers maps the dialects to the database/sql driver names.
var drivers = map[string]string{
	load.MySQL:    "mysql",
	load.Postgres: "postgres",
	load.SQLite:   "sqlite",
}

func reverseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reverse",
		Short: "Write the schema file of a live database",
		Long: `Inspect a live database and write its schema file.

The connection string is read from --dsn, else from the OMGEN_DSN variable
(which may be set in the env file).

Usage:
  omgen reverse --dialect mysql --name bookstore -o schema.yaml
  OMGEN_DSN=file:app.db omgen reverse --dialect sqlite --name app`,
		Args: cobra.NoArgs,
		RunE: runReverse,
	}
	cmd.Flags().String("dialect", load.MySQL, "Database dialect (mysql, postgres, sqlite)")
	cmd.Flags().String("dsn", "", "Connection string (default $OMGEN_DSN)")
	cmd.Flags().String("name", "", "Name of the database in the schema file")
	cmd.Flags().String("schema", "", "Schema to inspect (default: the connection one)")
	cmd.Flags().StringP("out", "o", "", "Schema file to write (default: YAML on stdout)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runReverse(cmd *cobra.Command, _ []string) error {
	dialect, _ := cmd.Flags().GetString("dialect")
	driver, ok := drivers[dialect]
	if !ok {
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	dsn, _ := cmd.Flags().GetString("dsn")
	if dsn == "" {
		dsn = os.Getenv("OMGEN_DSN")
	}
	if dsn == "" {
		return fmt.Errorf("missing connection string: set --dsn or OMGEN_DSN")
	}
	name, _ := cmd.Flags().GetString("name")
	schemaName, _ := cmd.Flags().GetString("schema")
	out, _ := cmd.Flags().GetString("out")
	format := load.FormatYAML
	if out != "" {
		f, err := load.FormatOf(out)
		if err != nil {
			return err
		}
		format = f
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", dialect, err)
	}
	defer db.Close()
	def, err := load.Inspect(cmd.Context(), dialect, db, name, schemaName)
	if err != nil {
		return err
	}
	buf, err := load.MarshalDatabase(def, format)
	if err != nil {
		return err
	}
	if out == "" {
		_, err := cmd.OutOrStdout().Write(buf)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d tables to %s\n", len(def.Tables), out)
	return nil
}
