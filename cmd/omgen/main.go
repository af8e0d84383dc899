// omgen generates the PHP object model classes of database schemas.
//
//	omgen build schema.yaml
//	omgen build --watch -o build/classes schema.yaml
//	omgen reverse --dialect mysql --name bookstore > schema.yaml
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("error:"), err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "omgen",
		Short:   "Generate PHP object model classes from database schemas",
		Version: version(),
		Long: `omgen reads database schemas (YAML or JSON) and generates, for every table,
the base object, query, peer and table map classes along with the stubs
extending them. Stubs are written once and never overwritten.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadEnv,
	}
	cmd.PersistentFlags().String("env-file", ".env", "File holding environment variables (OMGEN_DSN)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log every file written")

	cmd.AddCommand(buildCmd())
	cmd.AddCommand(reverseCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

// loadEnv loads the env file, if any. Variables already set are kept.
func loadEnv(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("env-file")
	if name == "" {
		return nil
	}
	if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

func logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
