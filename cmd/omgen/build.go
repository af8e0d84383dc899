package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/syssam/omgen/compiler/gen"
	"github.com/syssam/omgen/compiler/gen/om"
	"github.com/syssam/omgen/compiler/gen/sdl"
	"github.com/syssam/omgen/compiler/load"
	"github.com/syssam/omgen/compiler/watch"
	"github.com/syssam/omgen/contrib/behavior"
)

const defaultConfigFile = "omgen.yaml"

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build schema.yaml [schema.json ...]",
		Short: "Generate the classes of one or more schemas",
		Long: `Generate the classes of one or more schemas under the target directory.

The omgen.yaml file of the working directory, if any, provides the defaults
(target, workers, features and build properties). Flags override it.

Features: stubs, tablemap (default), sdl, manifest, cache.

Usage:
  omgen build schema.yaml
  omgen build -o build/classes --feature stubs,sdl schema.yaml
  omgen build --watch schema.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBuild,
	}
	cmd.Flags().StringP("config", "c", defaultConfigFile, "Config file")
	cmd.Flags().StringP("target", "o", "", "Output directory")
	cmd.Flags().StringSlice("feature", nil, "Features to enable (replaces the configured ones)")
	cmd.Flags().Int("workers", 0, "Number of classes built in parallel")
	cmd.Flags().Bool("watch", false, "Rebuild when the schema or config files change")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	_, configFile, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// The options are read again on every build, so that edits of the
	// config file apply to the next rebuild.
	build := func(ctx context.Context) error {
		opts, _, err := buildOptions(cmd)
		if err != nil {
			return err
		}
		for _, path := range args {
			if err := buildSchema(ctx, cmd, path, opts); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	}
	if err := build(ctx); err != nil {
		return err
	}
	if w, _ := cmd.Flags().GetBool("watch"); !w {
		return nil
	}
	files := slices.Clone(args)
	if configFile != "" {
		files = append(files, configFile)
	}
	watcher, err := watch.New(files, build, watch.WithLogger(logger(cmd)))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgCyan).Sprint("watching"), "for changes, press Ctrl+C to stop")
	return watcher.Run(ctx)
}

// buildOptions returns the generator options of the config file and the
// flags, and the config file in use. The default config file is optional.
func buildOptions(cmd *cobra.Command) ([]gen.Option, string, error) {
	var opts []gen.Option
	configFile, _ := cmd.Flags().GetString("config")
	fileOpts, err := gen.LoadConfigFile(configFile)
	switch {
	case err == nil:
		opts = append(opts, fileOpts...)
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		configFile = ""
	default:
		return nil, "", err
	}
	if target, _ := cmd.Flags().GetString("target"); target != "" {
		opts = append(opts, gen.WithTarget(target))
	}
	if features, _ := cmd.Flags().GetStringSlice("feature"); len(features) > 0 {
		opts = append(opts, gen.WithFeatureNames(features...))
	}
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		opts = append(opts, gen.WithWorkers(n))
	}
	opts = append(opts,
		gen.WithBehaviorFactory(behavior.Factory),
		gen.WithLogger(logger(cmd)),
	)
	return opts, configFile, nil
}

// buildSchema generates the classes of the schema file at path. The target
// package defaults to the database name.
func buildSchema(ctx context.Context, cmd *cobra.Command, path string, opts []gen.Option) error {
	def, err := load.File(path)
	if err != nil {
		return err
	}
	c, err := gen.NewConfig(opts...)
	if err != nil {
		return err
	}
	if c.Target == "" {
		if err := c.Apply(gen.WithTarget(".")); err != nil {
			return err
		}
	}
	if c.TargetPackage() == "" {
		if err := c.Apply(gen.WithTargetPackage(def.Name)); err != nil {
			return err
		}
	}
	db, err := gen.NewDatabase(c, def)
	if err != nil {
		return err
	}
	g := gen.NewGenerator(c, db, om.Kinds(), sdl.New(c.Pluralizer))
	files, err := g.Generate(ctx)
	if err != nil {
		return err
	}
	m := g.Metrics()
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d classes, %d written, %d unchanged, %d stubs kept\n",
		color.New(color.FgGreen).Sprint("✓"), db.Name, len(files), m.FilesWritten, m.FilesUnchanged, m.StubsSkipped)
	return nil
}
