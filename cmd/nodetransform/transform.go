package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/albertocavalcante/go-nodetransform"
	"github.com/albertocavalcante/go-nodetransform/config"
)

type transformFlags struct {
	*rootFlags
	testEntries []string
	outDir      string
}

func newTransformCmd(root *rootFlags) *cobra.Command {
	flags := &transformFlags{rootFlags: root}
	cmd := &cobra.Command{
		Use:   "transform [entry-point...]",
		Short: "Rewrite a module graph into an output directory",
		Long: `Loads the graph reachable from the entry points, rewrites every module and
writes the result below the output directory. Entry points on the command
line are added to those of the config file.

Example:
  nodetransform transform mod.ts --test-entry mod_test.ts --out npm/src`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, flags, args)
		},
	}
	cmd.Flags().StringSliceVar(&flags.testEntries, "test-entry", nil, "test entry point (repeatable)")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "", "output directory")
	return cmd
}

func runTransform(cmd *cobra.Command, flags *transformFlags, args []string) error {
	opts, outDir, err := loadOptions(flags.rootFlags, args, flags.testEntries)
	if err != nil {
		return err
	}
	if flags.outDir != "" {
		outDir = flags.outDir
	}
	if outDir == "" {
		return errors.New("no output directory: use --out or output() in the config file")
	}

	logger.Debug("transforming",
		zap.Strings("entryPoints", opts.EntryPoints),
		zap.Strings("testEntryPoints", opts.TestEntryPoints),
		zap.String("outDir", outDir))

	out, err := nodetransform.Transform(cmd.Context(), opts,
		nodetransform.WithConcurrency(flags.concurrency),
		nodetransform.WithLogger(slogger()))
	if err != nil {
		return err
	}
	if err := out.WriteDir(outDir); err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), out, outDir)
	for _, w := range out.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return nil
}

// loadOptions merges the config file, if any, with entry points given on
// the command line. It returns the options and the configured output
// directory.
func loadOptions(flags *rootFlags, entries, testEntries []string) (nodetransform.Options, string, error) {
	var opts nodetransform.Options
	var outDir string
	if flags.configPath != "" {
		c, err := config.LoadFile(flags.configPath)
		if err != nil {
			return opts, "", err
		}
		opts = c.Options()
		outDir = c.OutDir
	}

	cwd, err := os.Getwd()
	if err != nil {
		return opts, "", err
	}
	for _, e := range entries {
		s, err := config.ResolveReference(cwd, e)
		if err != nil {
			return opts, "", fmt.Errorf("entry point %q: %w", e, err)
		}
		opts.EntryPoints = append(opts.EntryPoints, s)
	}
	for _, e := range testEntries {
		s, err := config.ResolveReference(cwd, e)
		if err != nil {
			return opts, "", fmt.Errorf("test entry point %q: %w", e, err)
		}
		opts.TestEntryPoints = append(opts.TestEntryPoints, s)
	}
	if outDir != "" && !filepath.IsAbs(outDir) {
		outDir = filepath.Join(cwd, outDir)
	}
	return opts, outDir, nil
}

func printSummary(w io.Writer, out *nodetransform.TransformOutput, outDir string) {
	fmt.Fprintf(w, "wrote %d files to %s\n", len(out.Main.Files)+len(out.Test.Files), outDir)
	printDependencies(w, "dependencies", out.Main.Dependencies)
	printDependencies(w, "test dependencies", out.Test.Dependencies)
}

func printDependencies(w io.Writer, title string, deps []nodetransform.Dependency) {
	if len(deps) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, d := range deps {
		if d.Version == "" {
			fmt.Fprintf(w, "  %s\n", d.Name)
			continue
		}
		fmt.Fprintf(w, "  %s@%s\n", d.Name, d.Version)
	}
}
