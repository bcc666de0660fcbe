// Command nodetransform rewrites a graph of URL-addressed TypeScript and
// JavaScript modules into a tree of Node-compatible files.
//
// Usage:
//
//	nodetransform transform mod.ts --out npm/src
//	nodetransform transform --config transform.star
//	nodetransform graph mod.ts --format dot
//
// Settings can also come from a .env file or the environment:
// NODETRANSFORM_CONFIG, NODETRANSFORM_OUT_DIR and NODETRANSFORM_CONCURRENCY
// supply defaults for --config, --out and --concurrency.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// envDefaults maps flag names to the environment variables that supply
// their defaults.
var envDefaults = map[string]string{
	"config":      "NODETRANSFORM_CONFIG",
	"out":         "NODETRANSFORM_OUT_DIR",
	"concurrency": "NODETRANSFORM_CONCURRENCY",
}

// logger is set up by the root command before any subcommand runs.
var logger = zap.NewNop()

// rootFlags are shared by every subcommand.
type rootFlags struct {
	verbose     bool
	configPath  string
	concurrency int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "nodetransform",
		Short: "Convert URL-addressed modules into a Node package tree",
		Long: `nodetransform loads a module graph starting from one or more entry points,
rewrites every import and export specifier to fit a Node package layout and
injects shim imports for globals such as Deno.

Entry points are file paths or http(s) URLs. Settings may also be read from
a Starlark (.star, .bzl, transform.bazel) or YAML (.yaml, .yml) config file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnv(cmd.Flags()); err != nil {
				return err
			}
			return setupLogger(flags.verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (Starlark or YAML)")
	pf.IntVar(&flags.concurrency, "concurrency", 0, "maximum concurrent loads and rewrites (0 selects the default)")

	cmd.AddCommand(newTransformCmd(flags), newGraphCmd(flags))
	return cmd
}

// applyEnv fills flags that were not given on the command line from their
// environment variables.
func applyEnv(fs *pflag.FlagSet) error {
	for name, env := range envDefaults {
		f := fs.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		v, ok := os.LookupEnv(env)
		if !ok || v == "" {
			continue
		}
		if err := fs.Set(name, v); err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
	}
	return nil
}

func setupLogger(verbose bool) error {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// slogger bridges the zap logger to the slog API the library takes.
func slogger() *slog.Logger {
	return slog.New(zapslog.NewHandler(logger.Core()))
}

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
