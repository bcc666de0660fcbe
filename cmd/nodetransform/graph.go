package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/go-nodetransform"
	"github.com/albertocavalcante/go-nodetransform/config"
	"github.com/albertocavalcante/go-nodetransform/graph"
	"github.com/albertocavalcante/go-nodetransform/specifier"
)

type graphFlags struct {
	*rootFlags
	testEntries []string
	format      string
	why         string
	depsOf      string
}

func newGraphCmd(root *rootFlags) *cobra.Command {
	flags := &graphFlags{rootFlags: root}
	cmd := &cobra.Command{
		Use:   "graph [entry-point...]",
		Short: "Print the module graph without rewriting it",
		Long: `Loads the graph reachable from the entry points and prints it.

Formats:
  text  indented dependency tree (default)
  dot   Graphviz DOT
  json  modules, dependencies and redirects as JSON

--why prints the shortest import chain from an entry point to a module.
--deps-of lists every module a module transitively imports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, flags, args)
		},
	}
	cmd.Flags().StringSliceVar(&flags.testEntries, "test-entry", nil, "test entry point (repeatable)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "output format: text, dot or json")
	cmd.Flags().StringVar(&flags.why, "why", "", "print how an entry point reaches this module")
	cmd.Flags().StringVar(&flags.depsOf, "deps-of", "", "list the transitive dependencies of this module")
	cmd.MarkFlagsMutuallyExclusive("why", "deps-of")
	return cmd
}

func runGraph(cmd *cobra.Command, flags *graphFlags, args []string) error {
	switch flags.format {
	case "text", "dot", "json":
	default:
		return fmt.Errorf("unknown format %q", flags.format)
	}

	opts, _, err := loadOptions(flags.rootFlags, args, flags.testEntries)
	if err != nil {
		return err
	}
	g, err := nodetransform.BuildGraph(cmd.Context(), opts,
		nodetransform.WithConcurrency(flags.concurrency),
		nodetransform.WithLogger(slogger()))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case flags.why != "":
		return printWhy(w, g, flags.why)
	case flags.depsOf != "":
		return printDepsOf(w, g, flags.depsOf)
	}

	switch flags.format {
	case "dot":
		fmt.Fprint(w, g.ToDOT())
	case "json":
		data, err := g.ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", data)
	default:
		fmt.Fprint(w, g.ToText())
	}
	return nil
}

// lookupModule resolves a path or URL given on the command line to the
// canonical specifier of a module in g.
func lookupModule(g *graph.Graph, ref string) (specifier.Specifier, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return specifier.Specifier{}, err
	}
	resolved, err := config.ResolveReference(cwd, ref)
	if err != nil {
		return specifier.Specifier{}, fmt.Errorf("module %q: %w", ref, err)
	}
	s, err := specifier.Parse(resolved)
	if err != nil {
		return specifier.Specifier{}, fmt.Errorf("module %q: %w", ref, err)
	}
	s = g.Canonical(s)
	if !g.Contains(s) {
		return specifier.Specifier{}, fmt.Errorf("module %s is not in the graph", s)
	}
	return s, nil
}

func printWhy(w io.Writer, g *graph.Graph, ref string) error {
	target, err := lookupModule(g, ref)
	if err != nil {
		return err
	}
	var best []specifier.Specifier
	for _, roots := range [][]specifier.Specifier{g.EntryPoints(), g.TestEntryPoints()} {
		for _, root := range roots {
			if p := g.Path(root, target); p != nil && (best == nil || len(p) < len(best)) {
				best = p
			}
		}
		if best != nil {
			break
		}
	}
	if best == nil {
		return fmt.Errorf("no entry point imports %s", target)
	}
	for i, s := range best {
		if i == 0 {
			fmt.Fprintln(w, s)
			continue
		}
		fmt.Fprintf(w, "%*s-> %s\n", 2*i, "", s)
	}
	return nil
}

func printDepsOf(w io.Writer, g *graph.Graph, ref string) error {
	s, err := lookupModule(g, ref)
	if err != nil {
		return err
	}
	for _, dep := range g.TransitiveDeps(s) {
		fmt.Fprintln(w, dep)
	}
	return nil
}
