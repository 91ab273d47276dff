// Command cfind-index ingests a single C source file or every entry of a
// compile_commands.json compilation database into a persistent (or no-op)
// store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cfinddev/cfind/internal/ast"
	"github.com/cfinddev/cfind/internal/bootstrap"
	"github.com/cfinddev/cfind/internal/frontend/tsc"
	"github.com/cfinddev/cfind/internal/store"
)

// Exit codes per the indexer CLI contract: 0 success, 64 usage error, 65
// data error.
const (
	exitOK    = 0
	exitUsage = 64
	exitData  = 65
)

var (
	flagSrc    bool
	flagDir    bool
	flagOut    string
	flagDryRun bool
	flagVer    bool
)

func main() {
	if err := bootstrap.EnsureStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "cfind-index: stdio bootstrap failed: %v\n", err)
		os.Exit(exitData)
	}
	os.Exit(run())
}

func run() int {
	// -1 means RunE never ran: cobra rejected the invocation itself (bad
	// flag, wrong arg count) before reaching it, which is always a usage
	// error. --help and --version also return without running RunE, with a
	// nil error, which is the success case below. runIndex itself is the
	// source of truth for its own exit code whenever RunE did run.
	exitCode := -1
	root.RunE = func(cmd *cobra.Command, args []string) error {
		code, err := runIndex(cmd.Context(), args)
		exitCode = code
		return err
	}
	err := root.Execute()
	if exitCode != -1 {
		if err != nil {
			fmt.Fprintf(os.Stderr, "cfind-index: %v\n", err)
		}
		return exitCode
	}
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(os.Stderr, "cfind-index: %v\n", err)
	return exitUsage
}

var root = &cobra.Command{
	Use:           "cfind-index [-s | -d] [-o PATH | -n] INPUT",
	Short:         "Index C translation units into a type database",
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.ExactArgs(1),
	Version:       "0.1.0",
}

func init() {
	root.Flags().BoolVarP(&flagSrc, "src", "s", true, "INPUT is a single C source file (default)")
	root.Flags().BoolVarP(&flagDir, "dir", "d", false, "INPUT is a directory containing compile_commands.json")
	root.Flags().StringVarP(&flagOut, "out", "o", "cf.db", "on-disk database path")
	root.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "use the no-op store")
	root.SetVersionTemplate("cfind-index {{.Version}}\n")
}

func runIndex(ctx context.Context, args []string) (int, error) {
	input := args[0]
	if flagDir && root.Flags().Changed("src") {
		return exitUsage, fmt.Errorf("-s and -d are mutually exclusive")
	}
	if root.Flags().Changed("out") && flagDryRun {
		return exitUsage, fmt.Errorf("-o and -n are mutually exclusive")
	}

	var files []string
	if flagDir {
		dbPath := input + "/compile_commands.json"
		cmds, err := ast.LoadCompileDB(dbPath)
		if err != nil {
			return exitUsage, err
		}
		files = cmds
	} else {
		files = []string{input}
	}

	var st *store.Store
	if flagDryRun {
		st = store.NewNullStore()
	} else {
		s, err := store.NewSQLStore(flagOut, false)
		if err != nil {
			return exitData, fmt.Errorf("opening %s: %w", flagOut, err)
		}
		defer s.Close()
		st = s
	}

	driver := ast.New(st, tsc.New(), slog.Default())
	for _, f := range files {
		if err := driver.IndexTranslationUnit(ctx, f); err != nil {
			return exitData, fmt.Errorf("indexing %s: %w", f, err)
		}
	}
	return exitOK, nil
}
