// Command cfind-query runs a single search command against a type database
// and prints the result in the original CLI's line format.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cfinddev/cfind/internal/bootstrap"
	"github.com/cfinddev/cfind/internal/query"
	"github.com/cfinddev/cfind/internal/store"
)

// Exit codes per the query CLI contract: 0 success, 64 usage error, 65 data
// error, 69 service unavailable (the unimplemented interactive mode).
const (
	exitOK             = 0
	exitUsage          = 64
	exitData           = 65
	exitServiceUnavail = 69
)

var (
	flagCmd         string
	flagInteractive bool
)

func main() {
	if err := bootstrap.EnsureStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "cfind-query: stdio bootstrap failed: %v\n", err)
		os.Exit(exitData)
	}
	os.Exit(run())
}

func run() int {
	// -1 means RunE never ran: cobra rejected the invocation itself (bad
	// flag, wrong arg count) before reaching it, which is always a usage
	// error. --help and --version also return without running RunE, with a
	// nil error, which is the success case below. runQuery itself can
	// return a non-zero code alongside a nil error (it already printed its
	// own message, e.g. "no matching entry"), so exitCode — not err — is
	// the source of truth whenever RunE did run.
	exitCode := -1
	root.RunE = func(cmd *cobra.Command, args []string) error {
		code, err := runQuery(args)
		exitCode = code
		return err
	}
	err := root.Execute()
	if exitCode != -1 {
		if err != nil {
			fmt.Fprintf(os.Stderr, "cfind-query: %v\n", err)
		}
		return exitCode
	}
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(os.Stderr, "cfind-query: %v\n", err)
	return exitUsage
}

var root = &cobra.Command{
	Use:           "cfind-query [-c CMD | -i] DB-PATH",
	Short:         "Search a type database",
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.ExactArgs(1),
	Version:       "0.1.0",
}

func init() {
	root.Flags().StringVarP(&flagCmd, "cmd", "c", "", "execute a single search command")
	root.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "interactive mode (unimplemented)")
	root.SetVersionTemplate("cfind-query {{.Version}}\n")
}

func runQuery(args []string) (int, error) {
	if flagInteractive {
		return exitServiceUnavail, errors.New("interactive mode is not implemented")
	}
	if flagCmd == "" {
		return exitUsage, fmt.Errorf("-c CMD is required")
	}

	cmd, err := query.Parse(flagCmd)
	if err != nil {
		return exitUsage, err
	}

	dbPath := args[0]
	st, err := store.NewSQLStore(dbPath, true)
	if err != nil {
		return exitData, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	defer st.Close()

	res, err := query.Execute(st, cmd)
	if err != nil {
		if errors.Is(err, query.ErrAmbiguous) {
			fmt.Fprintln(os.Stdout, "ambiguous typename")
			name := ambiguousName(cmd)
			rows, cerr := query.Candidates(st, name)
			if cerr != nil {
				return exitData, cerr
			}
			if werr := query.WriteCandidates(os.Stdout, st, rows); werr != nil {
				return exitData, werr
			}
			return exitData, nil
		}
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintln(os.Stdout, "no matching entry")
			return exitData, nil
		}
		return exitData, err
	}

	if err := query.WriteResult(os.Stdout, st, res); err != nil {
		return exitData, err
	}
	return exitOK, nil
}

// ambiguousName recovers the NameSpec behind an ambiguous resolveTypeSpec
// call, for the follow-up candidate listing.
func ambiguousName(cmd query.Command) query.NameSpec {
	switch cmd.Verb {
	case query.VerbMemberDecl:
		return cmd.Member.Base.Name
	default:
		return cmd.Type.Name
	}
}
