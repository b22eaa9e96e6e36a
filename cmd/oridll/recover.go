package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// runRecover handles the `oridll recover` subcommand
func runRecover(ctx context.Context, args []string, out io.Writer) error {
	var game gameFlags
	set := pflag.NewFlagSet("recover", pflag.ContinueOnError)
	set.SetOutput(io.Discard)
	game.register(set)

	help, err := parseFlags(set, args)
	if err != nil {
		return err
	}
	if help {
		printFlagHelp(out, set, "oridll recover [options]",
			"Finish installs that were interrupted. If an install moved the active\n"+
				"build aside and never wrote the new one, the old build is put back.")
		return nil
	}
	if set.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", set.Arg(0))
	}

	s, err := openSession(ctx, game, false)
	if err != nil {
		return err
	}

	recovered, err := s.manager.Recover(ctx)
	if err != nil {
		return err
	}

	if len(recovered) == 0 {
		fmt.Fprintln(out, "Nothing to recover.")
		return nil
	}
	for _, r := range recovered {
		if r.Restored {
			fmt.Fprintf(out, "Restored %s from %s\n", r.Target, r.Backup)
		} else {
			fmt.Fprintf(out, "Cleared interrupted install %s\n", r.ID)
		}
	}
	return nil
}
