package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/ZebulonRouseFrantzich/oridll/internal/fleet"
)

// runScan handles the `oridll scan` subcommand
func runScan(ctx context.Context, args []string, out io.Writer) error {
	var game gameFlags
	set := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	set.SetOutput(io.Discard)
	game.register(set)

	help, err := parseFlags(set, args)
	if err != nil {
		return err
	}
	if help {
		printFlagHelp(out, set, "oridll scan [options]",
			"List every distinct build in the game's Managed folder. The active build is marked with '*'.")
		return nil
	}
	if set.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", set.Arg(0))
	}

	s, err := openSession(ctx, game, false)
	if err != nil {
		return err
	}

	catalog, err := s.manager.Scan(ctx)
	if err != nil {
		return err
	}

	printCatalog(out, catalog)
	return nil
}

func printCatalog(out io.Writer, catalog *fleet.Catalog) {
	if catalog.Current != nil {
		fmt.Fprintf(out, "Active: %s\n", catalog.Current)
	} else {
		fmt.Fprintln(out, "Active: none")
	}

	if len(catalog.Entries) == 0 {
		fmt.Fprintln(out, "No builds found.")
		return
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, e := range catalog.Entries {
		mark := " "
		if catalog.Current != nil && e.Identity.Equal(catalog.Current.Identity) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", mark, e, e.DisplayName)
	}
	tw.Flush()
}
