package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/ZebulonRouseFrantzich/oridll/internal/classify"
)

// runClassify handles the `oridll classify` subcommand
func runClassify(ctx context.Context, args []string, out io.Writer) error {
	set := pflag.NewFlagSet("classify", pflag.ContinueOnError)
	set.SetOutput(io.Discard)
	verbose := set.BoolP("verbose", "v", false, "explain why a file is not a recognised assembly")

	help, err := parseFlags(set, args)
	if err != nil {
		return err
	}
	if help || set.NArg() == 0 {
		printFlagHelp(out, set, "oridll classify [options] FILE...",
			"Print the build identity of each file.")
		if !help {
			return errors.New("classify needs at least one file")
		}
		return nil
	}

	logger := newLogger()
	failed := 0
	for _, path := range set.Args() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := describeFile(path, *verbose)
		if err != nil {
			logger.Debug("classify failed", "path", path, "error", err)
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", path, line)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, set.NArg())
	}
	return nil
}

func describeFile(path string, verbose bool) (string, error) {
	if !verbose {
		id, err := classify.File(path)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	id, reason := classify.Explain(data)
	if reason != nil {
		return fmt.Sprintf("%s (%v)", id, reason), nil
	}
	return id.String(), nil
}
