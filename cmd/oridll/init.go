package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/ZebulonRouseFrantzich/oridll/internal/config"
)

// runInit handles the `oridll init` subcommand
func runInit(ctx context.Context, args []string, out io.Writer) error {
	var game gameFlags
	set := pflag.NewFlagSet("init", pflag.ContinueOnError)
	set.SetOutput(io.Discard)
	game.register(set)
	force := set.Bool("force", false, "overwrite an existing configuration file")

	help, err := parseFlags(set, args)
	if err != nil {
		return err
	}
	if help {
		printFlagHelp(out, set, "oridll init [options]",
			"Write a starter oridll.lua. Without --game-dir the game is looked for\n"+
				"in Steam's default library on each machine.")
		return nil
	}
	if set.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", set.Arg(0))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := getOridllDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, config.FileName)

	if !*force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("check config file: %w", err)
		}
	}

	cfg := config.Default()
	if game.gameDir != "" {
		expanded, err := config.ExpandHome(game.gameDir)
		if err != nil {
			return err
		}
		if cfg.GameDir, err = filepath.Abs(expanded); err != nil {
			return fmt.Errorf("resolve --game-dir: %w", err)
		}
	}

	code, err := config.NewGenerator().Generate(cfg)
	if err != nil {
		return fmt.Errorf("generate config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
