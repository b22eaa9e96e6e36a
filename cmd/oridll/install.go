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
	"github.com/ZebulonRouseFrantzich/oridll/internal/fleet"
	"github.com/ZebulonRouseFrantzich/oridll/internal/signature"
)

type installOptions struct {
	game      gameFlags
	file      string
	signature string
	keyring   string
	force     bool
}

// runInstall handles the `oridll install` subcommand
func runInstall(ctx context.Context, args []string, out io.Writer) error {
	var opts installOptions
	set := pflag.NewFlagSet("install", pflag.ContinueOnError)
	set.SetOutput(io.Discard)
	opts.game.register(set)
	set.StringVar(&opts.file, "file", "", "install a build from this file instead of the catalog")
	set.StringVar(&opts.signature, "signature", "", "detached OpenPGP signature of --file")
	set.StringVar(&opts.keyring, "keyring", "", "OpenPGP public keyring (overrides keyring)")
	set.BoolVar(&opts.force, "force", false, "skip the running-game check")

	help, err := parseFlags(set, args)
	if err != nil {
		return err
	}
	if help {
		printFlagHelp(out, set, "oridll install NAME|PATH [options]\n       oridll install --file FILE [--signature SIG] [options]",
			"Make a build the active assembly. NAME is a build label as shown by\n"+
				"'oridll scan' or a file name in the Managed folder. The build being\n"+
				"replaced is kept as a backup unless another copy of it already exists.")
		return nil
	}

	switch {
	case opts.file == "" && set.NArg() != 1:
		return errors.New("install needs exactly one build name or path, or --file")
	case opts.file != "" && set.NArg() > 0:
		return fmt.Errorf("unexpected argument with --file: %s", set.Arg(0))
	case opts.signature != "" && opts.file == "":
		return errors.New("--signature is only valid with --file")
	}

	s, err := openSession(ctx, opts.game, !opts.force)
	if err != nil {
		return err
	}

	var res *fleet.Result
	if opts.file != "" {
		data, err := readVerified(s.cfg, opts)
		if err != nil {
			return err
		}
		res, err = s.manager.InstallBytes(ctx, data)
		if err != nil {
			return describeInstallError(err)
		}
	} else {
		entry, err := findEntry(ctx, s.manager, set.Arg(0))
		if err != nil {
			return err
		}
		res, err = s.manager.Install(ctx, entry)
		if err != nil {
			return describeInstallError(err)
		}
	}

	printResult(out, res)
	return nil
}

// findEntry resolves a build label, file name or path against a fresh scan.
func findEntry(ctx context.Context, m *fleet.Manager, name string) (fleet.Entry, error) {
	catalog, err := m.Scan(ctx)
	if err != nil {
		return fleet.Entry{}, err
	}

	if e, ok := catalog.Find(name); ok {
		return e, nil
	}
	if abs, err := filepath.Abs(name); err == nil {
		if e, ok := catalog.Find(abs); ok {
			return e, nil
		}
	}
	return fleet.Entry{}, fmt.Errorf("no build named %q; run 'oridll scan' to list builds", name)
}

// readVerified reads --file, checking its signature when a keyring is
// configured or given.
func readVerified(cfg *config.Config, opts installOptions) ([]byte, error) {
	keyring := cfg.Keyring
	if opts.keyring != "" {
		var err error
		if keyring, err = config.ExpandHome(opts.keyring); err != nil {
			return nil, err
		}
	}

	if keyring == "" {
		if opts.signature != "" {
			return nil, errors.New("--signature needs a keyring (set keyring or pass --keyring)")
		}
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return nil, fmt.Errorf("read build: %w", err)
		}
		return data, nil
	}

	if opts.signature == "" {
		return nil, fmt.Errorf("a keyring is configured, so %s needs --signature", opts.file)
	}

	keys, err := signature.LoadKeyring(keyring)
	if err != nil {
		return nil, err
	}
	data, signer, err := signature.NewVerifier(keys).VerifyFiles(opts.file, opts.signature)
	if err != nil {
		return nil, err
	}
	newLogger().Info("signature verified", "file", opts.file, "signer", signer.String())
	return data, nil
}

func describeInstallError(err error) error {
	var ie *fleet.InstallError
	if errors.As(err, &ie) && ie.BackupPath != "" {
		return fmt.Errorf("%w\nThe previous build was moved to %s; run 'oridll recover' to restore it", err, ie.BackupPath)
	}
	return err
}

func printResult(out io.Writer, res *fleet.Result) {
	if res.Unchanged {
		fmt.Fprintln(out, "Build is already active; nothing to do")
		return
	}
	if res.Previous == nil {
		fmt.Fprintf(out, "Installed %s\n", res.Target)
		return
	}
	fmt.Fprintf(out, "Installed %s (replaced %s)\n", res.Target, res.Previous)
	if res.Backup != "" {
		fmt.Fprintf(out, "Previous build kept as %s\n", filepath.Base(res.Backup))
	}
}
