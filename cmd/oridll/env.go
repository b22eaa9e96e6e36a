package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ZebulonRouseFrantzich/oridll/internal/config"
	"github.com/ZebulonRouseFrantzich/oridll/internal/fleet"
	"github.com/ZebulonRouseFrantzich/oridll/internal/platform"
)

const (
	envDir   = "ORIDLL_DIR"
	envDebug = "ORIDLL_DEBUG"
)

// environment holds the settings read from environment variables.
type environment struct {
	Dir   string `env:"ORIDLL_DIR"`
	Debug bool   `env:"ORIDLL_DEBUG"`
}

func readEnvironment() (environment, error) {
	var e environment
	if err := env.Parse(&e); err != nil {
		return environment{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// getOridllDir returns the configuration directory.
func getOridllDir() (string, error) {
	e, err := readEnvironment()
	if err != nil {
		return "", err
	}
	if e.Dir != "" {
		return e.Dir, nil
	}

	// Default to ~/.config/oridll
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "oridll"), nil
}

// debugEnabled reports whether ORIDLL_DEBUG is set to a true value.
// An unparsable value counts as false; getOridllDir reports it.
func debugEnabled() bool {
	e, err := readEnvironment()
	return err == nil && e.Debug
}

// newLogger logs to stderr: text on a terminal, JSON otherwise.
func newLogger() *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelWarn}
	if debugEnabled() {
		options.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// loadConfig reads oridll.lua from dir. A missing file yields the defaults.
func loadConfig(ctx context.Context, dir string, logger *slog.Logger) (*config.Config, error) {
	path := filepath.Join(dir, config.FileName)

	parser := config.NewParser(platform.NewDetector()).WithLogger(logger)
	cfg, err := parser.ParseFile(ctx, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no config file, using defaults", "path", path)
		cfg = config.Default()
	case err != nil:
		return nil, fmt.Errorf("load %s: %s", path, config.FormatError(err, debugEnabled()))
	}

	return cfg.Resolve()
}

// gameFlags are shared by every command that works on a game installation.
type gameFlags struct {
	gameDir string
}

func (g *gameFlags) register(set *pflag.FlagSet) {
	set.StringVar(&g.gameDir, "game-dir", "", "game installation directory (overrides game_dir)")
}

// session is everything a game command needs.
type session struct {
	cfg     *config.Config
	manager *fleet.Manager
	logger  *slog.Logger
}

// openSession loads the config, applies flag overrides and checks that
// the game is installed. With guard set, installs are refused while the
// game is running.
func openSession(ctx context.Context, flags gameFlags, guard bool) (*session, error) {
	logger := newLogger()

	dir, err := getOridllDir()
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(ctx, dir, logger)
	if err != nil {
		return nil, err
	}

	if flags.gameDir != "" {
		expanded, err := config.ExpandHome(flags.gameDir)
		if err != nil {
			return nil, err
		}
		if cfg.GameDir, err = filepath.Abs(expanded); err != nil {
			return nil, fmt.Errorf("resolve --game-dir: %w", err)
		}
	}
	if cfg.GameDir == "" {
		return nil, fmt.Errorf("no game directory: set %s in %s or pass --game-dir",
			"game_dir", filepath.Join(dir, config.FileName))
	}

	game := fleet.NewGameDir(cfg.GameDir, cfg.DataFolder, cfg.GameExe)
	if err := game.Verify(); err != nil {
		return nil, err
	}

	stateDir := filepath.Join(dir, "state")
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	mcfg := fleet.Config{
		Game:     game,
		Assembly: cfg.Assembly,
		Workers:  cfg.ScanWorkers,
		Logger:   logger,
		StateDir: stateDir,
	}
	if guard {
		mcfg.Guard = platform.NewProcessGuard(cfg.GameExe)
	}

	logger.Debug("session ready", "game_dir", cfg.GameDir, "state_dir", stateDir)
	return &session{cfg: cfg, manager: fleet.NewManager(mcfg), logger: logger}, nil
}

// parseFlags parses args and reports whether help was requested.
func parseFlags(set *pflag.FlagSet, args []string) (bool, error) {
	help := set.BoolP("help", "h", false, "show help")
	if err := set.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	return *help, nil
}

func printFlagHelp(w io.Writer, set *pflag.FlagSet, usage, description string) {
	fmt.Fprintf(w, "Usage: %s\n\n%s\n\nOptions:\n%s", usage, description, set.FlagUsages())
}
