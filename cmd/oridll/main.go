package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

type command struct {
	run     func(ctx context.Context, args []string, out io.Writer) error
	summary string
}

var commands = map[string]command{
	"scan":     {run: runScan, summary: "List the builds found in the game's Managed folder"},
	"classify": {run: runClassify, summary: "Identify assembly files"},
	"install":  {run: runInstall, summary: "Make a build the active assembly"},
	"recover":  {run: runRecover, summary: "Finish an interrupted install"},
	"init":     {run: runInit, summary: "Write a starter configuration file"},
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		return
	}

	switch os.Args[1] {
	case "--version", "version":
		fmt.Printf("oridll %s\n", Version)
		return
	case "--help", "-h", "help":
		printUsage(os.Stdout)
		return
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.run(ctx, os.Args[2:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "oridll - manage Ori DE assembly builds")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  oridll scan [--game-dir DIR]")
	fmt.Fprintln(w, "  oridll classify FILE...")
	fmt.Fprintln(w, "  oridll install NAME|PATH [--game-dir DIR]")
	fmt.Fprintln(w, "  oridll install --file FILE [--signature SIG] [--keyring KEYS]")
	fmt.Fprintln(w, "  oridll recover [--game-dir DIR]")
	fmt.Fprintln(w, "  oridll init [--game-dir DIR] [--force]")
	fmt.Fprintln(w, "  oridll --version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range []string{"scan", "classify", "install", "recover", "init"} {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  %-13s configuration and state directory (default ~/.config/oridll)\n", envDir)
	fmt.Fprintf(w, "  %-13s set to true or 1 for debug logging\n", envDebug)
}
