package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/db"
	"github.com/hpungsan/sift/internal/insight"
	"github.com/hpungsan/sift/internal/logging"
	"github.com/hpungsan/sift/internal/mcp"
	"github.com/hpungsan/sift/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"capture": true, "fetch": true, "list": true,
	"project": true, "parse": true, "jobs": true,
	"serve": true, "help": true,
}

// firstArg returns the first argument after any leading --verbose flag.
func firstArg() (string, bool) {
	for _, arg := range os.Args[1:] {
		if arg != "--verbose" {
			return arg, true
		}
	}
	return "", false
}

// isVerbose reports whether --verbose precedes the command.
func isVerbose() bool {
	for _, arg := range os.Args[1:] {
		if arg == "--verbose" {
			return true
		}
		if !strings.HasPrefix(arg, "-") {
			return false
		}
	}
	return false
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	arg, ok := firstArg()
	if !ok {
		return false // No args → MCP server
	}
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	arg, ok := firstArg()
	if !ok {
		return false
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
       _  __ _
   ___(_)/ _| |_
  / __| | |_| __|
  \__ \ |  _| |_
  |___/_|_|  \__|

  Capture conversations, keep what matters

  Usage: sift <command> [options]
         sift --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// warnUnknownDisabled reports config entries that match no tool or type.
func warnUnknownDisabled(logger *slog.Logger, cfg *config.Config) {
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", "tools", unknown, "known", mcp.AllToolNames())
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("unknown types in disabled_types", "types", unknown, "known", mcp.KnownTypes)
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".sift")

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	if isVerbose() {
		cfg.LogLevel = "debug"
	}

	// Logs go to stderr; stdout carries MCP frames and CLI JSON.
	logger := logging.New(os.Stderr, cfg.LogLevel)
	warnUnknownDisabled(logger, cfg)

	database, err := db.Init(baseDir)
	if err != nil {
		fatal("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	extractor, err := insight.New(cfg.Extractor)
	if err != nil {
		fatal("failed to configure extractor: %v", err)
	}

	svc := ops.NewServices(database, cfg, extractor, logger)

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(svc)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			database.Close()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if arg, ok := firstArg(); ok && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", arg)
		fmt.Fprintf(os.Stderr, "Run 'sift --help' for usage.\n")
		database.Close()
		os.Exit(1)
	}

	// MCP server mode (default)
	logger.Debug("starting MCP server", "version", Version, "extractor", cfg.Extractor.Provider)
	if err := mcp.Run(svc, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		database.Close()
		os.Exit(1)
	}
}
