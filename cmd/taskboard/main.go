// taskboard is the terminal client of the taskboard API. It shows the
// top-level tasks as a two-column kanban and opens nested dialogs for
// viewing, editing and creating tasks and their subtasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/adanyl0v/taskboard/internal/app"
	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		apiURL      string
		email       string
		password    string
		username    string
		register    bool
		sessionFile string
		logFile     string
		debug       bool
	)

	flagSet := pflag.NewFlagSet("taskboard", pflag.ContinueOnError)
	flagSet.StringVar(&apiURL, "api-url", "http://localhost:3001", "base URL of the taskboard API")
	flagSet.StringVar(&email, "email", "", "email to log in with")
	flagSet.StringVar(&password, "password", "", "password to log in with (defaults to $TASKBOARD_PASSWORD)")
	flagSet.StringVar(&username, "username", "", "display name used with --register")
	flagSet.BoolVar(&register, "register", false, "create an account instead of logging in")
	flagSet.StringVar(&sessionFile, "session-file", "", "where to keep the login session (default: <user config dir>/taskboard/session.json)")
	flagSet.StringVar(&logFile, "log-file", "", "write JSON log records to this file")
	flagSet.BoolVar(&debug, "debug", false, "log at debug level")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	if password == "" {
		password = os.Getenv("TASKBOARD_PASSWORD")
	}
	if sessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("cannot locate config dir, pass --session-file: %w", err)
		}
		sessionFile = filepath.Join(dir, "taskboard", "session.json")
	}

	closer, err := app.InitFileLogger("taskboard", logFile, debug)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger := app.Logger()

	api, err := client.New(logger, apiURL, client.NewFileSessionStore(sessionFile))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model := ui.New(ctx, logger, api, ui.Options{
		Email:    email,
		Password: password,
		Username: username,
		Register: register,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err = program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	logger.Info().Msg("taskboard exited")
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `taskboard: terminal kanban for the taskboard API.

Usage:
  taskboard [flags]

Examples:
  # Log in interactively against a local API
  taskboard

  # Register a new account and open the board
  taskboard --register --email me@example.com --username me

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
