// Package main provides the lcu-keeper CLI application.
//
// lcu-keeper keeps an encrypted list of game accounts and automates the
// running game client through its local API: it accepts ready checks, bans
// and picks configured champions, and records the signed-in account's
// level, wallet and skin count.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("lcu-keeper %s\n", version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	return dispatch(*configPath, args)
}

// dispatch routes a command line to its handler.
func dispatch(configPath string, args []string) error {
	command, rest := args[0], args[1:]

	switch command {
	case "run":
		return runRunCommand(configPath, rest)
	case "status":
		return (&statusCommand{configPath: configPath}).Execute(rest)
	case "refresh":
		return runRefreshCommand(configPath, rest)
	case "account":
		return (&accountCommand{configPath: configPath}).Execute(rest)
	case "target":
		return (&targetCommand{configPath: configPath}).Execute(rest)
	case "toggle":
		return (&toggleCommand{configPath: configPath}).Execute(rest)
	case "presence":
		return (&presenceCommand{configPath: configPath}).Execute(rest)
	case "config":
		return (&configCommand{configPath: configPath}).Execute(rest)
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runRunCommand runs the run command.
func runRunCommand(configPath string, args []string) error {
	cmd, err := parseRunCommand(configPath, args)
	if err != nil {
		return err
	}
	return cmd.Execute()
}

func parseRunCommand(configPath string, args []string) (*runCommand, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	refreshNow := fs.Bool("refresh-now", false, "refresh the signed-in account's stats on start")
	format := fs.String("format", "simple", "status line format (simple, json)")
	quiet := fs.Bool("quiet", false, "do not print status changes")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &runCommand{
		configPath: configPath,
		refreshNow: *refreshNow,
		format:     *format,
		quiet:      *quiet,
	}, nil
}

// runRefreshCommand runs the refresh command.
func runRefreshCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	accountID := fs.String("account", "", "bind the signed-in identity to this account if none matches")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &refreshCommand{
		configPath: configPath,
		accountID:  *accountID,
	}
	return cmd.Execute()
}

// showUsage displays usage information.
func showUsage() error {
	usage := `lcu-keeper - game account keeper and client automation

Usage:
  lcu-keeper [flags] <command> [command flags]

Commands:
  run         Run the automation engine until Ctrl+C
  status      Show client connection and automation settings
  refresh     Record the signed-in account's level, wallet and skins
  account     Account management (list, add, edit, rank, show, delete, export, import, check)
  target      Set or clear the pick and ban champions
  toggle      Switch auto accept, pick or ban on or off
  presence    Set chat availability (chat, away, dnd)
  config      Configuration management (show, path, reset)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Run Command Flags:
  -refresh-now  Refresh stats right away instead of after the first interval
  -format       Status line format (simple, json)
  -quiet        Do not print status changes

Refresh Command Flags:
  -account    Account id to bind when no stored handle matches

Examples:
  # Accept queues and pick Ahri automatically
  lcu-keeper toggle accept on
  lcu-keeper target pick Ahri
  lcu-keeper toggle pick on
  lcu-keeper run

  # Add an account (password is prompted)
  lcu-keeper account add -login mylogin -handle "Name#EUW" -server EUW1

  # List Diamond accounts on EUW, best first
  lcu-keeper account list -server EUW1 -query diamond

  # Update ranks of every account
  lcu-keeper account check

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
