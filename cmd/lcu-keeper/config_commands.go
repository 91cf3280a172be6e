package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/lcu-keeper/pkg/config"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	configPath string
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "show":
		return c.runShow(subargs)
	case "path":
		return c.runPath()
	case "reset":
		return c.runReset(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", subcommand)
	}
}

// runShow displays the effective configuration.
func (c *configCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, path, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Println("# Effective configuration")
		fmt.Println("# Source:", configSource(path))
		fmt.Println()
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unknown format %q (yaml, json)", *format)
	}
	return nil
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath() error {
	fmt.Println("Configuration file search paths (in order of precedence):")
	fmt.Println()

	for i, p := range config.SearchPaths() {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Printf("  %d. %s [%s]\n", i+1, p, exists)
	}

	fmt.Println()
	fmt.Println("Active configuration:", configSource(config.NewLoader(c.configPath).Path()))
	return nil
}

// runReset writes the default configuration.
func (c *configCommand) runReset(args []string) error {
	fs := flag.NewFlagSet("config reset", flag.ContinueOnError)
	force := fs.Bool("force", false, "skip confirmation prompt")
	output := fs.String("output", "", "output path for config file (default: active config path)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = config.NewLoader(c.configPath).Path()
	}

	if _, err := os.Stat(outputPath); err == nil && !*force {
		fmt.Printf("Configuration file already exists at: %s\n", outputPath)
		if !confirm("Overwrite?") {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	if err := config.Save(config.Default(), outputPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Configuration reset to defaults at: %s\n", outputPath)
	return nil
}

// configSource describes where the configuration comes from.
func configSource(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return "defaults (no config file found)"
}

// showHelp displays help for config command.
func (c *configCommand) showHelp() error {
	help := `Config - Configuration management

Usage:
  lcu-keeper config <subcommand> [flags]

Subcommands:
  show      Display the effective configuration
  path      Show configuration file paths
  reset     Reset configuration to defaults

Show Flags:
  -format   Output format (yaml, json) (default: yaml)

Reset Flags:
  -force    Skip confirmation prompt
  -output   Output path for config file

Environment:
  LCU_KEEPER_DB, LCU_KEEPER_KEY, LCU_KEEPER_LOCKFILE, LCU_KEEPER_INSTALL_DIR,
  LCU_KEEPER_REQUEST_TIMEOUT, LCU_KEEPER_RANK_URL, LCU_KEEPER_LOG_LEVEL,
  LCU_KEEPER_LOG_FORMAT (a .env file in the working directory is read first)

Examples:
  lcu-keeper config show
  lcu-keeper config show -format json
  lcu-keeper config path
  lcu-keeper config reset -force
`
	fmt.Print(help)
	return nil
}
