package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/0xmhha/lcu-keeper/pkg/config"
)

// targetCommand sets or clears the champion targets.
type targetCommand struct {
	configPath string
}

// Execute runs the target command.
//
//	target pick|ban NAME|ID
//	target clear pick|ban
func (c *targetCommand) Execute(args []string) error {
	role, query, clear, err := parseTargetArgs(args)
	if err != nil {
		return err
	}

	cfg, path, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	target := config.ChampionTarget{Name: config.NoChampion}
	if !clear {
		var lister championLister
		handler, _ := newHandler(cfg, newLogger(cfg))
		if handler.Discover() {
			lister = handler
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		target, err = resolveChampion(ctx, lister, query)
		if err != nil {
			return err
		}
	}

	_, err = config.Edit(path, func(doc *config.Config) error {
		switch role {
		case "pick":
			doc.SetPick(target.ID, target.Name)
		case "ban":
			doc.SetBan(target.ID, target.Name)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if clear {
		fmt.Printf("Cleared %s target\n", role)
	} else {
		fmt.Printf("Set %s target to %s (%d)\n", role, target.Name, target.ID)
	}
	return nil
}

// parseTargetArgs validates target arguments.
func parseTargetArgs(args []string) (role, query string, clear bool, err error) {
	usage := errors.New("usage: lcu-keeper target pick|ban NAME|ID, or target clear pick|ban")

	if len(args) < 2 {
		return "", "", false, usage
	}

	if args[0] == "clear" {
		if len(args) != 2 || !validRole(args[1]) {
			return "", "", false, usage
		}
		return args[1], "", true, nil
	}

	if !validRole(args[0]) {
		return "", "", false, usage
	}
	query = strings.TrimSpace(strings.Join(args[1:], " "))
	if query == "" {
		return "", "", false, usage
	}
	return args[0], query, false, nil
}

func validRole(s string) bool {
	return s == "pick" || s == "ban"
}

// toggleCommand switches one automation on or off.
type toggleCommand struct {
	configPath string
}

// Execute runs the toggle command.
//
//	toggle accept|pick|ban [on|off]
//
// Without on or off the current value is flipped.
func (c *toggleCommand) Execute(args []string) error {
	var (
		name  string
		value bool
		usage error
	)
	cfg, err := config.Edit(configFilePath(c.configPath), func(doc *config.Config) error {
		name, value, usage = applyToggle(&doc.Automation, args)
		return usage
	})
	if usage != nil {
		return usage
	}
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	state := "off"
	if value {
		state = "on"
	}
	fmt.Printf("Auto %s is %s\n", name, state)

	if value {
		switch {
		case name == "pick" && !cfg.Automation.Pick.IsSet():
			fmt.Println("No pick target set; use: lcu-keeper target pick NAME")
		case name == "ban" && !cfg.Automation.Ban.IsSet():
			fmt.Println("No ban target set; use: lcu-keeper target ban NAME")
		}
	}
	return nil
}

// applyToggle changes one toggle of a and returns its name and new value.
func applyToggle(a *config.AutomationConfig, args []string) (string, bool, error) {
	usage := errors.New("usage: lcu-keeper toggle accept|pick|ban|events [on|off]")
	if len(args) < 1 || len(args) > 2 {
		return "", false, usage
	}

	var field *bool
	switch args[0] {
	case "accept":
		field = &a.AutoAccept
	case "pick":
		field = &a.AutoPick
	case "ban":
		field = &a.AutoBan
	case "events":
		field = &a.ListenEvents
	default:
		return "", false, usage
	}

	value := !*field
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "on", "true", "1":
			value = true
		case "off", "false", "0":
			value = false
		default:
			return "", false, usage
		}
	}

	*field = value
	return args[0], value, nil
}
