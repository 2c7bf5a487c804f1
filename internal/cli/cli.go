// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/mirrorchat/internal/config"
)

// Version information, synced from main at startup.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command identifies which top-level command was requested.
type Command int

const (
	CmdTUI Command = iota // Default: launch the chat TUI
	CmdConfig
	CmdVersion
	CmdHelp
)

// Parse inspects os.Args and returns the requested command plus its
// remaining arguments.
func Parse() (Command, []string) {
	if len(os.Args) < 2 {
		return CmdTUI, nil
	}
	switch os.Args[1] {
	case "config":
		return CmdConfig, os.Args[2:]
	case "version", "--version", "-v":
		return CmdVersion, nil
	case "help", "--help", "-h":
		return CmdHelp, nil
	default:
		return CmdTUI, os.Args[1:]
	}
}

// HandleVersion prints version information.
func HandleVersion() {
	fmt.Printf("mirrorchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}

// HandleHelp prints usage information.
func HandleHelp() {
	fmt.Print(`mirrorchat - terminal client for a remote chat-session service

Usage:
  mirrorchat             Launch the chat TUI
  mirrorchat config      Show configuration and its file path
  mirrorchat config init Write a starter config file
  mirrorchat version     Print version information
  mirrorchat help        Show this help

Configuration:
  File: ~/.mirrorchat/config.toml
  Env:  MIRRORCHAT_SERVER_URL, MIRRORCHAT_API_KEY, MIRRORCHAT_CHAT_ID,
        MIRRORCHAT_PAGE_SIZE, MIRRORCHAT_LOG_LEVEL
`)
}

// HandleConfig implements the config command: show the effective
// configuration, or write a starter file with "init".
func HandleConfig(args []string) error {
	if len(args) > 0 && args[0] == "init" {
		path, err := config.Path()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Printf("Wrote starter config to %s\n", path)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path, _ := config.Path()

	fmt.Printf("Config file: %s\n\n", path)
	fmt.Printf("server.url        = %q\n", cfg.Server.URL)
	fmt.Printf("server.chat_id    = %q\n", cfg.Server.ChatID)
	fmt.Printf("server.api_key    = %s\n", maskKey(cfg.Server.APIKey))
	fmt.Printf("sessions.page_size = %d\n", cfg.Sessions.PageSize)
	fmt.Printf("ui.theme          = %q\n", cfg.UI.Theme)
	fmt.Printf("log.level         = %q\n", cfg.Log.Level)
	if !cfg.IsConfigured() {
		fmt.Println("\nServer connection is not fully configured.")
	}
	return nil
}

// maskKey hides all but the tail of a credential for display.
func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
