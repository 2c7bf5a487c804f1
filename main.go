// mirrorchat - a terminal client for a remote chat-session service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/jeranaias/mirrorchat/internal/api"
	"github.com/jeranaias/mirrorchat/internal/cli"
	"github.com/jeranaias/mirrorchat/internal/config"
	"github.com/jeranaias/mirrorchat/internal/conversation"
	"github.com/jeranaias/mirrorchat/internal/store"
	"github.com/jeranaias/mirrorchat/internal/ui/chat"
	"github.com/jeranaias/mirrorchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	case cli.CmdConfig:
		if err := cli.HandleConfig(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		runTUI()
	}
}

// runTUI loads configuration, wires the engine, and starts the chat view.
func runTUI() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	if !cfg.IsConfigured() {
		fmt.Fprintln(os.Stderr, "Server connection is not configured.")
		fmt.Fprintln(os.Stderr, "Run 'mirrorchat config init' and fill in server.url, server.api_key and server.chat_id.")
		os.Exit(1)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "mirrorchat requires an interactive terminal.")
		os.Exit(1)
	}

	client := api.NewClient(cfg.Server.URL, cfg.Server.APIKey, cfg.Server.ChatID)
	st := store.New(client, cfg.Sessions.PageSize)
	ctrl := conversation.NewController(st, client)
	theme := styles.NewTheme(cfg.UI.Theme)

	program := tea.NewProgram(
		chat.New(st, ctrl, theme, cfg.UI.CompactMode),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging configures the process logger. The TUI owns the terminal, so
// logs go to a file in the config directory instead of stderr.
func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(io.Discard)

	dir, err := config.Dir()
	if err != nil {
		return
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "mirrorchat.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	log.SetOutput(f)
}
