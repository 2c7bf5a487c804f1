// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the mirrorchat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Sidebar
	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SessionItem     lipgloss.Style
	SessionSelected lipgloss.Style
	SessionActive   lipgloss.Style
	FavoriteMark    lipgloss.Style

	// Transcript
	Header          lipgloss.Style
	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style

	// Chrome
	InputContainer lipgloss.Style
	StatusBar      lipgloss.Style
	StatusSending  lipgloss.Style
	ErrorText      lipgloss.Style
	HelpText       lipgloss.Style
}

// palette is the small set of accent colors shared by both themes.
type palette struct {
	accent    lipgloss.Color
	secondary lipgloss.Color
	muted     lipgloss.Color
	errorRed  lipgloss.Color
	favorite  lipgloss.Color
	border    lipgloss.Color
}

func darkPalette() palette {
	return palette{
		accent:    lipgloss.Color("75"),
		secondary: lipgloss.Color("141"),
		muted:     lipgloss.Color("243"),
		errorRed:  lipgloss.Color("203"),
		favorite:  lipgloss.Color("220"),
		border:    lipgloss.Color("238"),
	}
}

func lightPalette() palette {
	return palette{
		accent:    lipgloss.Color("27"),
		secondary: lipgloss.Color("91"),
		muted:     lipgloss.Color("245"),
		errorRed:  lipgloss.Color("160"),
		favorite:  lipgloss.Color("136"),
		border:    lipgloss.Color("250"),
	}
}

// NewTheme builds the theme for the named variant ("dark" or "light").
func NewTheme(name string) *Theme {
	isDark := name != "light"
	p := darkPalette()
	if !isDark {
		p = lightPalette()
	}

	return &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),

		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(p.border).
			PaddingRight(1),
		SidebarTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.secondary).
			MarginBottom(1),
		SessionItem: lipgloss.NewStyle().
			Foreground(p.muted),
		SessionSelected: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),
		SessionActive: lipgloss.NewStyle().
			Foreground(p.accent),
		FavoriteMark: lipgloss.NewStyle().
			Foreground(p.favorite),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.border),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.accent),
		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.secondary),
		UserBubble: lipgloss.NewStyle().
			PaddingLeft(2),
		AssistantBubble: lipgloss.NewStyle().
			PaddingLeft(2),

		InputContainer: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(p.border),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.muted),
		StatusSending: lipgloss.NewStyle().
			Foreground(p.favorite),
		ErrorText: lipgloss.NewStyle().
			Foreground(p.errorRed),
		HelpText: lipgloss.NewStyle().
			Foreground(p.muted),
	}
}
