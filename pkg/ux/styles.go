// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the Moorage CLI.
package ux

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Moorage color palette - harbor greens and weathered brass
var (
	ColorHarborBright  = lipgloss.Color("#3DDC97") // Bright green - success, highlights
	ColorHarborPrimary = lipgloss.Color("#2BB380") // Primary green - brand color
	ColorBrass         = lipgloss.Color("#C9A227") // Brass - warnings, accents
	ColorRust          = lipgloss.Color("#D9534F") // Rust red - errors
	ColorDriftwood     = lipgloss.Color("#8A7E66") // Driftwood - muted text
	ColorDeepWater     = lipgloss.Color("#1B4B5A") // Deep water - borders
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorHarborBright),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorDriftwood),
	Success:   lipgloss.NewStyle().Foreground(ColorHarborBright),
	Warning:   lipgloss.NewStyle().Foreground(ColorBrass),
	Error:     lipgloss.NewStyle().Foreground(ColorRust),
	Highlight: lipgloss.NewStyle().Foreground(ColorHarborPrimary).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDeepWater).
		Padding(0, 1),
}

// IsTTY reports whether stdout is an interactive terminal. Styled
// output is gated on this so piped output stays plain.
func IsTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Render applies style only when stdout is a terminal.
func Render(style lipgloss.Style, s string) string {
	if !IsTTY() {
		return s
	}
	return style.Render(s)
}

// Icon provides themed status glyphs
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Render(Styles.Success, string(i))
	case IconWarning:
		return Render(Styles.Warning, string(i))
	case IconError:
		return Render(Styles.Error, string(i))
	case IconPending:
		return Render(Styles.Muted, string(i))
	default:
		return string(i)
	}
}
