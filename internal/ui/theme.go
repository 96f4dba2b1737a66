package ui

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
)

const DefaultStyleVariant = "modern_arcade"

// StyleVariants lists the accepted values for the style setting.
var StyleVariants = []string{"modern_arcade", "cozy_clean", "retro_terminal"}

func ValidStyleVariant(v string) bool {
	for _, s := range StyleVariants {
		if s == v {
			return true
		}
	}
	return false
}

type Theme struct {
	Header      lipgloss.Style
	Status      lipgloss.Style
	PanelTitle  lipgloss.Style
	PanelBorder lipgloss.Style
	PanelBody   lipgloss.Style
	Selected    lipgloss.Style
	Accent      lipgloss.Style
	Pass        lipgloss.Style
	Fail        lipgloss.Style
	Warn        lipgloss.Style
	Muted       lipgloss.Style

	// Bar holds the progress bar gradient endpoints.
	Bar [2]color.Color
}

type palette struct {
	bg, bar, text, border, title, good, bad, warn, muted, accent string
}

var palettes = map[string]palette{
	"modern_arcade": {
		bg: "#0E1420", bar: "#1B2740", text: "#EAF2FF", border: "#4B5F8A",
		title: "#5EEBFF", good: "#67F0A8", bad: "#FF6F91", warn: "#FFC857",
		muted: "#9CAAC6", accent: "#5EEBFF",
	},
	"cozy_clean": {
		bg: "#1E2430", bar: "#30394A", text: "#F4F6FA", border: "#4A5972",
		title: "#F2B872", good: "#80C4A3", bad: "#D17A86", warn: "#F2B872",
		muted: "#A3ACC2", accent: "#86B6F6",
	},
	"retro_terminal": {
		bg: "#07150A", bar: "#12301A", text: "#C5F7C4", border: "#1F5C2F",
		title: "#E5D47A", good: "#9CF5A2", bad: "#FF6B6B", warn: "#E5D47A",
		muted: "#73A17A", accent: "#9CF5A2",
	},
}

// ThemeForVariant falls back to the default variant for unknown names.
func ThemeForVariant(variant string) Theme {
	p, ok := palettes[strings.TrimSpace(variant)]
	if !ok {
		p = palettes[DefaultStyleVariant]
	}
	c := func(hex string) color.Color { return lipgloss.Color(hex) }
	return Theme{
		Header:      lipgloss.NewStyle().Background(c(p.bg)).Foreground(c(p.text)).Bold(true).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(c(p.bar)).Foreground(c(p.text)).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(c(p.title)).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(c(p.border)),
		PanelBody:   lipgloss.NewStyle().Foreground(c(p.text)),
		Selected:    lipgloss.NewStyle().Foreground(c(p.bg)).Background(c(p.accent)).Bold(true),
		Accent:      lipgloss.NewStyle().Foreground(c(p.accent)).Bold(true),
		Pass:        lipgloss.NewStyle().Foreground(c(p.good)).Bold(true),
		Fail:        lipgloss.NewStyle().Foreground(c(p.bad)).Bold(true),
		Warn:        lipgloss.NewStyle().Foreground(c(p.warn)),
		Muted:       lipgloss.NewStyle().Foreground(c(p.muted)),
		Bar:         [2]color.Color{c(p.accent), c(p.good)},
	}
}
