package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F5F", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	card     lipgloss.Style
	reversed lipgloss.Style
	phase    lipgloss.Style
	err      lipgloss.Style
	ambient  lipgloss.Style
	help     lipgloss.Style
}

func NewPalette(t, c, e, w, h string) *Palette {
	return &Palette{
		title:    NewBold(t).MarginBottom(1),
		card:     NewBold(c),
		reversed: NewEm(w),
		phase:    NewStyle(t),
		err:      NewBold(e),
		ambient:  NewEm(h),
		help:     NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
