package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/luck/pkg/api"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	redBall     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5222D"))
	blueBall    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1677FF")).Bold(true)
	nameCol     = lipgloss.NewStyle().Width(18)
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// renderCombo prints a ticket as "01 05 09 14 22 30 + 07".
func renderCombo(c api.Combo) string {
	reds := make([]string, len(c.Reds))
	for i, n := range c.Reds {
		reds[i] = fmt.Sprintf("%02d", n)
	}
	return redBall.Render(strings.Join(reds, " ")) + " + " + blueBall.Render(fmt.Sprintf("%02d", c.Blue))
}

func renderStats(s *api.Stats) string {
	if s == nil {
		return ""
	}
	return mutedStyle.Render(fmt.Sprintf("bands low/mid/high %d/%d/%d  odd/even %d/%d  low/high %d/%d",
		s.BandShare.Low, s.BandShare.Mid, s.BandShare.High,
		s.OddEven.Odd, s.OddEven.Even,
		s.HighLow.Low, s.HighLow.High))
}

func mark(ok bool) string {
	if ok {
		return okStyle.Render("ok  ")
	}
	return failStyle.Render("FAIL")
}
