// Package ui provides styled terminal output for the claimsql CLI.
// Styling uses lipgloss and falls back to plain text when output is not
// a terminal or colors are disabled.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/willfong/claimsql/internal/templates"
)

// UI holds the terminal state and provides styled output methods.
type UI struct {
	IsTTY   bool
	Width   int
	NoColor bool
}

// KV represents a key-value pair for summary displays.
type KV struct {
	Key   string
	Value string
}

// New creates a UI for stdout.
func New() *UI {
	return NewFor(os.Stdout)
}

// NewFor creates a UI for w. Anything other than a terminal file gets
// plain output.
func NewFor(w io.Writer) *UI {
	u := &UI{
		Width:   80,
		NoColor: os.Getenv("NO_COLOR") != "",
	}

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return u
	}
	u.IsTTY = true
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		u.Width = width
	}
	return u
}

// SetNoColor disables colors and animations.
func (u *UI) SetNoColor(noColor bool) {
	u.NoColor = noColor
}

// shouldStyle returns true if we should use styled output.
func (u *UI) shouldStyle() bool {
	return u.IsTTY && !u.NoColor
}

// Header renders a bordered header box.
func (u *UI) Header(title string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("=== %s ===", title)
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 2)

	return style.Render(title)
}

// KeyValue renders a styled key-value pair.
func (u *UI) KeyValue(key, value string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("%-12s %s", key+":", value)
	}

	keyStyle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Width(12)
	valueStyle := lipgloss.NewStyle().
		Bold(true)

	return "  " + keyStyle.Render(key) + " " + valueStyle.Render(value)
}

// Success renders a success message with a green checkmark.
func (u *UI) Success(msg string) string {
	if !u.shouldStyle() {
		return "[OK] " + msg
	}

	return StyleSuccess.Render(SymbolSuccess+" ") + msg
}

// Error renders an error message with a red X.
func (u *UI) Error(msg string) string {
	if !u.shouldStyle() {
		return "[FAILED] " + msg
	}

	return StyleError.Render(SymbolError + " " + msg)
}

// Warning renders a warning message.
func (u *UI) Warning(msg string) string {
	if !u.shouldStyle() {
		return "[WARN] " + msg
	}

	return StyleWarning.Render(SymbolWarning + " " + msg)
}

// Muted renders muted/dim text.
func (u *UI) Muted(msg string) string {
	if !u.shouldStyle() {
		return msg
	}

	return StyleMuted.Render(msg)
}

// Bold renders bold text.
func (u *UI) Bold(msg string) string {
	if !u.shouldStyle() {
		return msg
	}

	return lipgloss.NewStyle().Bold(true).Render(msg)
}

// Category renders a category name, highlighting alerting categories.
func (u *UI) Category(info templates.CategoryInfo) string {
	if !u.shouldStyle() {
		return info.Name
	}

	return categoryStyle(info).Render(info.Name)
}

// SummaryBox renders a bordered summary section.
func (u *UI) SummaryBox(title string, items []KV) string {
	if !u.shouldStyle() {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("\n=== %s ===\n", title))
		for _, item := range items {
			sb.WriteString(fmt.Sprintf("%-14s %s\n", item.Key+":", item.Value))
		}
		return sb.String()
	}

	maxKeyWidth := 0
	for _, item := range items {
		if len(item.Key) > maxKeyWidth {
			maxKeyWidth = len(item.Key)
		}
	}

	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(maxKeyWidth + 2)
	valueStyle := lipgloss.NewStyle().Bold(true)

	var lines []string
	for _, item := range items {
		value := item.Value
		switch {
		case item.Key == "Status" && strings.Contains(strings.ToLower(value), "ok"):
			value = StyleSuccess.Render(SymbolSuccess + " " + value)
		case item.Key == "Status" && strings.Contains(strings.ToLower(value), "fail"):
			value = StyleError.Render(SymbolError + " " + value)
		default:
			value = valueStyle.Render(value)
		}

		lines = append(lines, "  "+keyStyle.Render(item.Key)+" "+value)
	}
	content := strings.Join(lines, "\n")

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorSuccess)

	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorSuccess).
		Padding(0, 1)

	return "\n" + titleStyle.Render("  "+title) + "\n" + boxStyle.Render(content)
}

// TableRow renders a table row with status.
func (u *UI) TableRow(name string, value string, status Status) string {
	if !u.shouldStyle() {
		prefix := ""
		if status == StatusError {
			prefix = "FAILED: "
		}
		return fmt.Sprintf("  %-30s %s%s", name+":", prefix, value)
	}

	nameStyle := lipgloss.NewStyle().Width(30)
	var symbol string
	var valueStyled string

	switch status {
	case StatusSuccess:
		symbol = StyleSuccess.Render(SymbolSuccess)
		valueStyled = value
	case StatusWarning:
		symbol = StyleWarning.Render(SymbolWarning)
		valueStyled = StyleWarning.Render(value)
	case StatusError:
		symbol = StyleError.Render(SymbolError)
		valueStyled = StyleError.Render(value)
	case StatusPending:
		symbol = StyleMuted.Render(SymbolPending)
		valueStyled = StyleMuted.Render(value)
	default:
		symbol = " "
		valueStyled = value
	}

	return fmt.Sprintf("  %s %s %s", symbol, nameStyle.Render(name), valueStyled)
}

// Status represents the status of an operation.
type Status int

const (
	StatusNone Status = iota
	StatusPending
	StatusSuccess
	StatusWarning
	StatusError
)
