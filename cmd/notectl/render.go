package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"voicenote/internal/export"
	"voicenote/internal/extract"
	"voicenote/internal/store"
)

var (
	colorCyan  = lipgloss.Color("#00FFFF")
	colorGray  = lipgloss.Color("#666666")
	colorGreen = lipgloss.Color("#00FF00")
	colorRed   = lipgloss.Color("#FF0000")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	tagStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Padding(0, 1)

	okStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)
)

func renderResult(res extract.Result) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Summary") + "\n")
	b.WriteString(res.Summary + "\n\n")
	b.WriteString(headingStyle.Render("To-dos") + "\n")
	for _, todo := range res.Todos {
		b.WriteString("  • " + strings.TrimLeft(todo, "-*• ") + "\n")
	}
	b.WriteString("\n" + renderTags(res.Tags))
	return panelStyle.Render(b.String())
}

func renderNote(n store.Note) string {
	header := titleStyle.Render(export.Title(n)) + "\n" +
		dimStyle.Render(fmt.Sprintf("%s  %s", n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04")))
	body := renderResult(extract.Result{Summary: n.Summary, Todos: n.Todos, Tags: n.Tags})
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func renderList(list []store.Note) string {
	if len(list) == 0 {
		return dimStyle.Render("no notes")
	}
	lines := make([]string, 0, len(list))
	for _, n := range list {
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			dimStyle.Render(n.CreatedAt.Local().Format("2006-01-02 15:04")),
			titleStyle.Render(export.Title(n)),
			dimStyle.Render(n.ID)))
	}
	return strings.Join(lines, "\n")
}

func renderTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, tagStyle.Render("#"+t))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
