package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"ferrous/internal/diag"
	"ferrous/internal/driver"
	"ferrous/internal/source"
)

var (
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	codeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	fixStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

func severityStyle(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SevError:
		return errorStyle
	case diag.SevWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// formatSpan resolves a span through the body's file table when one was
// exported, falling back to the raw offsets.
func formatSpan(fs *source.FileSet, span source.Span) string {
	if fs != nil {
		if file := fs.Get(span.File); file != nil {
			if start, _, ok := fs.Resolve(span); ok {
				return fmt.Sprintf("%s:%d:%d", file.FormatPath("auto", fs.BaseDir()), start.Line, start.Col)
			}
		}
	}
	return "@" + span.String()
}

// renderDiagnostics prints one body's diagnostics in the short CLI form:
//
//	error  [BCK3103] main: re-assignment of immutable binding 'x' src/main.fe:3:5
//	    note: first assignment occurs here src/main.fe:2:9
//	    fix: make 'x' mutable
func renderDiagnostics(w io.Writer, res *driver.BodyResult, useColor bool) {
	if res.Bag == nil || res.Bag.Len() == 0 {
		return
	}
	name := res.Name
	if name == "" {
		name = res.Path
	}
	if useColor {
		name = headerStyle.Render(name)
	}
	// Выравниваем метки по самой широкой: "warning" = 7.
	const labelWidth = 7
	for _, d := range res.Bag.Items() {
		padded := runewidth.FillRight(d.Severity.Label(), labelWidth)
		code := fmt.Sprintf("[%s]", d.Code.ID())
		if useColor {
			padded = severityStyle(d.Severity).Render(padded)
			code = codeStyle.Render(code)
		}
		fmt.Fprintf(w, "%s%s %s: %s %s\n", padded, code, name, d.Message, formatSpan(res.Files, d.Primary))
		for _, note := range d.Notes {
			line := fmt.Sprintf("    note: %s %s", note.Msg, formatSpan(res.Files, note.Span))
			if useColor {
				line = noteStyle.Render(line)
			}
			fmt.Fprintln(w, line)
		}
		for _, fix := range d.Fixes {
			line := fmt.Sprintf("    fix: %s", fix.Title)
			if useColor {
				line = fixStyle.Render(line)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func renderTimings(w io.Writer, res *driver.BodyResult) {
	fmt.Fprintf(w, "timings for %s:\n", res.Path)
	for _, phase := range res.Timing.Phases {
		fmt.Fprintf(w, "  %s %7.2f ms", runewidth.FillRight(phase.Name, 12), phase.DurationMS)
		if phase.Note != "" {
			fmt.Fprintf(w, "  // %s", phase.Note)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  %s %7.2f ms\n", runewidth.FillRight("total", 12), res.Timing.TotalMS)
}
