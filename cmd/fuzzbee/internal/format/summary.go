// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fuzzbee/fuzzbee/pkg/engine"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	plainStyle   = lipgloss.NewStyle()
)

func styleForStop(stop engine.StopReason) lipgloss.Style {
	switch stop {
	case engine.StopCompleted, engine.StopExhausted:
		return successStyle
	case engine.StopInterrupted:
		return warnStyle
	default:
		return errorStyle
	}
}

// PrintRunSummary prints sum as a boxed report in table mode and as a plain
// object otherwise.
func (f *formatter) PrintRunSummary(sum engine.Summary) error {
	if f.mode != ModeTable {
		return f.Print(sum)
	}
	if f.quiet {
		return nil
	}
	_, err := fmt.Fprintln(f.stdout, RenderRunSummary(sum, f.color))
	return err
}

// RenderRunSummary renders sum inside a rounded box. Without color every
// style is dropped but the layout stays the same.
func RenderRunSummary(sum engine.Summary, colored bool) string {
	style := func(s lipgloss.Style) lipgloss.Style {
		if colored {
			return s
		}
		return plainStyle
	}
	count := func(s lipgloss.Style, n int) string {
		if n == 0 {
			return style(subtleStyle).Render("0")
		}
		return style(s).Render(fmt.Sprint(n))
	}

	rows := [][2]string{
		{"Stopped", style(styleForStop(sum.Stop)).Render(string(sum.Stop))},
		{"Iterations", fmt.Sprint(sum.Iterations)},
		{"Elapsed", sum.Elapsed.Round(time.Millisecond).String()},
		{"Crashes", count(errorStyle, sum.Crashes)},
		{"Hangs", count(warnStyle, sum.Hangs)},
		{"New paths", count(infoStyle, sum.NewPaths)},
	}
	if sum.Duplicates > 0 {
		rows = append(rows, [2]string{"Duplicates", fmt.Sprint(sum.Duplicates)})
	}
	if sum.SaveFailures > 0 {
		rows = append(rows, [2]string{"Save failures", style(errorStyle).Render(fmt.Sprint(sum.SaveFailures))})
	}
	rows = append(rows, [2]string{"Output", sum.Output})

	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	var sb strings.Builder
	sb.WriteString(style(titleStyle).Render("Fuzzing run " + sum.RunID))
	for _, r := range rows {
		sb.WriteString("\n")
		sb.WriteString(style(subtleStyle).Render(fmt.Sprintf("%-*s", width, r[0])))
		sb.WriteString("  ")
		sb.WriteString(r[1])
	}
	return boxStyle.Render(sb.String())
}
