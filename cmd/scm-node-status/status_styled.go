package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bakermat/steelconnect-node-status/pkg/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

const (
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const bannerWidth = 145

var (
	onlineColor  = lipgloss.Color("2") // Green
	offlineColor = lipgloss.Color("9") // Bright red
	borderColor  = lipgloss.Color("8") // Grey
)

var columns = []string{"SCM Realm", "Organisation", "Site", "Model", "Firmware", "Serial"}

func validFormat(format string) bool {
	switch strings.ToLower(format) {
	case formatText, formatTable, formatJSON, formatYAML:
		return true
	}
	return false
}

// structuredFormat reports whether format is a document meant for other tools.
func structuredFormat(format string) bool {
	switch strings.ToLower(format) {
	case formatJSON, formatYAML:
		return true
	}
	return false
}

// statusStyles holds the row styles bound to one output.
type statusStyles struct {
	online  lipgloss.Style
	offline lipgloss.Style
	header  lipgloss.Style
	border  lipgloss.Style
}

// newStatusStyles binds styles to w. Colours are always emitted as ANSI
// escapes unless color is false, whether or not w is a terminal.
func newStatusStyles(w io.Writer, color bool) statusStyles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return statusStyles{
		online:  r.NewStyle().Foreground(onlineColor),
		offline: r.NewStyle().Foreground(offlineColor),
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		border:  r.NewStyle().Foreground(borderColor),
	}
}

func (s statusStyles) row(online bool) lipgloss.Style {
	if online {
		return s.online
	}
	return s.offline
}

func renderReport(w io.Writer, rep report.Report, format string, color bool) error {
	switch strings.ToLower(format) {
	case formatText:
		renderText(w, rep, newStatusStyles(w, color))
	case formatTable:
		renderTable(w, rep, newStatusStyles(w, color))
	case formatJSON:
		b, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintln(w, string(b))
	case formatYAML:
		b, err := yaml.Marshal(rep)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprint(w, string(b))
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	return nil
}

func formatLine(realm, org, site, model, firmware, serial string) string {
	return fmt.Sprintf(" %-25s %-15s %-61s %-10s %-12s %-16s", realm, org, site, model, firmware, serial)
}

// renderText prints the fixed-width layout, one coloured line per node.
func renderText(w io.Writer, rep report.Report, styles statusStyles) {
	banner := strings.Repeat("*", bannerWidth)

	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, formatLine(columns[0], columns[1], columns[2], columns[3], columns[4], columns[5]))
	fmt.Fprintln(w, banner)

	for _, row := range rep.Rows {
		line := formatLine(row.Realm, row.Organisation, row.Site, row.Model, row.Firmware, row.Serial)
		fmt.Fprintln(w, styles.row(row.Online).Render(line))
	}

	fmt.Fprintln(w, summaryLine(rep.Summary))
}

// renderTable prints a bordered table of the same columns.
func renderTable(w io.Writer, rep report.Report, styles statusStyles) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.border).
		Headers(columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			if row < 0 || row >= len(rep.Rows) {
				return styles.header.Bold(false)
			}
			return styles.row(rep.Rows[row].Online).Padding(0, 1)
		})

	for _, row := range rep.Rows {
		t.Row(row.Realm, row.Organisation, row.Site, row.Model, row.Firmware, row.Serial)
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, summaryLine(rep.Summary))
}

func summaryLine(s report.Summary) string {
	return fmt.Sprintf("\nTotal: %d nodes (%d online, %d offline)\n", s.Total, s.Online, s.Offline)
}
