package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ncecere/usage_dashboard/internal/models"
	"github.com/ncecere/usage_dashboard/internal/sortspec"
	"github.com/ncecere/usage_dashboard/internal/timeutil"
	"github.com/ncecere/usage_dashboard/internal/usage"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	colMessageID = iota
	colTimestamp
	colReportName
	colCredits
)

func newTableCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the usage table (the default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable(cmd, opts)
		},
	}
}

func runTable(cmd *cobra.Command, opts *options) error {
	ctx, cancel := opts.withTimeout(cmd.Context())
	defer cancel()

	container, err := opts.container(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = container.Shutdown(context.Background()) }()

	spec := opts.sortSpec()
	records, err := container.UsageService.Usage(ctx, spec)
	if err != nil {
		return fmt.Errorf("load usage: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderUsageTable(records, spec))
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d messages, %s credits", len(records), formatCredits(usage.TotalCredits(records)))))
	return nil
}

// renderUsageTable draws records with header arrows for the active sort.
func renderUsageTable(records []models.UsageRecord, spec sortspec.Spec) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.MessageID, 10),
			formatTimestamp(r.Timestamp),
			r.ReportNameOrEmpty(),
			formatCredits(r.CreditsUsed),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(
			"Message ID",
			"Timestamp",
			sortHeader("Report Name", spec, sortspec.ColumnReportName),
			sortHeader("Credits Used", spec, sortspec.ColumnCreditsUsed),
		).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == colCredits || col == colMessageID:
				return numberStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

func sortHeader(label string, spec sortspec.Spec, col sortspec.Column) string {
	switch spec.State(col) {
	case sortspec.Ascending:
		return label + " ▲"
	case sortspec.Descending:
		return label + " ▼"
	default:
		return label
	}
}

// formatTimestamp renders timestamps as DD-MM-YYYY HH:mm in UTC.
func formatTimestamp(raw string) string {
	ts, err := timeutil.ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return ts.UTC().Format("02-01-2006 15:04")
}

func formatCredits(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if strings.HasPrefix(s, "-0.00") {
		return "0.00"
	}
	return s
}
