package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/ncecere/usage_dashboard/internal/models"
)

var barStyle = headerStyle.Padding(0)

func newChartCmd(opts *options) *cobra.Command {
	var (
		width  int
		height int
		bars   bool
	)
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Plot credits per UTC day for the current period",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.withTimeout(cmd.Context())
			defer cancel()

			container, err := opts.container(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = container.Shutdown(context.Background()) }()

			daily, err := container.UsageService.Daily(ctx)
			if err != nil {
				return fmt.Errorf("load daily usage: %w", err)
			}
			if bars {
				fmt.Fprintln(cmd.OutOrStdout(), renderDailyBars(daily, width))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDailyChart(daily, width, height))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 60, "Chart width in columns")
	cmd.Flags().IntVar(&height, "height", 10, "Chart height in rows")
	cmd.Flags().BoolVar(&bars, "bars", false, "Render one labelled bar per day instead of a line")
	return cmd
}

// renderDailyChart plots bucket credits as a line, captioned with the date range.
func renderDailyChart(buckets []models.ChartBucket, width, height int) string {
	if len(buckets) == 0 {
		return mutedStyle.Render("No usage this period")
	}
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([]float64, len(buckets))
	for i, b := range buckets {
		data[i] = b.Credits
	}
	// a single day cannot be interpolated across a width
	if len(data) == 1 {
		data = append(data, data[0])
	}

	caption := fmt.Sprintf("credits per day, %s to %s", buckets[0].Date, buckets[len(buckets)-1].Date)
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	)
}

// renderDailyBars draws one horizontal bar per day scaled to the busiest day.
func renderDailyBars(buckets []models.ChartBucket, width int) string {
	if len(buckets) == 0 {
		return mutedStyle.Render("No usage this period")
	}

	maxVal := 0.0
	for _, b := range buckets {
		if b.Credits > maxVal {
			maxVal = b.Credits
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	barWidth := width - len("2006-01-02") - 12
	if barWidth < 10 {
		barWidth = 10
	}

	lines := make([]string, 0, len(buckets))
	for _, b := range buckets {
		n := int(b.Credits / maxVal * float64(barWidth))
		if n < 0 {
			n = 0
		}
		bar := barStyle.Render(strings.Repeat("█", n))
		lines = append(lines, fmt.Sprintf("%s %s %s", b.Date, bar, formatCredits(b.Credits)))
	}
	return strings.Join(lines, "\n")
}
