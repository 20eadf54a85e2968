package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"parking-analytics/internal/occupancy/domain/analytics"
)

// Report is everything the CLI prints for one lot.
type Report struct {
	FacilityID  string                     `json:"facility_id,omitempty"`
	GeneratedAt time.Time                  `json:"generated_at"`
	EventsToday int                        `json:"events_today"`
	Weekly      analytics.WeeklyHistogram  `json:"weekly"`
	Expected    analytics.ExpectedProfile  `json:"expected"`
	Growth      analytics.MembershipGrowth `json:"membership_growth"`
}

// Reporter renders a Report in one of the supported formats.
type Reporter struct {
	format string
	w      io.Writer
}

// NewReporter constructs a Reporter.
func NewReporter(format string, w io.Writer) *Reporter {
	return &Reporter{format: format, w: w}
}

// Print renders the report.
func (r *Reporter) Print(report Report) error {
	switch r.format {
	case "json":
		encoder := json.NewEncoder(r.w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "markdown":
		r.printMarkdown(report)
	default:
		r.printTables(report)
	}
	return nil
}

func (r *Reporter) printLine(a ...any) {
	_, _ = fmt.Fprintln(r.w, a...)
}

func (r *Reporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)

	t.Style().Title.Align = text.AlignCenter
	t.Style().Format.Header = text.FormatDefault

	return t
}

func (r *Reporter) printTables(report Report) {
	lot := report.FacilityID
	if lot == "" {
		lot = "all lots"
	}
	r.printLine()
	r.printLine("  Occupancy report:", lot)
	r.printLine("  Generated:", report.GeneratedAt.Format(time.RFC3339))
	r.printLine("  Entries today:", report.EventsToday)
	r.printLine()

	weekly := r.newTable("WEEK OF " + report.Weekly.WeekStart.Format("2006-01-02"))
	fillDayTable(weekly, report)
	weekly.Render()
	r.printLine()

	// Two narrow columns would wrap a table title.
	r.printLine("  MEMBERSHIP GROWTH")
	growth := r.newTable("")
	fillGrowthTable(growth, report.Growth)
	growth.Render()
	r.printLine()
}

func (r *Reporter) printMarkdown(report Report) {
	r.printLine("## Week of", report.Weekly.WeekStart.Format("2006-01-02"))
	r.printLine()
	weekly := r.newTable("")
	fillDayTable(weekly, report)
	weekly.RenderMarkdown()
	r.printLine()

	r.printLine("## Membership Growth")
	r.printLine()
	growth := r.newTable("")
	fillGrowthTable(growth, report.Growth)
	growth.RenderMarkdown()
	r.printLine()
}

func fillDayTable(t table.Writer, report Report) {
	t.AppendHeader(table.Row{"Day", "Entries", "Unpermitted", "Expected"})
	for day, label := range report.Weekly.Labels {
		expected := 0.0
		if day < len(report.Expected.Averages) {
			expected = report.Expected.Averages[day]
		}
		t.AppendRow(table.Row{
			label,
			report.Weekly.Counts[day],
			report.Weekly.Unpermitted[day],
			fmt.Sprintf("%.1f", expected),
		})
	}
	t.AppendFooter(table.Row{"Total", report.Weekly.Total, "", ""})
}

func fillGrowthTable(t table.Writer, growth analytics.MembershipGrowth) {
	t.AppendHeader(table.Row{"Week", "Members"})
	for i, label := range growth.Labels {
		t.AppendRow(table.Row{label, growth.Counts[i]})
	}
}
