package output

import (
	"fmt"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ticketless/ticketless/internal/core"
	"github.com/ticketless/ticketless/internal/core/governor"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatReport renders a compliance report as a table.
func (f *TableFormatter) FormatReport(report *core.ComplianceReport) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// Keep footer labels lowercase; StyleRounded upper-cases them.
	t.Style().Format.Footer = text.FormatDefault
	t.SetTitle(fmt.Sprintf("%s (%s)", report.Plate, statusLabel(report.Status)))
	t.AppendHeader(table.Row{"Item", "Detail", "Due / Issued", "Amount"})

	for _, ticket := range report.Tickets {
		state := ""
		if ticket.Paid {
			state = " (paid)"
		}
		t.AppendRow(table.Row{
			"ticket " + ticket.Number,
			ticket.Violation + state,
			ticket.IssuedAt.Format("2006-01-02"),
			fmt.Sprintf("$%.2f", ticket.Amount),
		})
	}

	for _, renewal := range report.Renewals {
		state := "due"
		if renewal.Completed {
			state = "done"
		}
		t.AppendRow(table.Row{
			"renewal",
			renewal.Kind + " (" + state + ")",
			renewal.DueDate.Format("2006-01-02"),
			"",
		})
	}

	if len(report.Tickets) == 0 && len(report.Renewals) == 0 {
		t.AppendRow(table.Row{"-", "no open items", "", ""})
	}

	t.AppendFooter(table.Row{
		"",
		"",
		"total owed",
		fmt.Sprintf("$%.2f", report.TotalOwed),
	})

	return t.Render(), nil
}

// FormatGovernorStatus renders a governor snapshot as a table.
func (f *TableFormatter) FormatGovernorStatus(status governor.Status) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Key", "Count", "Window Start"})

	keys := make([]string, 0, len(status.RequestCounts))
	for key := range status.RequestCounts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		window := status.RequestCounts[key]
		t.AppendRow(table.Row{
			key,
			window.Count,
			window.WindowStart.UTC().Format(time.RFC3339),
		})
	}

	if len(keys) == 0 {
		t.AppendRow(table.Row{"-", 0, "no active windows"})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d pending", status.Pending),
		"",
		fmt.Sprintf("%d cached", status.Cached),
	})

	return t.Render(), nil
}
