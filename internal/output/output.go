// Package output renders compliance reports and governor snapshots for the
// CLI in table or JSON form.
package output

import (
	"fmt"
	"strings"

	"github.com/ticketless/ticketless/internal/core"
	"github.com/ticketless/ticketless/internal/core/governor"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formatter renders CLI results.
type Formatter interface {
	FormatReport(report *core.ComplianceReport) (string, error)
	FormatGovernorStatus(status governor.Status) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	default:
		return &TableFormatter{}
	}
}

func statusLabel(status core.ComplianceStatus) string {
	switch status {
	case core.ComplianceClear:
		return "clear"
	case core.ComplianceDelinquent:
		return "delinquent"
	case core.ComplianceError:
		return "error"
	default:
		return "unknown"
	}
}
