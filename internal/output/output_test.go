package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketless/ticketless/internal/core"
	"github.com/ticketless/ticketless/internal/core/governor"
)

func sampleReport() *core.ComplianceReport {
	return &core.ComplianceReport{
		Plate:  "AB1234",
		Status: core.ComplianceDelinquent,
		Tickets: []core.Ticket{
			{
				Number:    "7100012345",
				Plate:     "AB1234",
				Violation: "EXPIRED METER",
				IssuedAt:  time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC),
				Amount:    65,
			},
		},
		TotalOwed: 65,
		Renewals: []core.Renewal{
			{Plate: "AB1234", Kind: "city-sticker", DueDate: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)},
		},
		CheckedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, format)

	format, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestTableFormatterReport(t *testing.T) {
	rendered, err := (&TableFormatter{}).FormatReport(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, rendered, "AB1234")
	assert.Contains(t, rendered, "delinquent")
	assert.Contains(t, rendered, "EXPIRED METER")
	assert.Contains(t, rendered, "city-sticker")
	assert.Contains(t, rendered, "total owed")
	assert.Contains(t, rendered, "$65.00")
}

func TestTableFormatterEmptyReport(t *testing.T) {
	rendered, err := (&TableFormatter{}).FormatReport(&core.ComplianceReport{
		Plate:  "CD5678",
		Status: core.ComplianceClear,
	})
	require.NoError(t, err)
	assert.Contains(t, rendered, "no open items")
}

func TestTableFormatterGovernorStatus(t *testing.T) {
	status := governor.Status{
		RequestCounts: map[string]governor.WindowState{
			"socrata:tickets:AB1234": {Count: 3, WindowStart: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)},
		},
		Pending: 1,
		Cached:  2,
	}

	rendered, err := (&TableFormatter{}).FormatGovernorStatus(status)
	require.NoError(t, err)

	assert.Contains(t, rendered, "socrata:tickets:AB1234")
	assert.Contains(t, rendered, "1 pending")
	assert.Contains(t, rendered, "2 cached")
}

func TestJSONFormatterReport(t *testing.T) {
	rendered, err := (&JSONFormatter{Indent: true}).FormatReport(sampleReport())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rendered, "{"))
	assert.Contains(t, rendered, `"plate": "AB1234"`)
	assert.Contains(t, rendered, `"total_owed": 65`)
}
