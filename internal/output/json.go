package output

import (
	"encoding/json"

	"github.com/ticketless/ticketless/internal/core"
	"github.com/ticketless/ticketless/internal/core/governor"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatReport renders a compliance report as JSON.
func (f *JSONFormatter) FormatReport(report *core.ComplianceReport) (string, error) {
	if report == nil {
		return "", nil
	}
	return f.marshal(report)
}

// FormatGovernorStatus renders a governor snapshot as JSON.
func (f *JSONFormatter) FormatGovernorStatus(status governor.Status) (string, error) {
	return f.marshal(status)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
