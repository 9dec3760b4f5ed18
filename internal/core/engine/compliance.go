// Package engine combines downstream lookups and stored obligations into
// vehicle compliance reports.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ticketless/ticketless/internal/core"
)

// TicketSource provides citation lookups for a plate.
type TicketSource interface {
	Tickets(ctx context.Context, plate string) (*core.TicketLookup, error)
}

// RenewalStore provides stored renewal obligations for a plate.
type RenewalStore interface {
	ListRenewals(ctx context.Context, plate string) ([]core.Renewal, error)
}

// Compliance builds per-vehicle compliance reports.
type Compliance struct {
	Tickets  TicketSource
	Renewals RenewalStore
	Clock    func() time.Time
}

// Report assembles the compliance standing for a plate: open citations from
// the city portal plus any overdue obligations on file. Rate-limit
// rejections from the ticket source propagate unchanged so callers can
// surface a retry hint.
func (c *Compliance) Report(ctx context.Context, plate string) (*core.ComplianceReport, error) {
	if c == nil || c.Tickets == nil {
		return nil, errors.New("compliance engine is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value := strings.ToUpper(strings.TrimSpace(plate))
	if value == "" {
		return nil, errors.New("plate is required")
	}

	lookup, err := c.Tickets.Tickets(ctx, value)
	if err != nil {
		return nil, err
	}

	report := &core.ComplianceReport{
		Plate:     value,
		Status:    core.ComplianceClear,
		Tickets:   lookup.Tickets,
		TotalOwed: lookup.TotalOwed,
		CheckedAt: c.now(),
	}

	if c.Renewals != nil {
		renewals, err := c.Renewals.ListRenewals(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("list renewals: %w", err)
		}
		report.Renewals = renewals
	}

	if report.TotalOwed > 0 || c.hasOverdue(report.Renewals) {
		report.Status = core.ComplianceDelinquent
	}

	return report, nil
}

func (c *Compliance) hasOverdue(renewals []core.Renewal) bool {
	now := c.now()
	for _, renewal := range renewals {
		if !renewal.Completed && renewal.DueDate.Before(now) {
			return true
		}
	}
	return false
}

func (c *Compliance) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
