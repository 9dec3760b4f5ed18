package civic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticketless/ticketless/internal/core"
	"github.com/ticketless/ticketless/internal/core/governor"
)

const socrataSource = "socrata"

// SocrataClient looks up parking citations on a Socrata open-data portal
// (data.cityofchicago.org style).
type SocrataClient struct {
	Governor *governor.Governor
	Client   *http.Client
	BaseURL  string
	Resource string
	AppToken string
	CacheTTL time.Duration
	Clock    func() time.Time
}

type socrataRow struct {
	TicketNumber  string `json:"ticket_number"`
	ViolationCode string `json:"violation_code"`
	Violation     string `json:"violation_description"`
	IssueDate     string `json:"issue_date"`
	FineAmount    string `json:"fine_amount"`
	PaymentStatus string `json:"ticket_queue"`
	Address       string `json:"violation_location"`
}

// Tickets returns the citations recorded for a plate. Results are cached
// and concurrent lookups for the same plate share one portal request.
func (c *SocrataClient) Tickets(ctx context.Context, plate string) (*core.TicketLookup, error) {
	if c == nil || c.Governor == nil {
		return nil, errors.New("socrata client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value := strings.ToUpper(strings.TrimSpace(plate))
	if value == "" {
		return nil, errors.New("plate is required")
	}

	key := "socrata:tickets:" + value

	var fresh bool
	lookup, err := governor.Call(ctx, c.Governor, key, func(ctx context.Context) (*core.TicketLookup, error) {
		fresh = true
		return c.fetch(ctx, value)
	}, governor.WithTTL(c.CacheTTL))
	if err != nil {
		return nil, err
	}

	if !fresh {
		// Shared or cached outcome: report provenance without mutating
		// the stored value.
		copied := *lookup
		copied.Provenance.FromCache = true
		return &copied, nil
	}
	return lookup, nil
}

func (c *SocrataClient) fetch(ctx context.Context, plate string) (*core.TicketLookup, error) {
	requestedAt := now(c.Clock)

	base, err := url.Parse(c.baseURL())
	if err != nil {
		return nil, fmt.Errorf("invalid socrata base url: %w", err)
	}

	resource := c.Resource
	if resource == "" {
		resource = "parking-citations"
	}

	reqURL := base.ResolveReference(&url.URL{Path: "/resource/" + resource + ".json"})
	query := reqURL.Query()
	query.Set("license_plate_number", plate)
	query.Set("$order", "issue_date DESC")
	query.Set("$limit", "200")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := strings.TrimSpace(c.AppToken); token != "" {
		req.Header.Set("X-App-Token", token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("socrata request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected socrata response: %d", resp.StatusCode)
	}

	var rows []socrataRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode socrata response: %w", err)
	}

	lookup := &core.TicketLookup{
		Plate:   plate,
		Tickets: make([]core.Ticket, 0, len(rows)),
		Provenance: core.Provenance{
			LookupID:    uuid.New().String(),
			RequestedAt: requestedAt,
			ResolvedAt:  now(c.Clock),
			Source:      socrataSource,
		},
	}

	for _, row := range rows {
		ticket := core.Ticket{
			Number:        row.TicketNumber,
			Plate:         plate,
			ViolationCode: row.ViolationCode,
			Violation:     row.Violation,
			Address:       row.Address,
			Paid:          strings.EqualFold(row.PaymentStatus, "Paid"),
		}
		if amount, err := strconv.ParseFloat(strings.TrimSpace(row.FineAmount), 64); err == nil {
			ticket.Amount = amount
		}
		if issued, err := time.Parse("2006-01-02T15:04:05.000", row.IssueDate); err == nil {
			ticket.IssuedAt = issued.UTC()
		}

		lookup.Tickets = append(lookup.Tickets, ticket)
		if !ticket.Paid {
			lookup.TotalOwed += ticket.Amount
		}
	}

	return lookup, nil
}

func (c *SocrataClient) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://data.cityofchicago.org"
}

func (c *SocrataClient) httpClient() *http.Client {
	if c != nil && c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}
