package civic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticketless/ticketless/internal/core"
	"github.com/ticketless/ticketless/internal/core/governor"
)

const mailSource = "lob"

// MailClient checks delivery status for compliance letters sent through a
// Lob-style print-and-mail API. Status changes over time, so results are
// cached with a short TTL.
type MailClient struct {
	Governor *governor.Governor
	Client   *http.Client
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
	Clock    func() time.Time
}

type lobLetter struct {
	ID                   string `json:"id"`
	Status               string `json:"status"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
}

// Status returns the delivery state for a letter.
func (c *MailClient) Status(ctx context.Context, mailID string) (*core.MailStatus, error) {
	if c == nil || c.Governor == nil {
		return nil, errors.New("mail client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value := strings.TrimSpace(mailID)
	if value == "" {
		return nil, errors.New("mail id is required")
	}

	ttl := c.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	key := "mail:status:" + value

	var fresh bool
	status, err := governor.Call(ctx, c.Governor, key, func(ctx context.Context) (*core.MailStatus, error) {
		fresh = true
		return c.fetch(ctx, value)
	}, governor.WithTTL(ttl))
	if err != nil {
		return nil, err
	}

	if !fresh {
		copied := *status
		copied.Provenance.FromCache = true
		return &copied, nil
	}
	return status, nil
}

func (c *MailClient) fetch(ctx context.Context, mailID string) (*core.MailStatus, error) {
	requestedAt := now(c.Clock)

	base, err := url.Parse(c.baseURL())
	if err != nil {
		return nil, fmt.Errorf("invalid mail base url: %w", err)
	}

	reqURL := base.ResolveReference(&url.URL{Path: "/v1/letters/" + url.PathEscape(mailID)})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	// Lob authenticates with the API key as the basic-auth username.
	req.SetBasicAuth(strings.TrimSpace(c.APIKey), "")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("mail status request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("letter %q not found", mailID)
	default:
		return nil, fmt.Errorf("unexpected mail provider response: %d", resp.StatusCode)
	}

	var letter lobLetter
	if err := json.NewDecoder(resp.Body).Decode(&letter); err != nil {
		return nil, fmt.Errorf("decode mail provider response: %w", err)
	}

	status := &core.MailStatus{
		MailID: letter.ID,
		Status: letter.Status,
		Provenance: core.Provenance{
			LookupID:    uuid.New().String(),
			RequestedAt: requestedAt,
			ResolvedAt:  now(c.Clock),
			Source:      mailSource,
		},
	}
	if letter.ExpectedDeliveryDate != "" {
		if expected, err := time.Parse("2006-01-02", letter.ExpectedDeliveryDate); err == nil {
			value := expected.UTC()
			status.ExpectedBy = &value
		}
	}

	return status, nil
}

func (c *MailClient) baseURL() string {
	if c != nil && c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://api.lob.com"
}

func (c *MailClient) httpClient() *http.Client {
	if c != nil && c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}
