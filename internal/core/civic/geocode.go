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

const geocodeSource = "geocoder"

// Geocoder resolves street addresses to coordinates through a
// Nominatim-compatible endpoint. Geocoding providers enforce strict usage
// policies, so every resolution goes through the governor keyed by the
// normalized address.
type Geocoder struct {
	Governor *governor.Governor
	Client   *http.Client
	BaseURL  string
	CacheTTL time.Duration
	Clock    func() time.Time
}

type nominatimRow struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves an address. Repeated lookups for the same address are
// served from the governor cache; overlapping ones share a single request.
func (g *Geocoder) Geocode(ctx context.Context, address string) (*core.GeocodeResult, error) {
	if g == nil || g.Governor == nil {
		return nil, errors.New("geocoder is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value := strings.Join(strings.Fields(address), " ")
	if value == "" {
		return nil, errors.New("address is required")
	}

	key := "geocode:" + strings.ToLower(value)

	var fresh bool
	result, err := governor.Call(ctx, g.Governor, key, func(ctx context.Context) (*core.GeocodeResult, error) {
		fresh = true
		return g.fetch(ctx, value)
	}, governor.WithTTL(g.CacheTTL))
	if err != nil {
		return nil, err
	}

	if !fresh {
		copied := *result
		copied.Provenance.FromCache = true
		return &copied, nil
	}
	return result, nil
}

func (g *Geocoder) fetch(ctx context.Context, address string) (*core.GeocodeResult, error) {
	requestedAt := now(g.Clock)

	base, err := url.Parse(g.baseURL())
	if err != nil {
		return nil, fmt.Errorf("invalid geocoder base url: %w", err)
	}

	reqURL := base.ResolveReference(&url.URL{Path: "/search"})
	query := reqURL.Query()
	query.Set("format", "json")
	query.Set("limit", "1")
	query.Set("q", address)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected geocoder response: %d", resp.StatusCode)
	}

	var rows []nominatimRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no match for address %q", address)
	}

	lat, err := strconv.ParseFloat(rows[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("decode latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(rows[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("decode longitude: %w", err)
	}

	return &core.GeocodeResult{
		Address:   address,
		Latitude:  lat,
		Longitude: lng,
		Provenance: core.Provenance{
			LookupID:    uuid.New().String(),
			RequestedAt: requestedAt,
			ResolvedAt:  now(g.Clock),
			Source:      geocodeSource,
		},
	}, nil
}

func (g *Geocoder) baseURL() string {
	if g != nil && g.BaseURL != "" {
		return g.BaseURL
	}
	return "https://nominatim.openstreetmap.org"
}

func (g *Geocoder) httpClient() *http.Client {
	if g != nil && g.Client != nil {
		return g.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}
