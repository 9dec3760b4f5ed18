package civic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ticketless/ticketless/internal/core/governor"
)

func TestSocrataTickets(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		require.Equal(t, "AB1234", r.URL.Query().Get("license_plate_number"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"ticket_number":"T100","violation_code":"0964190A","violation_description":"EXPIRED PLATES","issue_date":"2026-01-15T09:30:00.000","fine_amount":"60","ticket_queue":"Paid","violation_location":"1060 W ADDISON ST"},
			{"ticket_number":"T101","violation_description":"STREET CLEANING","issue_date":"2026-02-01T07:00:00.000","fine_amount":"60","ticket_queue":"Notice"}
		]`))
	}))
	defer server.Close()

	client := &SocrataClient{
		Governor: governor.New(),
		Client:   server.Client(),
		BaseURL:  server.URL,
	}

	lookup, err := client.Tickets(context.Background(), "ab1234")
	require.NoError(t, err)
	require.Equal(t, "AB1234", lookup.Plate)
	require.Len(t, lookup.Tickets, 2)
	require.Equal(t, 60.0, lookup.TotalOwed)
	require.True(t, lookup.Tickets[0].Paid)
	require.False(t, lookup.Provenance.FromCache)

	// Second lookup is served from the governor cache.
	cached, err := client.Tickets(context.Background(), "AB1234")
	require.NoError(t, err)
	require.True(t, cached.Provenance.FromCache)
	require.Equal(t, int32(1), requests.Load())
}

func TestSocrataTicketsRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("portal must not be called when limited")
	}))
	defer server.Close()

	gov := governor.New()
	gov.SetLimit("socrata:tickets:AB1234", governor.Config{MaxRequests: 0, Window: time.Minute})
	gov.RecordRequest("socrata:tickets:AB1234")

	client := &SocrataClient{
		Governor: gov,
		Client:   server.Client(),
		BaseURL:  server.URL,
	}

	_, err := client.Tickets(context.Background(), "AB1234")
	var rle *governor.RateLimitError
	require.ErrorAs(t, err, &rle)
	require.Positive(t, rle.RetryAfter)
}

func TestSocrataTicketsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gov := governor.New()
	client := &SocrataClient{
		Governor: gov,
		Client:   server.Client(),
		BaseURL:  server.URL,
	}

	_, err := client.Tickets(context.Background(), "AB1234")
	require.Error(t, err)

	// Failures are never cached.
	require.Zero(t, gov.Status().Cached)
}

func TestGeocode(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		require.Equal(t, "1060 W Addison St Chicago IL", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"41.9474","lon":"-87.6562","display_name":"Wrigley Field"}]`))
	}))
	defer server.Close()

	geocoder := &Geocoder{
		Governor: governor.New(),
		Client:   server.Client(),
		BaseURL:  server.URL,
	}

	result, err := geocoder.Geocode(context.Background(), "  1060 W Addison St   Chicago IL ")
	require.NoError(t, err)
	require.InDelta(t, 41.9474, result.Latitude, 0.0001)
	require.InDelta(t, -87.6562, result.Longitude, 0.0001)

	// Whitespace-insensitive cache key.
	cached, err := geocoder.Geocode(context.Background(), "1060 W Addison St Chicago IL")
	require.NoError(t, err)
	require.True(t, cached.Provenance.FromCache)
	require.Equal(t, int32(1), requests.Load())
}

func TestGeocodeNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	geocoder := &Geocoder{
		Governor: governor.New(),
		Client:   server.Client(),
		BaseURL:  server.URL,
	}

	_, err := geocoder.Geocode(context.Background(), "nowhere")
	require.ErrorContains(t, err, "no match")
}

func TestMailStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "test_key", user)
		require.Equal(t, "/v1/letters/ltr_123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ltr_123","status":"in_transit","expected_delivery_date":"2026-09-05"}`))
	}))
	defer server.Close()

	client := &MailClient{
		Governor: governor.New(),
		Client:   server.Client(),
		BaseURL:  server.URL,
		APIKey:   "test_key",
	}

	status, err := client.Status(context.Background(), "ltr_123")
	require.NoError(t, err)
	require.Equal(t, "in_transit", status.Status)
	require.NotNil(t, status.ExpectedBy)
	require.Equal(t, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), *status.ExpectedBy)
}

func TestMailStatusNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := &MailClient{
		Governor: governor.New(),
		Client:   server.Client(),
		BaseURL:  server.URL,
		APIKey:   "test_key",
	}

	_, err := client.Status(context.Background(), "ltr_missing")
	require.ErrorContains(t, err, "not found")
}
