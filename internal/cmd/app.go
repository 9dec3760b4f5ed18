package cmd

import (
	"net/http"
	"time"

	"github.com/ticketless/ticketless/internal/config"
	"github.com/ticketless/ticketless/internal/core/civic"
	"github.com/ticketless/ticketless/internal/core/engine"
	"github.com/ticketless/ticketless/internal/core/governor"
	"github.com/ticketless/ticketless/internal/core/store"
	"github.com/ticketless/ticketless/internal/metrics"
)

// buildGovernor constructs the outbound-call governor from configuration.
func buildGovernor(cfg *config.Config) *governor.Governor {
	limits := make(map[string]governor.Config, len(cfg.Governor.RateLimits))
	for key, limit := range cfg.Governor.RateLimits {
		limits[key] = governor.Config{
			MaxRequests: limit.MaxRequests,
			Window:      limit.Window,
		}
	}

	return governor.New(
		governor.WithDefaults(governor.Config{
			MaxRequests: cfg.Governor.MaxRequests,
			Window:      cfg.Governor.Window,
		}),
		governor.WithCacheTTL(cfg.Governor.CacheTTL),
		governor.WithLimits(limits),
		governor.WithObserver(func(event string, key string) {
			switch event {
			case governor.EventCacheHit:
				metrics.RecordCacheHit(key)
			case governor.EventCoalesced:
				metrics.RecordCoalesced(key)
			}
		}),
	)
}

// buildCivicClients wires the downstream municipal API clients onto a shared
// governor and HTTP client.
func buildCivicClients(cfg *config.Config, gov *governor.Governor) (*civic.SocrataClient, *civic.Geocoder, *civic.MailClient) {
	httpClient := &http.Client{Timeout: 15 * time.Second}

	socrata := &civic.SocrataClient{
		Governor: gov,
		Client:   httpClient,
		BaseURL:  cfg.Civic.Socrata.BaseURL,
		Resource: cfg.Civic.Socrata.Resource,
		AppToken: cfg.Civic.Socrata.AppToken,
		CacheTTL: cfg.Civic.Socrata.CacheTTL,
	}

	geocoder := &civic.Geocoder{
		Governor: gov,
		Client:   httpClient,
		BaseURL:  cfg.Civic.Geocode.BaseURL,
		CacheTTL: cfg.Civic.Geocode.CacheTTL,
	}

	mail := &civic.MailClient{
		Governor: gov,
		Client:   httpClient,
		BaseURL:  cfg.Civic.Mail.BaseURL,
		APIKey:   cfg.Civic.Mail.APIKey,
		CacheTTL: cfg.Civic.Mail.CacheTTL,
	}

	return socrata, geocoder, mail
}

// buildCompliance assembles the compliance engine. The store is optional;
// without it reports cover tickets only.
func buildCompliance(tickets engine.TicketSource, db *store.Store) *engine.Compliance {
	compliance := &engine.Compliance{Tickets: tickets}
	if db != nil {
		compliance.Renewals = db
	}
	return compliance
}
