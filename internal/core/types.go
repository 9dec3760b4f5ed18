package core

import "time"

// LookupType identifies the kind of downstream lookup performed.
type LookupType string

const (
	LookupTypeTickets    LookupType = "tickets"
	LookupTypeGeocode    LookupType = "geocode"
	LookupTypeMailStatus LookupType = "mail_status"
)

// ComplianceStatus summarizes a vehicle's standing.
type ComplianceStatus int

const (
	ComplianceUnknown    ComplianceStatus = 0
	ComplianceClear      ComplianceStatus = 1
	ComplianceDelinquent ComplianceStatus = 2
	ComplianceError      ComplianceStatus = 3
)

// Provenance captures metadata about how a lookup was resolved.
type Provenance struct {
	LookupID       string     `json:"lookup_id"`
	RequestedAt    time.Time  `json:"requested_at"`
	ResolvedAt     time.Time  `json:"resolved_at"`
	Source         string     `json:"source"`
	FromCache      bool       `json:"from_cache"`
	CacheExpiresAt *time.Time `json:"cache_expires_at,omitempty"`
}

// Ticket is a single citation issued against a vehicle.
type Ticket struct {
	Number        string    `json:"number"`
	Plate         string    `json:"plate"`
	ViolationCode string    `json:"violation_code,omitempty"`
	Violation     string    `json:"violation"`
	IssuedAt      time.Time `json:"issued_at"`
	Amount        float64   `json:"amount"`
	Paid          bool      `json:"paid"`
	Address       string    `json:"address,omitempty"`
}

// Vehicle describes a tracked vehicle and its registered owner contact.
type Vehicle struct {
	Plate     string    `json:"plate"`
	State     string    `json:"state"`
	Email     string    `json:"email,omitempty"`
	Zip       string    `json:"zip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Renewal tracks an upcoming municipal obligation (city sticker,
// license plate sticker, emissions test) for a vehicle.
type Renewal struct {
	ID        int64     `json:"id"`
	Plate     string    `json:"plate"`
	Kind      string    `json:"kind"`
	DueDate   time.Time `json:"due_date"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TicketLookup reports the open tickets found for a plate.
type TicketLookup struct {
	Plate      string     `json:"plate"`
	Tickets    []Ticket   `json:"tickets"`
	TotalOwed  float64    `json:"total_owed"`
	Provenance Provenance `json:"provenance"`
}

// GeocodeResult resolves an address to coordinates.
type GeocodeResult struct {
	Address    string     `json:"address"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Ward       string     `json:"ward,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// MailStatus reports delivery state for an outbound letter or postcard.
type MailStatus struct {
	MailID     string     `json:"mail_id"`
	Status     string     `json:"status"`
	ExpectedBy *time.Time `json:"expected_by,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// ComplianceReport aggregates tickets and renewals for a vehicle.
type ComplianceReport struct {
	Plate     string           `json:"plate"`
	Status    ComplianceStatus `json:"status"`
	Tickets   []Ticket         `json:"tickets"`
	TotalOwed float64          `json:"total_owed"`
	Renewals  []Renewal        `json:"renewals"`
	CheckedAt time.Time        `json:"checked_at"`
}
