package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ticketless/ticketless/internal/core"
)

// UpsertVehicle stores or refreshes a tracked vehicle.
func (s *Store) UpsertVehicle(ctx context.Context, vehicle core.Vehicle) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	plate := strings.ToUpper(strings.TrimSpace(vehicle.Plate))
	if plate == "" {
		return errors.New("plate is required")
	}

	createdAt := vehicle.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO vehicles (plate, state, email, zip, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(plate) DO UPDATE SET
			state = excluded.state,
			email = excluded.email,
			zip = excluded.zip
	`, plate, vehicle.State, vehicle.Email, vehicle.Zip, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("store vehicle: %w", err)
	}
	return nil
}

// GetVehicle fetches a tracked vehicle, or nil when unknown.
func (s *Store) GetVehicle(ctx context.Context, plate string) (*core.Vehicle, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return nil, errors.New("plate is required")
	}

	var (
		vehicle   core.Vehicle
		email     sql.NullString
		zip       sql.NullString
		createdAt int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT plate, state, email, zip, created_at
		FROM vehicles
		WHERE plate = ?
	`, plate)

	if err := row.Scan(&vehicle.Plate, &vehicle.State, &email, &zip, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch vehicle: %w", err)
	}

	vehicle.Email = email.String
	vehicle.Zip = zip.String
	vehicle.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &vehicle, nil
}

// AddRenewal records an upcoming obligation for a plate.
func (s *Store) AddRenewal(ctx context.Context, renewal core.Renewal) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	plate := strings.ToUpper(strings.TrimSpace(renewal.Plate))
	if plate == "" {
		return errors.New("plate is required")
	}
	if strings.TrimSpace(renewal.Kind) == "" {
		return errors.New("renewal kind is required")
	}
	if renewal.DueDate.IsZero() {
		return errors.New("renewal due date is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO renewals (plate, kind, due_date, completed, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(plate, kind, due_date) DO UPDATE SET
			completed = excluded.completed,
			updated_at = excluded.updated_at
	`, plate, renewal.Kind, renewal.DueDate.UTC().Unix(), boolToInt(renewal.Completed), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store renewal: %w", err)
	}
	return nil
}

// ListRenewals returns the obligations on file for a plate, soonest first.
func (s *Store) ListRenewals(ctx context.Context, plate string) ([]core.Renewal, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return nil, errors.New("plate is required")
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, plate, kind, due_date, completed, updated_at
		FROM renewals
		WHERE plate = ?
		ORDER BY due_date ASC
	`, plate)
	if err != nil {
		return nil, fmt.Errorf("list renewals: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	return scanRenewals(rows)
}

// ListDueRenewals returns incomplete obligations due on or before the
// cutoff, across all plates. Used by the reminder pipeline.
func (s *Store) ListDueRenewals(ctx context.Context, cutoff time.Time) ([]core.Renewal, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, plate, kind, due_date, completed, updated_at
		FROM renewals
		WHERE completed = 0 AND due_date <= ?
		ORDER BY due_date ASC
	`, cutoff.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("list due renewals: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	return scanRenewals(rows)
}

// CompleteRenewal marks an obligation as done.
func (s *Store) CompleteRenewal(ctx context.Context, id int64) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		UPDATE renewals SET completed = 1, updated_at = ? WHERE id = ?
	`, time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("complete renewal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("renewal %d not found", id)
	}
	return nil
}

func scanRenewals(rows *sql.Rows) ([]core.Renewal, error) {
	renewals := make([]core.Renewal, 0)
	for rows.Next() {
		var (
			renewal   core.Renewal
			dueDate   int64
			completed int
			updatedAt int64
		)
		if err := rows.Scan(&renewal.ID, &renewal.Plate, &renewal.Kind, &dueDate, &completed, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan renewal: %w", err)
		}
		renewal.DueDate = time.Unix(dueDate, 0).UTC()
		renewal.Completed = completed != 0
		renewal.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		renewals = append(renewals, renewal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renewals: %w", err)
	}
	return renewals, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
