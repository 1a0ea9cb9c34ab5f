package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumen-aesthetics/receptionist/internal/schedule"
)

// Postgres error codes that mean another writer won the slot.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for appointments.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting pgxmock for tests.
func NewRepositoryWithDB(conn db) *Repository {
	if conn == nil {
		panic("appointments: db required")
	}
	return &Repository{db: conn}
}

const apptColumns = `id, client_name, client_phone, client_email, service_type,
	start_time, end_time, status, reminder_sent, review_sent, google_event_id, created_at`

// Insert persists a new appointment. The appointments table carries an
// exclusion constraint over tstzrange(start_time, end_time) for
// non-cancelled rows, so this write is the authoritative arbiter between
// concurrent bookings: the loser gets ErrSlotTaken.
func (r *Repository) Insert(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (id, client_name, client_phone, client_email,
			service_type, start_time, end_time, status, google_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		a.ID, a.ClientName, a.ClientPhone, a.ClientEmail,
		a.ServiceType, a.Start, a.End, a.Status, a.GoogleEventID,
	)
	if err != nil {
		if isSlotConflict(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert: %w: %w", ErrStorageFailure, err)
	}
	return nil
}

// SetGoogleEventID records the calendar event created for a booking.
func (r *Repository) SetGoogleEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE appointments SET google_event_id = $2 WHERE id = $1`, id, eventID)
	if err != nil {
		return fmt.Errorf("appointments: set event id: %w", err)
	}
	return nil
}

// BusyBetween returns the busy intervals of live appointments intersecting
// [from, to).
func (r *Repository) BusyBetween(ctx context.Context, from, to time.Time) ([]schedule.Interval, error) {
	return r.busyBetween(ctx, from, to, uuid.Nil)
}

// BusyBetweenExcluding is BusyBetween minus one appointment, used when
// rescheduling so the appointment does not conflict with itself.
func (r *Repository) BusyBetweenExcluding(ctx context.Context, from, to time.Time, exclude uuid.UUID) ([]schedule.Interval, error) {
	return r.busyBetween(ctx, from, to, exclude)
}

func (r *Repository) busyBetween(ctx context.Context, from, to time.Time, exclude uuid.UUID) ([]schedule.Interval, error) {
	query := `
		SELECT start_time, end_time FROM appointments
		WHERE status <> 'cancelled' AND start_time < $2 AND end_time > $1 AND id <> $3
		ORDER BY start_time
	`
	rows, err := r.db.Query(ctx, query, from, to, exclude)
	if err != nil {
		return nil, fmt.Errorf("appointments: busy between: %w: %w", ErrStorageFailure, err)
	}
	defer rows.Close()

	var busy []schedule.Interval
	for rows.Next() {
		var iv schedule.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("appointments: busy scan: %w", err)
		}
		busy = append(busy, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: busy rows: %w", err)
	}
	return busy, nil
}

// NextUpcomingByPhone finds the caller's next live appointment by fuzzy
// phone match (the significant trailing digits, ignoring formatting and
// country prefix).
func (r *Repository) NextUpcomingByPhone(ctx context.Context, phoneDigits string, now time.Time) (*Appointment, error) {
	query := `
		SELECT ` + apptColumns + `
		FROM appointments
		WHERE regexp_replace(client_phone, '\D', '', 'g') LIKE '%' || $1
			AND start_time > $2 AND status <> 'cancelled'
		ORDER BY start_time ASC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, phoneDigits, now))
}

// LatestByPhone returns the most recently created row for the caller,
// regardless of status. Used for returning-client lookup.
func (r *Repository) LatestByPhone(ctx context.Context, phoneDigits string) (*Appointment, error) {
	query := `
		SELECT ` + apptColumns + `
		FROM appointments
		WHERE regexp_replace(client_phone, '\D', '', 'g') LIKE '%' || $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, phoneDigits))
}

// Cancel marks an appointment cancelled.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE appointments SET status = 'cancelled' WHERE id = $1 AND status <> 'cancelled'`, id)
	if err != nil {
		return fmt.Errorf("appointments: cancel: %w: %w", ErrStorageFailure, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reschedule moves an appointment to a new window. The exclusion
// constraint arbitrates the new window exactly like a fresh insert; a row
// never conflicts with its own previous range.
func (r *Repository) Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET start_time = $2, end_time = $3, status = 'confirmed', reminder_sent = false
		WHERE id = $1 AND status <> 'cancelled'
	`, id, start, end)
	if err != nil {
		if isSlotConflict(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: reschedule: %w: %w", ErrStorageFailure, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// VerifyNextConfirmed promotes the caller's next confirmed appointment to
// client_verified and returns it.
func (r *Repository) VerifyNextConfirmed(ctx context.Context, phoneDigits string, now time.Time) (*Appointment, error) {
	query := `
		UPDATE appointments SET status = 'client_verified'
		WHERE id = (
			SELECT id FROM appointments
			WHERE regexp_replace(client_phone, '\D', '', 'g') LIKE '%' || $1
				AND status = 'confirmed' AND start_time > $2
			ORDER BY start_time ASC
			LIMIT 1
		)
		RETURNING ` + apptColumns + `
	`
	return r.scanOne(r.db.QueryRow(ctx, query, phoneDigits, now))
}

// ClaimDueReminders atomically flips reminder_sent for live appointments
// starting inside [from, to) and returns only the rows actually claimed.
// Concurrent sweep passes cannot claim the same row twice.
func (r *Repository) ClaimDueReminders(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	query := `
		UPDATE appointments SET reminder_sent = true
		WHERE reminder_sent = false
			AND status IN ('confirmed', 'client_verified')
			AND start_time >= $1 AND start_time < $2
		RETURNING ` + apptColumns + `
	`
	return r.scanMany(ctx, query, from, to)
}

// ClaimDueReviews atomically flips review_sent for completed appointments
// that ended before the cutoff.
func (r *Repository) ClaimDueReviews(ctx context.Context, endedBefore time.Time) ([]Appointment, error) {
	query := `
		UPDATE appointments SET review_sent = true
		WHERE review_sent = false
			AND status = 'completed'
			AND end_time < $1
		RETURNING ` + apptColumns + `
	`
	return r.scanMany(ctx, query, endedBefore)
}

// CompletePast transitions live appointments whose window has fully passed.
func (r *Repository) CompletePast(ctx context.Context, endedBefore time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE appointments SET status = 'completed'
		WHERE status IN ('confirmed', 'client_verified') AND end_time < $1
	`, endedBefore)
	if err != nil {
		return 0, fmt.Errorf("appointments: complete past: %w", err)
	}
	return ct.RowsAffected(), nil
}

// ListFilter narrows the admin listing.
type ListFilter struct {
	PhoneDigits string
	From        *time.Time
	To          *time.Time
	Limit       int
}

// List returns appointments for the staff API, newest start first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT ` + apptColumns + `
		FROM appointments
		WHERE ($1 = '' OR regexp_replace(client_phone, '\D', '', 'g') LIKE '%' || $1)
			AND ($2::timestamptz IS NULL OR start_time >= $2)
			AND ($3::timestamptz IS NULL OR start_time < $3)
		ORDER BY start_time DESC
		LIMIT $4
	`
	return r.scanMany(ctx, query, f.PhoneDigits, f.From, f.To, limit)
}

// Ping verifies database connectivity for the health endpoint.
func (r *Repository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("appointments: ping: %w", err)
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.ClientName, &a.ClientPhone, &a.ClientEmail, &a.ServiceType,
		&a.Start, &a.End, &a.Status, &a.ReminderSent, &a.ReviewSent,
		&a.GoogleEventID, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: scan: %w", err)
	}
	return &a, nil
}

func (r *Repository) scanMany(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: query: %w: %w", ErrStorageFailure, err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.ClientName, &a.ClientPhone, &a.ClientEmail, &a.ServiceType,
			&a.Start, &a.End, &a.Status, &a.ReminderSent, &a.ReviewSent,
			&a.GoogleEventID, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows: %w", err)
	}
	return out, nil
}

func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation || pgErr.Code == pgExclusionViolation
}
