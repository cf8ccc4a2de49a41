// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"bettercommute/internal/types"
)

// uniqueViolation is the postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// Repository is the persistence the service needs; *Store implements it.
// Create must fail with ErrActiveBooking when the passenger already has an
// active booking.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, ch Change) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	HasActiveByPassenger(ctx context.Context, passengerID types.ID) (bool, error)
	FailActive(ctx context.Context, reason string) (int64, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, passenger_id, status, status_version,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			car_type, distance_km, price_per_km, total_amount, currency, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14
		)`,
		string(b.ID),
		string(b.PassengerID),
		string(b.Status),
		b.StatusVersion,
		b.Pickup.Lat, b.Pickup.Lng,
		b.Dropoff.Lat, b.Dropoff.Lng,
		b.CarType,
		b.DistanceKm,
		b.PricePerKm,
		b.Total.Amount,
		b.Total.Currency,
		b.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrActiveBooking
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, passenger_id, status, status_version,
		       pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
		       car_type, distance_km, price_per_km, total_amount, currency,
		       driver_name, driver_phone, eta_minutes, error,
		       created_at, approaching_at, arrived_at, completed_at, cancelled_at
		FROM bookings
		WHERE id = $1`, string(id),
	)

	var b Booking
	var driverName, driverPhone, errMsg pgtype.Text
	var eta pgtype.Int4
	var approachingAt, arrivedAt, completedAt, cancelledAt pgtype.Timestamptz

	err := row.Scan(
		&b.ID, &b.PassengerID, &b.Status, &b.StatusVersion,
		&b.Pickup.Lat, &b.Pickup.Lng, &b.Dropoff.Lat, &b.Dropoff.Lng,
		&b.CarType, &b.DistanceKm, &b.PricePerKm, &b.Total.Amount, &b.Total.Currency,
		&driverName, &driverPhone, &eta, &errMsg,
		&b.CreatedAt, &approachingAt, &arrivedAt, &completedAt, &cancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	b.DriverName = driverName.String
	b.DriverPhone = driverPhone.String
	b.Error = errMsg.String
	if eta.Valid {
		b.ETAMinutes = int(eta.Int32)
	}
	b.ApproachingAt = toTimePtr(approachingAt)
	b.ArrivedAt = toTimePtr(arrivedAt)
	b.CompletedAt = toTimePtr(completedAt)
	b.CancelledAt = toTimePtr(cancelledAt)
	return &b, nil
}

// UpdateStatus moves id from -> to only if the row is still at version.
// It reports false when another writer got there first.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, ch Change) (bool, error) {
	var name, phone *string
	var eta *int
	if ch.Driver != nil {
		name, phone, eta = &ch.Driver.DriverName, &ch.Driver.MobileNumber, &ch.Driver.ETAMinutes
	}
	var errMsg *string
	if ch.Error != "" {
		errMsg = &ch.Error
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    driver_name = COALESCE($2, driver_name),
		    driver_phone = COALESCE($3, driver_phone),
		    eta_minutes = COALESCE($4, eta_minutes),
		    error = COALESCE($5, error),
		    approaching_at = CASE WHEN $1 = 'approaching' THEN NOW() ELSE approaching_at END,
		    arrived_at = CASE WHEN $1 = 'arrived' THEN NOW() ELSE arrived_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $6 AND status = $7 AND status_version = $8`,
		string(to),
		name, phone, eta, errMsg,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_state_events (
			booking_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *Store) HasActiveByPassenger(ctx context.Context, passengerID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE passenger_id = $1
			  AND status IN ('confirmed','approaching')
		)`, string(passengerID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// FailActive marks bookings whose run was lost (process restart) as failed.
func (s *Store) FailActive(ctx context.Context, reason string) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = 'failed',
		    status_version = status_version + 1,
		    error = $1
		WHERE status IN ('confirmed','approaching')`, reason,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
