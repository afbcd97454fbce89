package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flightbroker/pkg/db"
	"flightbroker/pkg/idgen"
)

const bookingColumns = `id, user_id, booking_id, pnr, status, amount, flight_details, passenger_details, response_json, created_at`

// PostgresStore keeps booking records in the bookings table.
type PostgresStore struct {
	db    db.SQLExecutor
	ids   idgen.Generator
	clock func() time.Time
}

func NewPostgresStore(sqlClient db.SQLExecutor, ids idgen.Generator) *PostgresStore {
	return &PostgresStore{
		db:    sqlClient,
		ids:   ids,
		clock: time.Now,
	}
}

// Create assigns the ID and creation time and inserts rec. An empty status
// is stored as Pending.
func (s *PostgresStore) Create(ctx context.Context, rec Record) (*Record, error) {
	rec.ID = s.ids.GenerateID()
	rec.CreatedAt = s.clock().UTC()
	if rec.Status == "" {
		rec.Status = StatusPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID,
		rec.UserID,
		rec.BookingID,
		rec.PNR,
		string(rec.Status),
		rec.Amount,
		jsonArg(rec.FlightDetails),
		jsonArg(rec.PassengerDetails),
		jsonArg(rec.ResponseJSON),
		rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}
	return &rec, nil
}

// FindByUser returns the user's bookings, newest first.
func (s *PostgresStore) FindByUser(ctx context.Context, userID int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return records, nil
}

// FindByID returns ErrNotFound when no booking has the given id.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec                                    Record
		status                                 string
		flightDetails, passengers, responseRaw []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.BookingID,
		&rec.PNR,
		&status,
		&rec.Amount,
		&flightDetails,
		&passengers,
		&responseRaw,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	rec.Status = Status(status)
	rec.FlightDetails = jsonColumn(flightDetails)
	rec.PassengerDetails = jsonColumn(passengers)
	rec.ResponseJSON = jsonColumn(responseRaw)
	return &rec, nil
}

// jsonArg sends JSON as text so the driver does not encode it as bytea.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func jsonColumn(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
