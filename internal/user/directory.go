package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"flightbroker/pkg/db"
	"flightbroker/pkg/idgen"
	"flightbroker/pkg/oauth2"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID        int64     `json:"id,string"`
	GoogleID  string    `json:"googleId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

const userColumns = `id, google_id, email, name, picture, created_at`

// Directory resolves external identities to internal users.
type Directory struct {
	db    db.SQLExecutor
	ids   idgen.Generator
	clock func() time.Time
}

func NewDirectory(sqlClient db.SQLExecutor, ids idgen.Generator) *Directory {
	return &Directory{
		db:    sqlClient,
		ids:   ids,
		clock: time.Now,
	}
}

// FindByExternalID looks a user up by Google subject. Returns ErrNotFound when absent.
func (d *Directory) FindByExternalID(ctx context.Context, googleID string) (*User, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`,
		googleID,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (d *Directory) FindByID(ctx context.Context, id int64) (*User, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// Link returns the internal ID for a signed-in Google identity, creating the
// user on first login. Profile fields of an existing user are left unchanged.
func (d *Directory) Link(ctx context.Context, info *oauth2.UserInfo) (int64, error) {
	var id int64
	err := d.db.WithTransaction(ctx, sql.LevelReadCommitted, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE google_id = $1`,
			info.ID,
		)
		existing, err := scanUser(row)
		if err == nil {
			id = existing.ID
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		u := User{
			ID:        d.ids.GenerateID(),
			GoogleID:  info.ID,
			Email:     info.Email,
			Name:      info.Name,
			Picture:   info.Picture,
			CreatedAt: d.clock().UTC(),
		}

		// A concurrent first login may have inserted the row already.
		err = tx.QueryRowContext(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (google_id) DO UPDATE SET google_id = EXCLUDED.google_id
			 RETURNING id`,
			u.ID, u.GoogleID, u.Email, u.Name, u.Picture, u.CreatedAt,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		u       User
		picture sql.NullString
	)
	err := row.Scan(&u.ID, &u.GoogleID, &u.Email, &u.Name, &picture, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.Picture = picture.String
	return &u, nil
}
