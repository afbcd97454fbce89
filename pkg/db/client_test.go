package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresConfig_DSN(t *testing.T) {
	t.Run("explicit sslmode", func(t *testing.T) {
		cfg := PostgresConfig{Host: "db", Port: "5432", User: "app", Password: "secret", DBName: "flights", SSLMode: "require"}
		assert.Equal(t, "postgres://app:secret@db:5432/flights?sslmode=require", cfg.DSN())
	})

	t.Run("sslmode defaults to disable", func(t *testing.T) {
		cfg := PostgresConfig{Host: "localhost", Port: "5432", User: "app", Password: "pw", DBName: "flights"}
		assert.Equal(t, "postgres://app:pw@localhost:5432/flights?sslmode=disable", cfg.DSN())
	})
}

func TestSQLClient_WithTransaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		// Arrange
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		client := NewFromDB(conn)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE bookings").WithArgs("Confirmed", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Act
		err = client.WithTransaction(context.Background(), sql.LevelReadCommitted, func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "UPDATE bookings SET status = $1 WHERE id = $2", "Confirmed", int64(1))
			return err
		})

		// Assert
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and returns the original error", func(t *testing.T) {
		// Arrange
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		client := NewFromDB(conn)
		expectedErr := errors.New("constraint violated")

		mock.ExpectBegin()
		mock.ExpectRollback()

		// Act
		err = client.WithTransaction(context.Background(), sql.LevelReadCommitted, func(ctx context.Context, tx *sql.Tx) error {
			return expectedErr
		})

		// Assert
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure is wrapped", func(t *testing.T) {
		conn, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer conn.Close()
		client := NewFromDB(conn)

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err = client.WithTransaction(context.Background(), sql.LevelReadCommitted, func(ctx context.Context, tx *sql.Tx) error {
			t.Fatal("fn must not run when begin fails")
			return nil
		})

		assert.ErrorContains(t, err, "failed to begin transaction")
	})
}
