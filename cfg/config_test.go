package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPostgresEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_PORT", "5432")
	t.Setenv("POSTGRES_USER", "broker")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "flights")
	t.Setenv("POSTGRES_SSLMODE", "")
}

func TestLoadPostgres(t *testing.T) {
	t.Run("needs only database keys", func(t *testing.T) {
		setPostgresEnv(t)
		t.Setenv("GDS_AUTH_URL", "")
		t.Setenv("REDIS_HOST", "")

		pg, err := LoadPostgres()

		require.NoError(t, err)
		assert.Equal(t, "localhost", pg.Host)
		assert.Equal(t, "flights", pg.DBName)
		assert.Equal(t, "disable", pg.SSLMode)
	})

	t.Run("reports every missing key", func(t *testing.T) {
		setPostgresEnv(t)
		t.Setenv("POSTGRES_HOST", "")
		t.Setenv("POSTGRES_DB", "")

		_, err := LoadPostgres()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing env: POSTGRES_HOST")
		assert.Contains(t, err.Error(), "missing env: POSTGRES_DB")
	})
}

func TestLoad_RequiresSupplierSettings(t *testing.T) {
	setPostgresEnv(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("GDS_AUTH_URL", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing env: GDS_AUTH_URL")
}
