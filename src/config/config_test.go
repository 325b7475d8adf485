package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDSN(t *testing.T) {
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_PORT", "5432")
	t.Setenv("DATABASE_SSLMODE", "disable")
	t.Setenv("DATABASE_TIMEZONE", "UTC")
	t.Setenv("DATABASE_USER", "postgres")
	t.Setenv("DATABASE_PASSWORD", "password")
	t.Setenv("DATABASE_NAME", "ridepool")

	assert.Equal(t, "host=localhost user=postgres password=password dbname=ridepool port=5432 sslmode=disable TimeZone=UTC", GetDSN())
}

func TestDefaults(t *testing.T) {
	t.Setenv("ALLOW_CANCEL_ONGOING", "")
	t.Setenv("AUDIT_INTERVAL", "")
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("PORT", "")

	assert.True(t, AllowCancelOngoing())
	assert.Equal(t, 15*time.Minute, AuditInterval())
	assert.Equal(t, time.UTC, Location())
	assert.Equal(t, DEFAULT_PORT, Port())
}

func TestOverrides(t *testing.T) {
	t.Setenv("ALLOW_CANCEL_ONGOING", "false")
	t.Setenv("AUDIT_INTERVAL", "1m")
	t.Setenv("APP_TIMEZONE", "Europe/London")

	assert.False(t, AllowCancelOngoing())
	assert.Equal(t, time.Minute, AuditInterval())
	assert.Equal(t, "Europe/London", Location().String())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ALLOW_CANCEL_ONGOING", "maybe")
	t.Setenv("AUDIT_INTERVAL", "soon")
	t.Setenv("APP_TIMEZONE", "Nowhere/Special")

	assert.True(t, AllowCancelOngoing())
	assert.Equal(t, 15*time.Minute, AuditInterval())
	assert.Equal(t, time.UTC, Location())
}

func TestDBPool(t *testing.T) {
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "25")
	idle, open := DBPool()
	assert.Equal(t, 10, idle)
	assert.Equal(t, 25, open)

	t.Setenv("DATABASE_MAX_OPEN_CONNS", "lots")
	_, open = DBPool()
	assert.Equal(t, 100, open)
}
