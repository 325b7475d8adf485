package boot

import (
	"context"
	"ridepool/src/lib/mailer"
	"ridepool/src/repository"
	"ridepool/src/services"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitNotifier(t *testing.T) {
	assert.IsType(t, &mailer.QueueNotifier{}, InitNotifier("queue"))
	assert.IsType(t, &mailer.SMTPNotifier{}, InitNotifier("smtp"))
	assert.IsType(t, services.LogNotifier{}, InitNotifier("log"))
	assert.IsType(t, services.LogNotifier{}, InitNotifier(""))
}

func TestInitEngineInMemory(t *testing.T) {
	t.Setenv("API_ENV", "memory")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("RIDE_LOCK_DRIVER", "redis")
	t.Setenv("APP_TIMEZONE", "Asia/Manila")
	t.Setenv("ALLOW_CANCEL_ONGOING", "false")

	store := InitStore()
	require.IsType(t, &repository.GormStore{}, store)

	engine, rdb := InitEngine(context.Background(), store)

	assert.Nil(t, rdb)
	assert.IsType(t, &services.LocalRideLocker{}, engine.Locker)
	assert.Equal(t, "Asia/Manila", engine.Location.String())
	assert.False(t, engine.AllowCancelOngoing)
	assert.IsType(t, &services.SettingsFeeProvider{}, engine.Fees)
}

func TestRunAuditOnCleanStore(t *testing.T) {
	store, err := repository.NewMemoryStore()
	require.NoError(t, err)
	engine := services.NewEngine(store)
	engine.Now = func() time.Time { return time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC) }

	assert.NotPanics(t, func() { runAudit(engine) })
}
