package repository

import (
	"ridepool/src/db"

	"github.com/google/uuid"
)

// NewMemoryStore returns a GormStore on its own in-memory sqlite database
// with the schema migrated. It backs API_ENV=memory and the tests.
func NewMemoryStore() (*GormStore, error) {
	conn, err := db.OpenMemory(uuid.NewString())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		return nil, err
	}
	return NewGormStore(conn), nil
}
