package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"ridepool/src/config"
	"ridepool/src/models"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func gormConfig() *gorm.Config {
	logLevel := logger.Warn
	if config.APIEnv() == "local" {
		logLevel = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

// GetDb opens the shared postgres connection on first use. Connection
// failures are fatal: nothing in the API works without the database.
func GetDb() *gorm.DB {
	if db != nil {
		return db
	}
	conn, err := gorm.Open(postgres.Open(config.GetDSN()), gormConfig())
	if err != nil {
		log.Printf("Error connecting to database: %s\n", err.Error())
		panic(err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		log.Fatalf("Error establishing connection to database: %s\n", err.Error())
	}
	idle, open := config.DBPool()
	sqlDB.SetMaxIdleConns(idle)
	sqlDB.SetMaxOpenConns(open)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	db = conn
	return conn
}

// NewDB replaces the shared connection, mainly with a sqlmock-backed one.
func NewDB(newdb *gorm.DB) {
	db = newdb
}

// Ping checks the shared connection without opening one.
func Ping(ctx context.Context) error {
	if db == nil {
		return errors.New("database is not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// OpenMemory opens a private in-memory sqlite database. The pool is held
// at one connection that never expires, so the database lives as long as
// the returned handle and transactions run one at a time.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	conn, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Ride{},
		&models.Booking{},
		&models.Payment{},
		&models.RideRating{},
		&models.Setting{},
		&models.SavedRide{},
		&models.EditProposal{},
	)
}
