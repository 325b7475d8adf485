package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

// const dsn = "host=localhost user=postgres password=password dbname=ridepool port=5432 sslmode=disable TimeZone=UTC"

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const (
	DATE_FORMAT      = "2006-01-02"
	TIME_FORMAT      = "15:04"
	DATETIME_FORMAT  = "2006-01-02 15:04"
	API_PREFIX       = "/api/v1"
	DEFAULT_PORT     = "8080"
	DEFAULT_TIMEZONE = "UTC"
)

func APIEnv() string {
	return os.Getenv("API_ENV")
}

func Port() string {
	return getEnv("PORT", DEFAULT_PORT)
}

func JWTSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// Location is the zone ride dates and commute times are interpreted in.
func Location() *time.Location {
	name := getEnv("APP_TIMEZONE", DEFAULT_TIMEZONE)
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Unknown APP_TIMEZONE %s, falling back to UTC: %s\n", name, err.Error())
		return time.UTC
	}
	return loc
}

func AllowCancelOngoing() bool {
	return getBool("ALLOW_CANCEL_ONGOING", true)
}

func AuditInterval() time.Duration {
	return getDuration("AUDIT_INTERVAL", 15*time.Minute)
}

func RideLockDriver() string {
	return getEnv("RIDE_LOCK_DRIVER", "local")
}

func MailDriver() string {
	return getEnv("MAIL_DRIVER", "log")
}

// MailTransport is how queued emails leave the consumer: "smtp" or "ses".
func MailTransport() string {
	return getEnv("MAIL_TRANSPORT", "smtp")
}

func EmailQueue() string {
	return getEnv("EMAIL_QUEUE", "BookingEmails")
}

func MailFrom() (string, string) {
	return getEnv("MAIL_FROM", "no-reply@ridepool.local"), getEnv("MAIL_FROM_NAME", "Ridepool")
}

// DBPool is the idle and open connection limit of the postgres pool.
func DBPool() (int, int) {
	return getInt("DATABASE_MAX_IDLE_CONNS", 10), getInt("DATABASE_MAX_OPEN_CONNS", 100)
}

func MaintenanceMode() bool {
	return getBool("MAINTENANCE_MODE", false)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid boolean for %s: %s\n", key, err.Error())
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		log.Printf("Invalid number for %s: %s\n", key, v)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration for %s: %s\n", key, err.Error())
		return fallback
	}
	return d
}
