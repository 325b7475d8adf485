package boot

import (
	"context"
	"log"
	"ridepool/src/common"
	"ridepool/src/config"
	"ridepool/src/db"
	"ridepool/src/lib"
	"ridepool/src/lib/mailer"
	"ridepool/src/repository"
	"ridepool/src/services"
	"ridepool/src/utils"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const AUDIT_JOB = "ledger-audit"

func InitDb() *gorm.DB {
	conn := db.GetDb()
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	return conn
}

// InitStore returns a store on in-memory sqlite when API_ENV=memory and
// the postgres store otherwise.
func InitStore() repository.Store {
	if config.APIEnv() == "memory" {
		log.Println("Using in-memory sqlite store")
		store, err := repository.NewMemoryStore()
		if err != nil {
			log.Fatalf("error opening in-memory store: %s", err.Error())
		}
		return store
	}
	return repository.NewGormStore(InitDb())
}

func initRedis(ctx context.Context) *redis.Client {
	if !lib.RedisAvailable(ctx) {
		log.Println("[redis] not available, running without cache and distributed locks")
		return nil
	}
	return lib.GetRedisClient()
}

func InitNotifier(driver string) services.Notifier {
	switch driver {
	case "queue":
		return mailer.NewQueueNotifier()
	case "smtp":
		return mailer.NewSMTPNotifier()
	default:
		return services.LogNotifier{}
	}
}

// InitEngine wires the booking engine and returns the redis client it
// uses, nil when redis is not reachable.
func InitEngine(ctx context.Context, store repository.Store) (*services.Engine, *redis.Client) {
	rdb := initRedis(ctx)

	engine := services.NewEngine(store)
	engine.Fees = services.NewSettingsFeeProvider(store, rdb)
	engine.Notifier = InitNotifier(config.MailDriver())
	engine.Location = config.Location()
	engine.AllowCancelOngoing = config.AllowCancelOngoing()
	if config.RideLockDriver() == "redis" {
		if rdb != nil {
			engine.Locker = services.NewRedisRideLocker(rdb)
		} else {
			log.Println("RIDE_LOCK_DRIVER=redis but redis is not available, using local locks")
		}
	}
	return engine, rdb
}

func runAudit(engine *services.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	found, err := engine.AuditLedgers(ctx)
	if err != nil {
		log.Printf("[audit] failed: %s\n", err.Error())
		return
	}
	log.Printf("[audit] finished with %d discrepancies\n", len(found))
}

func InitScheduler(engine *services.Engine) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := lib.CreateCronJob(AUDIT_JOB, config.AuditInterval(), runAudit, engine); err != nil {
		log.Printf("Error scheduling %s: %s\n", AUDIT_JOB, err.Error())
		return
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("An error has occurred while stopping Scheduler: %s\n", err.Error())
	}
}

// InitBroker starts the email queue consumer when confirmations are queued.
func InitBroker(ctx context.Context) {
	if config.MailDriver() != "queue" {
		return
	}
	if config.APIEnv() == "local" {
		if _, err := lib.KafkaCreateTopics(utils.WithSuffix(config.EmailQueue())); err != nil {
			log.Printf("Error creating topics: %s\n", err.Error())
		}
	}
	common.EmailConsumers(ctx)
}
