package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockTimeout = errors.New("timed out waiting for ride lock")

// RideLocker serializes ledger mutations of a single ride.
type RideLocker interface {
	Lock(ctx context.Context, rideID uint) (unlock func(), err error)
}

type rideLock struct {
	ch   chan struct{}
	refs int
}

// LocalRideLocker is a per-ride mutex for a single process.
type LocalRideLocker struct {
	mu    sync.Mutex
	locks map[uint]*rideLock
}

func NewLocalRideLocker() *LocalRideLocker {
	return &LocalRideLocker{locks: map[uint]*rideLock{}}
}

func (l *LocalRideLocker) Lock(ctx context.Context, rideID uint) (func(), error) {
	l.mu.Lock()
	rl, ok := l.locks[rideID]
	if !ok {
		rl = &rideLock{ch: make(chan struct{}, 1)}
		l.locks[rideID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-rl.ch
				l.release(rideID, rl)
			})
		}, nil
	case <-ctx.Done():
		l.release(rideID, rl)
		return nil, ctx.Err()
	}
}

func (l *LocalRideLocker) release(rideID uint, rl *rideLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, rideID)
	}
}

const releaseLockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// RedisRideLocker holds the ride lock in redis so several API instances
// share it. The TTL bounds how long a crashed holder blocks the ride.
type RedisRideLocker struct {
	Client     *redis.Client
	TTL        time.Duration
	RetryEvery time.Duration
	MaxWait    time.Duration
	Token      func() string
}

func NewRedisRideLocker(client *redis.Client) *RedisRideLocker {
	return &RedisRideLocker{
		Client:     client,
		TTL:        10 * time.Second,
		RetryEvery: 25 * time.Millisecond,
		MaxWait:    5 * time.Second,
		Token:      uuid.NewString,
	}
}

func RideLockKey(rideID uint) string {
	return fmt.Sprintf("ride:%d:lock", rideID)
}

func (l *RedisRideLocker) Lock(ctx context.Context, rideID uint) (func(), error) {
	key := RideLockKey(rideID)
	token := l.Token()
	deadline := time.Now().Add(l.MaxWait)
	for {
		ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.RetryEvery):
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := l.Client.Eval(context.Background(), releaseLockScript, []string{key}, token).Err(); err != nil {
				log.Printf("Failed to release %s: %s\n", key, err.Error())
			}
		})
	}, nil
}
