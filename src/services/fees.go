package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"ridepool/src/apperr"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DEFAULT_PLATFORM_FEE = 0.005
	PLATFORM_FEE_CACHE   = "settings:platform_fee"
)

type FeeProvider interface {
	CurrentPlatformFeeRate(ctx context.Context) (float64, error)
}

// SettingsFeeProvider reads the platform fee from the settings table,
// optionally through a redis cache.
type SettingsFeeProvider struct {
	store repository.Store
	cache *redis.Client
	ttl   time.Duration
}

func NewSettingsFeeProvider(store repository.Store, cache *redis.Client) *SettingsFeeProvider {
	return &SettingsFeeProvider{store: store, cache: cache, ttl: 5 * time.Minute}
}

func validFee(rate float64) bool {
	return rate >= 0 && rate <= 1
}

func (p *SettingsFeeProvider) CurrentPlatformFeeRate(ctx context.Context) (float64, error) {
	if p.cache != nil {
		val, err := p.cache.Get(ctx, PLATFORM_FEE_CACHE).Result()
		switch {
		case err == nil:
			if rate, perr := strconv.ParseFloat(val, 64); perr == nil && validFee(rate) {
				return rate, nil
			}
		case !errors.Is(err, redis.Nil):
			log.Printf("[fees] cache read failed: %s\n", err.Error())
		}
	}

	rate := DEFAULT_PLATFORM_FEE
	setting, err := p.store.GetSetting(ctx, models.SETTING_PLATFORM_FEE, models.SETTING_GROUP_BILLING)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return 0, fmt.Errorf("load platform fee: %w", err)
	default:
		if v, ok := feeValue(setting.SettingValue.Inner); ok && validFee(v) {
			rate = v
		} else {
			log.Printf("[fees] ignoring invalid platform fee %v, using %.4f\n", setting.SettingValue.Inner, DEFAULT_PLATFORM_FEE)
		}
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, PLATFORM_FEE_CACHE, strconv.FormatFloat(rate, 'f', -1, 64), p.ttl).Err(); err != nil {
			log.Printf("[fees] cache write failed: %s\n", err.Error())
		}
	}
	return rate, nil
}

func (p *SettingsFeeProvider) SetPlatformFeeRate(ctx context.Context, rate float64) error {
	if !validFee(rate) {
		return apperr.ValidationError{Field: "value", Msg: "platform fee must be between 0 and 1"}
	}
	setting := &models.Setting{
		SettingKey:   models.SETTING_PLATFORM_FEE,
		Group:        models.SETTING_GROUP_BILLING,
		SettingValue: types.JSONBAny{Inner: rate},
	}
	if err := p.store.SaveSetting(ctx, setting); err != nil {
		return fmt.Errorf("save platform fee: %w", err)
	}
	if p.cache != nil {
		if err := p.cache.Del(ctx, PLATFORM_FEE_CACHE).Err(); err != nil {
			log.Printf("[fees] cache invalidation failed: %s\n", err.Error())
		}
	}
	return nil
}

func feeValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
