package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const passLockKey = "schedulesync:pass"

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// LockService guards passes across instances. Without a redis client every
// acquire succeeds.
type LockService struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

func NewLockService(client *redis.Client, ttl time.Duration) *LockService {
	return &LockService{
		client: client,
		owner:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire takes the pass lock. The returned release func is a no-op when
// the lock wasn't taken.
func (service *LockService) Acquire(ctx context.Context) (func(), bool, error) {
	if service.client == nil {
		return func() {}, true, nil
	}

	ok, err := service.client.SetNX(ctx, passLockKey, service.owner, service.ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquiring pass lock: %w", err)
	}

	if !ok {
		return func() {}, false, nil
	}

	release := func() {
		//nolint:errcheck //lock expires on its own
		releaseScript.Run(
			context.WithoutCancel(ctx),
			service.client,
			[]string{passLockKey},
			service.owner,
		)
	}

	return release, true, nil
}
