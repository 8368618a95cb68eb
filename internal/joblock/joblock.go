// Package joblock serializes batch jobs, such as reconciliation runs, across
// instances with a Redis lease.
package joblock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("job is already running")

const keyPrefix = "timesheet:job:"

// releaseScript deletes the key only while it still holds our token, so a
// lease that expired and was taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker connects to the redis instance at url (redis://host:port/db).
func NewLocker(ctx context.Context, url string, ttl time.Duration) (*Locker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Locker{client: client, ttl: ttl}, nil
}

// Lease is a held lock. Release it when the job finishes.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// Acquire takes the lock for job or returns ErrLocked when another holder has it.
func (l *Locker) Acquire(ctx context.Context, job string) (*Lease, error) {
	key := Key(job)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return &Lease{locker: l, key: key, token: token}, nil
}

func (lease *Lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, lease.locker.client, []string{lease.key}, lease.token).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", lease.key, err)
	}
	return nil
}

func (l *Locker) Close() error {
	return l.client.Close()
}

func Key(job string) string {
	return keyPrefix + job
}
