package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/RakMan09/refund-returns-agent/internal/platform/logger"
)

const (
	lockTTL       = 30 * time.Second
	retryInterval = 50 * time.Millisecond
)

// SessionLocker serializes chat turns across replicas with a per-session
// redis lock. Single-node deployments use the in-process keyed mutex
// instead; this exists for the multi-replica case where two gateways can
// receive turns for the same session.
type SessionLocker struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewSessionLocker(log *logger.Logger) (*SessionLocker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &SessionLocker{
		log:    log.With("service", "RedisSessionLocker"),
		rdb:    rdb,
		prefix: "turnlock:",
	}, nil
}

// releaseScript deletes the key only when this holder still owns it, so
// a lock that expired and was re-acquired elsewhere is never released by
// the stale holder.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *SessionLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := l.prefix + sessionID
	token := uuid.New().String()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire turn lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	unlock := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn("turn_lock_release_failed", "session_id", sessionID, "error", err)
		}
	}
	return unlock, nil
}

func (l *SessionLocker) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
