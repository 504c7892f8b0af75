package security

import (
	"context"
	"strings"
	"time"

	"github.com/platformbuilds/vigil-core/pkg/cache"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

const (
	blockKeyPrefix      = "vigil:blocked_ip:"
	reputationKeyPrefix = "vigil:ip_reputation:"
)

// Blocklist tracks blocked source IPs in the shared cache so every
// replica sees the same block state. Block is idempotent: re-blocking
// an already blocked IP is a no-op.
type Blocklist struct {
	store  cache.Store
	ttl    time.Duration
	logger logger.Logger
}

func NewBlocklist(store cache.Store, ttl time.Duration, log logger.Logger) *Blocklist {
	return &Blocklist{store: store, ttl: ttl, logger: log.With("component", "blocklist")}
}

func (b *Blocklist) Block(ctx context.Context, ip, reason string) error {
	blocked, err := b.store.Exists(ctx, blockKeyPrefix+ip)
	if err != nil {
		return err
	}
	if blocked {
		return nil
	}
	if err := b.store.Set(ctx, blockKeyPrefix+ip, []byte(reason), b.ttl); err != nil {
		return err
	}
	b.logger.Warn("IP blocked", "ip", ip, "reason", reason)
	return nil
}

func (b *Blocklist) Unblock(ctx context.Context, ip string) error {
	return b.store.Delete(ctx, blockKeyPrefix+ip)
}

func (b *Blocklist) IsBlocked(ctx context.Context, ip string) (bool, error) {
	return b.store.Exists(ctx, blockKeyPrefix+ip)
}

// Blocked lists the currently blocked IPs.
func (b *Blocklist) Blocked(ctx context.Context) ([]string, error) {
	keys, err := b.store.Keys(ctx, blockKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, blockKeyPrefix))
	}
	return out, nil
}

// reputation counts distinct security events per source IP inside the
// configured TTL window.
type reputation struct {
	store cache.Store
	ttl   time.Duration
}

func (r *reputation) record(ctx context.Context, ip string) (int64, error) {
	return r.store.Incr(ctx, reputationKeyPrefix+ip, r.ttl)
}
