package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"fontier-admin/internal/querycache"
)

// L2 stores query results in Redis so replicas share fetched values.
// Values live at <prefix><kind>:<param>. Versions live at <prefix>~ver:<kind> (bumped
// by DeleteKind) and <prefix>~ver:<kind>:<param> (bumped by Delete); a value is only
// written while both still read as they did before the fetch.
type L2 struct {
	rdb    redis.UniversalClient
	prefix string
	// used when the cache runs without a TTL so abandoned keys still expire
	fallbackTTL time.Duration
}

// KEYS: kind version, key version, value. ARGV: expected "<kind>.<key>", value, ttl ms.
var setIfVersionScript = redis.NewScript(`
local kv = redis.call('GET', KEYS[1]) or '0'
local iv = redis.call('GET', KEYS[2]) or '0'
if kv .. '.' .. iv ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[3], ARGV[2], 'PX', ARGV[3])
return 1`)

// NewL2 wraps rdb. prefix defaults to "fontier:qc:".
func NewL2(rdb redis.UniversalClient, prefix string) *L2 {
	return &L2{
		rdb:         rdb,
		prefix:      lo.Ternary(prefix != "", prefix, "fontier:qc:"),
		fallbackTTL: 24 * time.Hour,
	}
}

func (l *L2) key(k querycache.Key) string {
	return l.prefix + k.Kind + ":" + k.Param
}

func (l *L2) kindVersionKey(kind string) string { return l.prefix + "~ver:" + kind }

func (l *L2) keyVersionKey(k querycache.Key) string {
	return l.prefix + "~ver:" + k.Kind + ":" + k.Param
}

// Version implements querycache.L2.
func (l *L2) Version(ctx context.Context, k querycache.Key) (string, error) {
	vals, err := l.rdb.MGet(ctx, l.kindVersionKey(k.Kind), l.keyVersionKey(k)).Result()
	if err != nil {
		return "", err
	}
	part := func(v any) string {
		s, ok := v.(string)
		return lo.Ternary(ok && s != "", s, "0")
	}
	return part(vals[0]) + "." + part(vals[1]), nil
}

// Get implements querycache.L2.
func (l *L2) Get(ctx context.Context, k querycache.Key) ([]byte, bool, error) {
	raw, err := l.rdb.Get(ctx, l.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// SetIfVersion implements querycache.L2.
func (l *L2) SetIfVersion(ctx context.Context, k querycache.Key, version string, val []byte, ttl time.Duration) (bool, error) {
	ttl = lo.Ternary(ttl > 0, ttl, l.fallbackTTL)
	keys := []string{l.kindVersionKey(k.Kind), l.keyVersionKey(k), l.key(k)}
	n, err := setIfVersionScript.Run(ctx, l.rdb, keys, version, val, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete implements querycache.L2. Each version bump and delete run in one MULTI.
func (l *L2) Delete(ctx context.Context, keys ...querycache.Key) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range keys {
			p.Incr(ctx, l.keyVersionKey(k))
		}
		p.Del(ctx, lo.Map(keys, func(k querycache.Key, _ int) string { return l.key(k) })...)
		return nil
	})
	return err
}

// DeleteKind removes every key of kind, walking the keyspace with SCAN. The kind
// version moves first, so no value fetched earlier can be written back mid-walk.
func (l *L2) DeleteKind(ctx context.Context, kind string) error {
	if err := l.rdb.Incr(ctx, l.kindVersionKey(kind)).Err(); err != nil {
		return err
	}
	pattern := l.prefix + kind + ":*"
	var cursor uint64
	for {
		keys, next, err := l.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := l.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
