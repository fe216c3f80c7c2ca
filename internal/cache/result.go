// 包 cache：扫描结果的 Redis 缓存与查询服务的进程内 LRU
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/metrics"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	scanPrefix       = "rtw:scan:"
	settlementPrefix = "rtw:settlement:"
)

// 文档注释：基于 Redis 的扫描结果缓存
// 背景：同一份位图与描述文件重复扫描时直接复用上次结果；值为 JSON。
// 约束：接收者或客户端为 nil 时所有操作视为未命中，不影响主流程。
type ResultCache struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewResultCache(rc *redis.Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ResultCache{rc: rc, ttl: ttl}
}

func (c *ResultCache) enabled() bool { return c != nil && c.rc != nil }

// Get：命中时把缓存值解码到 dst 并返回 true；Redis 异常按未命中处理
func (c *ResultCache) Get(ctx context.Context, key string, dst any) bool {
	if !c.enabled() {
		return false
	}
	s, err := c.rc.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("cache_get_error", "key", key, "err", err)
		}
		metrics.ScanCacheMissesTotal.Inc()
		return false
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		logger.L().Warn("cache_decode_error", "key", key, "err", err)
		metrics.ScanCacheMissesTotal.Inc()
		return false
	}
	metrics.ScanCacheHitsTotal.Inc()
	logger.L().Debug("cache_hit", "key", key)
	return true
}

// Set：以 JSON 写入并设置 TTL
func (c *ResultCache) Set(ctx context.Context, key string, v any) error {
	if !c.enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rc.Set(ctx, key, string(b), c.ttl).Err()
}

// Digest：对输入各段做带长度前缀的 sha256，返回扫描缓存键
func Digest(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return scanPrefix + hex.EncodeToString(h.Sum(nil))
}

// SettlementKey：查询服务按名称缓存单个聚落的键
// 约束：键内含批次 id，新批次写入后旧键自然失效
func SettlementKey(tag string, runID int64, name string) string {
	return fmt.Sprintf("%s%s:%d:%s", settlementPrefix, tag, runID, name)
}
