package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
)

// EmbedCache caches query embeddings keyed by a hash of the input text.
// Every method is best-effort: a cache failure is logged and treated as a
// miss, never surfaced to the retrieval path.
type EmbedCache interface {
	Get(ctx context.Context, text string) ([]float32, bool)
	Set(ctx context.Context, text string, embedding []float32)
	Close() error
}

type embedCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewEmbedCache(log *logger.Logger) (EmbedCache, error) {
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

	return &embedCache{
		log:    log.With("service", "RedisEmbedCache"),
		rdb:    rdb,
		prefix: "stride:embed:",
		ttl:    24 * time.Hour,
	}, nil
}

func (c *embedCache) key(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *embedCache) Get(ctx context.Context, text string) ([]float32, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key(text)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Embed cache read failed", "error", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		c.log.Warn("Embed cache entry malformed; dropping", "error", err)
		_ = c.rdb.Del(ctx, c.key(text)).Err()
		return nil, false
	}
	if len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

func (c *embedCache) Set(ctx context.Context, text string, embedding []float32) {
	if c == nil || c.rdb == nil || len(embedding) == 0 {
		return
	}
	raw, err := json.Marshal(embedding)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(text), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Embed cache write failed", "error", err)
	}
}

func (c *embedCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
