package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/canvas-ai-labs/canvas-core-backend/config"
)

// Client Redis 客户端封装
// 当前用于洞察接口（截止日期看板）的短 TTL 读缓存；后续可扩展分布式锁等场景
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 读缓存 ──

const cachePrefix = "insights:"

// GetCache 读取缓存值；未命中返回 ("", false, nil)
func (c *Client) GetCache(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, cachePrefix+key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetCache 写入缓存值并设置 TTL
func (c *Client) SetCache(ctx context.Context, key, val string, ttl time.Duration) error {
	return c.rdb.Set(ctx, cachePrefix+key, val, ttl).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
