package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"NowFM/model"

	"github.com/go-redis/redis/v8"
)

// nowPlayingKey 当前播放状态的Redis键。键不存在表示当前没有播放。
const nowPlayingKey = "lastfm:nowplaying"

// NowPlayingCache 将最近一次广播的播放事件镜像到Redis，
// 用于进程重启或新连接时的快速恢复。内存中的会话状态才是权威数据。
type NowPlayingCache struct {
	client *redis.Client
}

// NewNowPlayingCache 创建缓存适配器，依赖全局Redis客户端
func NewNowPlayingCache() *NowPlayingCache {
	return &NowPlayingCache{client: RedisClient}
}

// Set 写入当前播放事件
func (c *NowPlayingCache) Set(ctx context.Context, np *model.NowPlaying) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(np)
	if err != nil {
		return fmt.Errorf("failed to marshal now playing event: %w", err)
	}

	if err := c.client.Set(ctx, nowPlayingKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set now playing key: %w", err)
	}
	return nil
}

// Get 读取最近一次的播放事件，键不存在时返回nil
func (c *NowPlayingCache) Get(ctx context.Context) (*model.NowPlaying, error) {
	if c.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	val, err := c.client.Get(ctx, nowPlayingKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get now playing key: %w", err)
	}

	var np model.NowPlaying
	if err := json.Unmarshal([]byte(val), &np); err != nil {
		return nil, fmt.Errorf("failed to unmarshal now playing event: %w", err)
	}
	return &np, nil
}

// Clear 清除当前播放事件
func (c *NowPlayingCache) Clear(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	if err := c.client.Del(ctx, nowPlayingKey).Err(); err != nil {
		return fmt.Errorf("failed to delete now playing key: %w", err)
	}
	return nil
}
