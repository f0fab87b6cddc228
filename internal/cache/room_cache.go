package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
)

// RoomCache mirrors room status in Redis for cheap lobby reads and owns the
// start-arm guard: ArmStart succeeds exactly once per room, so a join burst
// past the start threshold schedules only a single activation.
type RoomCache interface {
	SetStatus(ctx context.Context, roomID string, status model.RoomStatus) error
	GetStatus(ctx context.Context, roomID string) (model.RoomStatus, error)
	ArmStart(ctx context.Context, roomID string) (bool, error)
	Delete(ctx context.Context, roomID string) error
}

type roomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache creates a new room cache
func NewRoomCache(client *redis.Client) RoomCache {
	return &roomCache{
		client: client,
		ttl:    24 * time.Hour, // Rooms expire after 24h
	}
}

func (c *roomCache) key(roomID string) string {
	return fmt.Sprintf("room:%s:status", roomID)
}

func (c *roomCache) armKey(roomID string) string {
	return fmt.Sprintf("room:%s:start-armed", roomID)
}

func (c *roomCache) SetStatus(ctx context.Context, roomID string, status model.RoomStatus) error {
	return c.client.Set(ctx, c.key(roomID), string(status), c.ttl).Err()
}

func (c *roomCache) GetStatus(ctx context.Context, roomID string) (model.RoomStatus, error) {
	val, err := c.client.Get(ctx, c.key(roomID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.RoomStatus(val), nil
}

// ArmStart reports true only for the first caller per room.
func (c *roomCache) ArmStart(ctx context.Context, roomID string) (bool, error) {
	return c.client.SetNX(ctx, c.armKey(roomID), 1, c.ttl).Result()
}

func (c *roomCache) Delete(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, c.key(roomID), c.armKey(roomID)).Err()
}
