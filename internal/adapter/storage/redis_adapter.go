package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const quantityKeyPrefix = "qty:"

var adjustQuantityScript = redis.NewScript(`
local key = KEYS[1]
local delta = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	current = 0
else
	current = tonumber(current)
end

if current + delta < 0 then
	return -1
end

return redis.call('INCRBY', key, delta)
`)

// RedisAdapter mirrors item quantities into Redis under qty:<id> keys.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	return r.client.Set(ctx, quantityKeyPrefix+itemID, quantity, 0).Err()
}

// AdjustQuantity applies a signed delta atomically. The floor-at-zero
// check runs inside the script, so concurrent adjustments can never
// drive the mirrored quantity negative.
func (r *RedisAdapter) AdjustQuantity(ctx context.Context, itemID string, delta int) (bool, error) {
	key := quantityKeyPrefix + itemID

	result, err := adjustQuantityScript.Run(ctx, r.client, []string{key}, delta).Int()
	if err != nil {
		return false, err
	}

	return result >= 0, nil
}

func (r *RedisAdapter) GetQuantity(ctx context.Context, itemID string) (int, bool, error) {
	qty, err := r.client.Get(ctx, quantityKeyPrefix+itemID).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}

func (r *RedisAdapter) DeleteQuantity(ctx context.Context, itemID string) error {
	return r.client.Del(ctx, quantityKeyPrefix+itemID).Err()
}
