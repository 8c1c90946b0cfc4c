package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"twitterpipe/types"
)

// RedisTable stores each item as a JSON string under "<table>:<partition>:<sort>".
// It stands in for DynamoDB in local setups.
type RedisTable struct {
	client *redis.Client
	table  string
}

func NewRedisTable(client *redis.Client, table string) *RedisTable {
	return &RedisTable{client: client, table: table}
}

// ItemKey is the Redis key an item is stored under.
func (t *RedisTable) ItemKey(item types.Keyed) string {
	pk, sk := item.Key()
	return fmt.Sprintf("%s:%s:%s", t.table, pk, sk)
}

func (t *RedisTable) PutItem(ctx context.Context, item types.Keyed) error {
	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	key := t.ItemKey(item)
	if err := t.client.Set(ctx, key, b, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
