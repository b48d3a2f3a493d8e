package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis is a go-redis backed Store. Each collection is a single hash keyed
// by record key, so GetAll stays one round trip.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis wraps an existing Redis client. prefix namespaces the hashes so
// several deployments can share one database.
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "prepkit"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) hashKey(collection string) string {
	return r.prefix + ":" + collection
}

func (r *Redis) GetAll(ctx context.Context, collection string) (map[string][]byte, error) {
	vals, err := r.rdb.HGetAll(ctx, r.hashKey(collection)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	out := make(map[string][]byte, len(vals))
	for k, v := range vals {
		out[k] = []byte(v)
	}
	return out, nil
}

func (r *Redis) Get(ctx context.Context, collection, key string) ([]byte, error) {
	v, err := r.rdb.HGet(ctx, r.hashKey(collection), key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return []byte(v), nil
}

func (r *Redis) Put(ctx context.Context, collection, key string, value []byte) error {
	return unavailable(r.rdb.HSet(ctx, r.hashKey(collection), key, value).Err())
}

func (r *Redis) Delete(ctx context.Context, collection, key string) error {
	return unavailable(r.rdb.HDel(ctx, r.hashKey(collection), key).Err())
}

func (r *Redis) Clear(ctx context.Context, collection string) error {
	return unavailable(r.rdb.Del(ctx, r.hashKey(collection)).Err())
}
