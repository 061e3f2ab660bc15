package store

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// ListStore 抽象的字符串列表存储（用于在单元测试中替换 Redis）
// 键不存在时 GetStringList 返回空列表而不是错误
type ListStore interface {
	GetStringList(ctx context.Context, key string) ([]string, error)
	SetStringList(ctx context.Context, key string, values []string) error
}

// RedisListStore 基于 go-redis 的列表存储实现
type RedisListStore struct {
	client *redis.Client
}

func NewRedisListStore(client *redis.Client) *RedisListStore {
	return &RedisListStore{client: client}
}

func (r *RedisListStore) GetStringList(ctx context.Context, key string) ([]string, error) {
	values, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return values, nil
}

func (r *RedisListStore) SetStringList(ctx context.Context, key string, values []string) error {
	// 整体覆盖：DEL + RPUSH 放在同一个事务管道里执行
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(values) > 0 {
		args := make([]interface{}, len(values))
		for i, v := range values {
			args[i] = v
		}
		pipe.RPush(ctx, key, args...)
	}
	_, err := pipe.Exec(ctx)
	return err
}
