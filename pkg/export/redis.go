package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/redis/go-redis/v9"
)

// RedisClient é o subconjunto do go-redis usado pelo sink.
type RedisClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Close() error
}

// RedisSink grava cada item em um hash <prefix><domain>:<item>. Atributos
// multivalorados viram um array JSON.
type RedisSink struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisSink(client RedisClient, cfg config.RedisSinkConf) *RedisSink {
	return &RedisSink{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL}
}

func NewRedisSinkFromConfig(cfg config.RedisSinkConf) *RedisSink {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisSink(client, cfg)
}

func (s *RedisSink) key(r Record) string {
	return s.prefix + r.Domain + ":" + r.Name
}

func (s *RedisSink) Write(ctx context.Context, records []Record) error {
	for _, r := range records {
		fields, err := hashFields(r)
		if err != nil {
			return err
		}
		key := s.key(r)
		if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
			return fmt.Errorf("export: redis hset %s: %w", key, err)
		}
		if s.ttl > 0 {
			if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
				return fmt.Errorf("export: redis expire %s: %w", key, err)
			}
		}
	}
	return nil
}

func hashFields(r Record) (map[string]interface{}, error) {
	fields := make(map[string]interface{}, len(r.Attributes)+1)
	for name, values := range r.Attributes {
		if len(values) == 1 {
			fields[name] = values[0]
			continue
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("export: redis marshal %s.%s: %w", r.Name, name, err)
		}
		fields[name] = string(raw)
	}
	fields["_exported_at"] = r.ExportedAt.UTC().Format(time.RFC3339)
	return fields, nil
}

func (s *RedisSink) Close(context.Context) error {
	return s.client.Close()
}
