package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
)

type redisService struct {
	Client  *redis.Client
	Channel string
}

// NewRedis publishes each batch on a Redis channel. The connection is checked
// with a ping.
func NewRedis(ctx context.Context, cfgSvc config.IService) (IService, error) {
	opts, err := redis.ParseURL(cfgSvc.GetSlotsRedisURL())
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisService{
		Client:  client,
		Channel: cfgSvc.GetSlotsRedisChannel(),
	}, nil
}

func (svc *redisService) Name() string {
	return "redis"
}

func (svc *redisService) Post(ctx context.Context, results []model.SlotResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return svc.Client.Publish(ctx, svc.Channel, data).Err()
}

func (svc *redisService) Close() error {
	return svc.Client.Close()
}
