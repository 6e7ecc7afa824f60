package redis

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/repository"
)

type recentLoginFeed struct {
	client *redislib.Client
	key    string
	size   int64
}

// NewRecentLoginFeed creates a Redis list holding the latest size sign-ins.
func NewRecentLoginFeed(client *redislib.Client, prefix string, size int) repository.RecentLoginFeed {
	if size <= 0 {
		size = 10
	}
	if prefix == "" {
		prefix = "accounts:"
	}
	return &recentLoginFeed{
		client: client,
		key:    fmt.Sprintf("%srecent_logins", prefix),
		size:   int64(size),
	}
}

func (f *recentLoginFeed) Push(ctx context.Context, login domain.RecentLogin) error {
	payload, err := json.Marshal(login)
	if err != nil {
		return err
	}

	pipe := f.client.TxPipeline()
	pipe.LPush(ctx, f.key, payload)
	pipe.LTrim(ctx, f.key, 0, f.size-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (f *recentLoginFeed) Latest(ctx context.Context, n int) ([]domain.RecentLogin, error) {
	stop := int64(n) - 1
	if n <= 0 || int64(n) > f.size {
		stop = f.size - 1
	}
	raw, err := f.client.LRange(ctx, f.key, 0, stop).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}

	out := make([]domain.RecentLogin, 0, len(raw))
	for _, item := range raw {
		var login domain.RecentLogin
		if err := json.Unmarshal([]byte(item), &login); err != nil {
			continue
		}
		out = append(out, login)
	}
	return out, nil
}

func (f *recentLoginFeed) Reset(ctx context.Context) error {
	return f.client.Del(ctx, f.key).Err()
}
