package mock

import (
	"context"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var redisOnce sync.Once
var redisClient *redis.Client

// NewRedis starts (once) an embedded redis and returns a client bound
// to it. The server lives for the whole test run; scenarios isolate
// themselves with ClearRedis.
func NewRedis() *redis.Client {
	redisOnce.Do(func() {
		server, err := miniredis.Run()
		if err != nil {
			panic("failed to start embedded redis. err: " + err.Error())
		}
		redisClient = redis.NewClient(&redis.Options{
			Addr: server.Addr(),
		})
	})
	return redisClient
}

// ClearRedis flushes every key between scenarios.
func ClearRedis(client *redis.Client) error {
	return client.FlushAll(context.Background()).Err()
}
