package cache

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, DefaultTTL, NewRedis(client).TTL())
	assert.Equal(t, 10*time.Minute, NewRedis(client, WithTTL(10*time.Minute)).TTL())
	assert.Equal(t, DefaultTTL, NewRedis(client, WithTTL(0), nil).TTL(), "non-positive TTL and nil options are ignored")
}
