package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricetrends/internal/platform/config"
)

func TestNew(t *testing.T) {
	t.Run("empty url disables the cache", func(t *testing.T) {
		client, err := New(context.Background(), config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{URL: "http://not-redis"})
		assert.ErrorContains(t, err, "parse redis URL")
	})
}
