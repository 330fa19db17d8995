package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *profile) func() error {
		return func() error {
			calls++
			*dest = profile{ID: 1, Name: "alice"}
			return nil
		}
	}

	var first profile
	require.NoError(t, Aside(ctx, UserKey(1), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "alice", first.Name)
	assert.True(t, mr.Exists(UserKey(1)))

	var second profile
	require.NoError(t, Aside(ctx, UserKey(1), &second, UserTTL, fetch(&second)))
	assert.Equal(t, "alice", second.Name)
	assert.Equal(t, 1, calls)

	InvalidateUser(ctx, 1)
	assert.False(t, mr.Exists(UserKey(1)))
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := useMiniredis(t)
	var p profile
	err := Aside(context.Background(), UserKey(2), &p, time.Minute, func() error {
		return errors.New("not found")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists(UserKey(2)))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)
	var p profile
	calls := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), UserKey(3), &p, time.Minute, func() error {
			calls++
			p = profile{ID: 3}
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisDownFallsBackToFetch(t *testing.T) {
	mr := useMiniredis(t)
	mr.Close()

	var p profile
	err := Aside(context.Background(), UserKey(4), &p, time.Minute, func() error {
		p = profile{ID: 4, Name: "dana"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "dana", p.Name)
}

func TestInitRedis_Unreachable(t *testing.T) {
	t.Cleanup(func() { SetClient(nil) })
	assert.Nil(t, InitRedis("redis://%%bad"))
	assert.Nil(t, GetClient())
}

func TestInitRedis_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { SetClient(nil) })
	rdb := InitRedis(mr.Addr())
	require.NotNil(t, rdb)
	assert.Same(t, rdb, GetClient())
	assert.Equal(t, "notifications:user:9", NotificationChannel(9))
}
