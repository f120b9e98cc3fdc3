package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisService(client, "gw", zap.NewNop()), m
}

func TestRedisServiceGetMissReturnsNil(t *testing.T) {
	svc, _ := newTestService(t)

	data, err := svc.Get(context.Background(), Dir{Key: "1_safe_0x", Field: "_"})

	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisServiceSetThenGet(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	dir := Dir{Key: "1_safe_balances_0xabc", Field: "true_false"}

	require.NoError(t, svc.Set(ctx, dir, []byte(`{"fiatTotal":"1"}`), time.Minute))

	data, err := svc.Get(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, `{"fiatTotal":"1"}`, string(data))
	assert.True(t, m.Exists("gw:1_safe_balances_0xabc"))
	assert.Equal(t, time.Minute, m.TTL("gw:1_safe_balances_0xabc"))
}

func TestRedisServiceEntriesExpire(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	dir := Dir{Key: "1_chain", Field: "_"}

	require.NoError(t, svc.Set(ctx, dir, []byte("x"), time.Second))
	m.FastForward(2 * time.Second)

	data, err := svc.Get(ctx, dir)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisServiceDeleteByKeyRemovesEveryField(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := "1_multisig_transactions_0xabc"

	require.NoError(t, svc.Set(ctx, Dir{Key: key, Field: "20_0"}, []byte("a"), 0))
	require.NoError(t, svc.Set(ctx, Dir{Key: key, Field: "20_20"}, []byte("b"), 0))

	require.NoError(t, svc.DeleteByKey(ctx, key))

	for _, field := range []string{"20_0", "20_20"} {
		data, err := svc.Get(ctx, Dir{Key: key, Field: field})
		require.NoError(t, err)
		assert.Nil(t, data, field)
	}
}

func TestRedisServiceDeleteAbsentKeyIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.DeleteByKey(ctx, "1_safe_apps"))
	require.NoError(t, svc.DeleteByKey(ctx, "1_safe_apps"))
}

func TestRedisServiceReportsConnectionErrors(t *testing.T) {
	svc, m := newTestService(t)
	m.Close()

	_, err := svc.Get(context.Background(), Dir{Key: "k", Field: "f"})
	assert.Error(t, err)
	assert.Error(t, svc.DeleteByKey(context.Background(), "k"))
}
