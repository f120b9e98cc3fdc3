package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type payload struct {
	Owners    []string `json:"owners"`
	Threshold int      `json:"threshold"`
}

func TestGetOrFetchStoresOnMissAndServesFromCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	dir := Dir{Key: "1_safe_0xabc", Field: "_"}
	calls := 0
	fetch := func(context.Context) (payload, error) {
		calls++
		return payload{Owners: []string{"0x1"}, Threshold: 2}, nil
	}

	first, err := GetOrFetch(ctx, svc, zap.NewNop(), dir, time.Minute, fetch)
	require.NoError(t, err)
	second, err := GetOrFetch(ctx, svc, zap.NewNop(), dir, time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, second.Threshold)
	assert.Equal(t, 1, calls)
}

func TestGetOrFetchRefetchesAfterDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	dir := Dir{Key: "1_safe_0xabc", Field: "_"}
	calls := 0
	fetch := func(context.Context) (payload, error) {
		calls++
		return payload{Threshold: calls}, nil
	}

	_, err := GetOrFetch(ctx, svc, zap.NewNop(), dir, time.Minute, fetch)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteByKey(ctx, dir.Key))
	got, err := GetOrFetch(ctx, svc, zap.NewNop(), dir, time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Threshold)
}

func TestGetOrFetchDoesNotCacheErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	dir := Dir{Key: "1_chain", Field: "_"}
	boom := errors.New("upstream down")

	_, err := GetOrFetch(ctx, svc, zap.NewNop(), dir, time.Minute, func(context.Context) (payload, error) {
		return payload{}, boom
	})
	require.ErrorIs(t, err, boom)

	data, err := svc.Get(ctx, dir)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestGetOrFetchFallsBackWhenCacheIsDown(t *testing.T) {
	svc, m := newTestService(t)
	m.Close()

	got, err := GetOrFetch(context.Background(), svc, zap.NewNop(), Dir{Key: "k", Field: "f"}, time.Minute, func(context.Context) (payload, error) {
		return payload{Threshold: 3}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, got.Threshold)
}
