package repository

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gateway/apps/gateway/internal/cache"
	"gateway/apps/gateway/internal/upstream"
)

const (
	testChain = "1"
	testSafe  = "0x1111111111111111111111111111111111111111"
)

type fakeManager[T any] struct {
	api       T
	err       error
	destroyed []string
}

func (m *fakeManager[T]) Get(context.Context, string) (T, error) {
	return m.api, m.err
}

func (m *fakeManager[T]) Destroy(chainID string) {
	m.destroyed = append(m.destroyed, chainID)
}

// fakeTransactionService answers the calls these tests make; any other call panics.
type fakeTransactionService struct {
	upstream.TransactionService
	safe      upstream.Safe
	safeErr   error
	safeCalls int
	tx        upstream.MultisigTransaction
	txCalls   int
}

func (f *fakeTransactionService) GetSafe(context.Context, string) (upstream.Safe, error) {
	f.safeCalls++
	return f.safe, f.safeErr
}

func (f *fakeTransactionService) GetMultisigTransaction(context.Context, string) (upstream.MultisigTransaction, error) {
	f.txCalls++
	return f.tx, nil
}

type fakeCodeReader struct {
	code []byte
}

func (f fakeCodeReader) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return f.code, nil
}

type fakeConfig struct {
	chains map[string]upstream.Chain
	calls  int
}

func (f *fakeConfig) GetChain(_ context.Context, chainID string) (upstream.Chain, error) {
	f.calls++
	chain, ok := f.chains[chainID]
	if !ok {
		return upstream.Chain{}, upstream.ErrNotFound
	}
	return chain, nil
}

func (f *fakeConfig) GetSafeApps(context.Context, string) ([]upstream.SafeApp, error) {
	return []upstream.SafeApp{{ID: 1, Name: "App"}}, nil
}

func newTestCache(t *testing.T) *cache.RedisService {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisService(client, "", zap.NewNop())
}

func TestSafeRepositoryCachesUntilCleared(t *testing.T) {
	api := &fakeTransactionService{safe: upstream.Safe{Address: testSafe, Threshold: 2}}
	repo := NewSafeRepository(newTestCache(t), &fakeManager[upstream.TransactionService]{api: api}, nil, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		safe, err := repo.GetSafe(ctx, testChain, testSafe)
		require.NoError(t, err)
		assert.Equal(t, 2, safe.Threshold)
	}
	assert.Equal(t, 1, api.safeCalls)

	require.NoError(t, repo.ClearSafe(ctx, testChain, testSafe))
	_, err := repo.GetSafe(ctx, testChain, testSafe)
	require.NoError(t, err)
	assert.Equal(t, 2, api.safeCalls)
}

func TestSafeRepositoryClearMultisigTransaction(t *testing.T) {
	api := &fakeTransactionService{tx: upstream.MultisigTransaction{SafeTxHash: "0xabc", ConfirmationsRequired: 2}}
	repo := NewSafeRepository(newTestCache(t), &fakeManager[upstream.TransactionService]{api: api}, nil, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := repo.GetMultisigTransaction(ctx, testChain, "0xABC")
	require.NoError(t, err)
	_, err = repo.GetMultisigTransaction(ctx, testChain, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 1, api.txCalls)

	require.NoError(t, repo.ClearMultisigTransaction(ctx, testChain, "0xabc"))
	_, err = repo.GetMultisigTransaction(ctx, testChain, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, 2, api.txCalls)
}

func TestSafeRepositoryIsSafeSkipsAddressesWithoutCode(t *testing.T) {
	api := &fakeTransactionService{}
	blockchain := NewBlockchainRepository(&fakeManager[upstream.CodeReader]{api: fakeCodeReader{}})
	repo := NewSafeRepository(newTestCache(t), &fakeManager[upstream.TransactionService]{api: api}, blockchain, time.Minute, zap.NewNop())

	ok, err := repo.IsSafe(context.Background(), testChain, testSafe)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, api.safeCalls)
}

func TestSafeRepositoryIsSafeRefreshedByClearIsSafe(t *testing.T) {
	api := &fakeTransactionService{safeErr: upstream.ErrNotFound}
	blockchain := NewBlockchainRepository(&fakeManager[upstream.CodeReader]{api: fakeCodeReader{code: []byte{0x60}}})
	repo := NewSafeRepository(newTestCache(t), &fakeManager[upstream.TransactionService]{api: api}, blockchain, time.Minute, zap.NewNop())
	ctx := context.Background()

	ok, err := repo.IsSafe(ctx, testChain, testSafe)
	require.NoError(t, err)
	assert.False(t, ok)

	api.safeErr = nil
	ok, err = repo.IsSafe(ctx, testChain, testSafe)
	require.NoError(t, err)
	assert.False(t, ok, "negative answer is cached")

	require.NoError(t, repo.ClearIsSafe(ctx, testChain, testSafe))
	ok, err = repo.IsSafe(ctx, testChain, testSafe)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChainsRepositoryMemoizesSupport(t *testing.T) {
	config := &fakeConfig{chains: map[string]upstream.Chain{"1": {ChainID: "1"}}}
	svc := newTestCache(t)
	repo := NewChainsRepository(svc, config, time.Minute, zap.NewNop())
	ctx := context.Background()

	ok, err := repo.IsSupportedChain(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IsSupportedChain(ctx, "5")
	require.NoError(t, err)
	assert.False(t, ok)

	calls := config.calls
	_, _ = repo.IsSupportedChain(ctx, "1")
	_, _ = repo.IsSupportedChain(ctx, "5")
	assert.Equal(t, calls, config.calls)

	repo.ClearIsSupportedChain()
	require.NoError(t, repo.ClearChain(ctx, "1"))
	_, err = repo.IsSupportedChain(ctx, "1")
	require.NoError(t, err)
	assert.Greater(t, config.calls, calls)
}

func TestSafeAppsRepositoryClear(t *testing.T) {
	svc := newTestCache(t)
	repo := NewSafeAppsRepository(svc, &fakeConfig{}, time.Minute, zap.NewNop())
	ctx := context.Background()
	var router cache.Router

	apps, err := repo.GetSafeApps(ctx, "1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	data, err := svc.Get(ctx, router.SafeAppsDir("1"))
	require.NoError(t, err)
	assert.NotNil(t, data)

	require.NoError(t, repo.ClearSafeApps(ctx, "1"))
	data, err = svc.Get(ctx, router.SafeAppsDir("1"))
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestClearAPIDestroysChainClient(t *testing.T) {
	staking := &fakeManager[upstream.StakingService]{}
	balances := &fakeManager[upstream.BalancesService]{}
	blockchain := &fakeManager[upstream.CodeReader]{}
	svc := newTestCache(t)

	NewStakingRepository(svc, staking, time.Minute, zap.NewNop()).ClearAPI("10")
	NewBalancesRepository(svc, balances, time.Minute, zap.NewNop()).ClearAPI("10")
	NewBlockchainRepository(blockchain).ClearAPI("10")

	assert.Equal(t, []string{"10"}, staking.destroyed)
	assert.Equal(t, []string{"10"}, balances.destroyed)
	assert.Equal(t, []string{"10"}, blockchain.destroyed)
}
