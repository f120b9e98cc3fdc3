package upstream

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// CodeReader reads contract bytecode. *ethclient.Client satisfies it.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// NewBlockchainManager dials the RPC node configured for each chain.
func NewBlockchainManager(chains ChainSource, logger *zap.Logger) *Manager[CodeReader] {
	return NewManager("blockchain", func(ctx context.Context, chainID string) (CodeReader, error) {
		chain, err := chains.GetChain(ctx, chainID)
		if err != nil {
			return nil, err
		}
		if chain.RPCURI.Value == "" {
			return nil, fmt.Errorf("chain %s has no rpc uri", chainID)
		}
		client, err := ethclient.DialContext(ctx, chain.RPCURI.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Ethereum client: %w", err)
		}
		return client, nil
	}, func(r CodeReader) {
		if client, ok := r.(*ethclient.Client); ok {
			client.Close()
		}
	}, logger)
}
