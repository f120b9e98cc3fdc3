package repository

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"gateway/apps/gateway/internal/upstream"
)

type BlockchainRepository struct {
	apis upstream.APIManager[upstream.CodeReader]
}

func NewBlockchainRepository(apis upstream.APIManager[upstream.CodeReader]) *BlockchainRepository {
	return &BlockchainRepository{apis: apis}
}

// IsContract reports whether address has code at the latest block.
func (r *BlockchainRepository) IsContract(ctx context.Context, chainID, address string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("invalid address %q", address)
	}
	client, err := r.apis.Get(ctx, chainID)
	if err != nil {
		return false, err
	}
	code, err := client.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return false, fmt.Errorf("failed to get code at %s: %w", address, err)
	}
	return len(code) > 0, nil
}

func (r *BlockchainRepository) ClearAPI(chainID string) {
	r.apis.Destroy(chainID)
}
