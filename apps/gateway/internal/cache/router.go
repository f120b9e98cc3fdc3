package cache

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Cache key namespaces. Each domain repository owns the namespaces it reads
// and clears.
const (
	safeKey                 = "safe"
	safeExistsKey           = "safe_exists"
	balancesKey             = "safe_balances"
	collectiblesKey         = "safe_collectibles"
	multisigTransactionsKey = "multisig_transactions"
	multisigTransactionKey  = "multisig_transaction"
	allTransactionsKey      = "all_transactions"
	moduleTransactionsKey   = "module_transactions"
	transfersKey            = "transfers"
	incomingTransfersKey    = "incoming_transfers"
	messagesBySafeKey       = "messages"
	messageKey              = "message"
	stakesKey               = "staking_stakes"
	chainKey                = "chain"
	safeAppsKey             = "safe_apps"
	defaultField            = "_"
)

// Router derives cache keys and dirs. Keys depend only on the chain and the
// address or hash they describe, so an event carrying those identifiers is
// enough to know which keys to delete.
type Router struct{}

func (Router) SafeKey(chainID, safe string) string {
	return addressKey(chainID, safeKey, safe)
}

func (r Router) SafeDir(chainID, safe string) Dir {
	return Dir{Key: r.SafeKey(chainID, safe), Field: defaultField}
}

func (Router) SafeExistsKey(chainID, safe string) string {
	return addressKey(chainID, safeExistsKey, safe)
}

func (r Router) SafeExistsDir(chainID, safe string) Dir {
	return Dir{Key: r.SafeExistsKey(chainID, safe), Field: defaultField}
}

func (Router) BalancesKey(chainID, safe string) string {
	return addressKey(chainID, balancesKey, safe)
}

func (r Router) BalancesDir(chainID, safe string, trusted, excludeSpam bool) Dir {
	return Dir{Key: r.BalancesKey(chainID, safe), Field: fmt.Sprintf("%t_%t", trusted, excludeSpam)}
}

func (Router) CollectiblesKey(chainID, safe string) string {
	return addressKey(chainID, collectiblesKey, safe)
}

func (r Router) CollectiblesDir(chainID, safe string, limit, offset int) Dir {
	return Dir{Key: r.CollectiblesKey(chainID, safe), Field: pageField(limit, offset)}
}

func (Router) MultisigTransactionsKey(chainID, safe string) string {
	return addressKey(chainID, multisigTransactionsKey, safe)
}

func (r Router) MultisigTransactionsDir(chainID, safe string, limit, offset int) Dir {
	return Dir{Key: r.MultisigTransactionsKey(chainID, safe), Field: pageField(limit, offset)}
}

func (Router) MultisigTransactionKey(chainID, safeTxHash string) string {
	return hashKey(chainID, multisigTransactionKey, safeTxHash)
}

func (r Router) MultisigTransactionDir(chainID, safeTxHash string) Dir {
	return Dir{Key: r.MultisigTransactionKey(chainID, safeTxHash), Field: defaultField}
}

func (Router) AllTransactionsKey(chainID, safe string) string {
	return addressKey(chainID, allTransactionsKey, safe)
}

func (r Router) AllTransactionsDir(chainID, safe string, limit, offset int) Dir {
	return Dir{Key: r.AllTransactionsKey(chainID, safe), Field: pageField(limit, offset)}
}

func (Router) ModuleTransactionsKey(chainID, safe string) string {
	return addressKey(chainID, moduleTransactionsKey, safe)
}

func (r Router) ModuleTransactionsDir(chainID, safe string, limit, offset int) Dir {
	return Dir{Key: r.ModuleTransactionsKey(chainID, safe), Field: pageField(limit, offset)}
}

func (Router) TransfersKey(chainID, safe string) string {
	return addressKey(chainID, transfersKey, safe)
}

func (r Router) TransfersDir(chainID, safe string, limit, offset int) Dir {
	return Dir{Key: r.TransfersKey(chainID, safe), Field: pageField(limit, offset)}
}

func (Router) IncomingTransfersKey(chainID, safe string) string {
	return addressKey(chainID, incomingTransfersKey, safe)
}

func (r Router) IncomingTransfersDir(chainID, safe, txHash string) Dir {
	return Dir{Key: r.IncomingTransfersKey(chainID, safe), Field: strings.ToLower(txHash)}
}

func (Router) MessagesBySafeKey(chainID, safe string) string {
	return addressKey(chainID, messagesBySafeKey, safe)
}

func (r Router) MessagesBySafeDir(chainID, safe string, limit, offset int) Dir {
	return Dir{Key: r.MessagesBySafeKey(chainID, safe), Field: pageField(limit, offset)}
}

func (Router) MessageKey(chainID, messageHash string) string {
	return hashKey(chainID, messageKey, messageHash)
}

func (r Router) MessageDir(chainID, messageHash string) Dir {
	return Dir{Key: r.MessageKey(chainID, messageHash), Field: defaultField}
}

func (Router) StakesKey(chainID, safe string) string {
	return addressKey(chainID, stakesKey, safe)
}

func (r Router) StakesDir(chainID, safe string) Dir {
	return Dir{Key: r.StakesKey(chainID, safe), Field: defaultField}
}

func (Router) ChainKey(chainID string) string {
	return chainID + "_" + chainKey
}

func (r Router) ChainDir(chainID string) Dir {
	return Dir{Key: r.ChainKey(chainID), Field: defaultField}
}

func (Router) SafeAppsKey(chainID string) string {
	return chainID + "_" + safeAppsKey
}

func (r Router) SafeAppsDir(chainID string) Dir {
	return Dir{Key: r.SafeAppsKey(chainID), Field: defaultField}
}

func pageField(limit, offset int) string {
	return fmt.Sprintf("%d_%d", limit, offset)
}

func addressKey(chainID, namespace, address string) string {
	return chainID + "_" + namespace + "_" + normalizeAddress(address)
}

func hashKey(chainID, namespace, hash string) string {
	return chainID + "_" + namespace + "_" + strings.ToLower(hash)
}

// normalizeAddress checksums hex addresses so differently cased inputs share a key.
func normalizeAddress(address string) string {
	if common.IsHexAddress(address) {
		return common.HexToAddress(address).Hex()
	}
	return address
}
