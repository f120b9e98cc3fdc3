package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// TransactionService is the per-chain Safe transaction service.
type TransactionService interface {
	BalancesService
	GetSafe(ctx context.Context, address string) (Safe, error)
	GetMultisigTransaction(ctx context.Context, safeTxHash string) (MultisigTransaction, error)
	GetMultisigTransactions(ctx context.Context, safe string, limit, offset int) (Page[MultisigTransaction], error)
	GetAllTransactions(ctx context.Context, safe string, limit, offset int) (Page[json.RawMessage], error)
	GetModuleTransactions(ctx context.Context, safe string, limit, offset int) (Page[json.RawMessage], error)
	GetTransfers(ctx context.Context, safe string, limit, offset int) (Page[json.RawMessage], error)
	GetIncomingTransfers(ctx context.Context, safe, txHash string) (Page[Transfer], error)
	GetMessageByHash(ctx context.Context, messageHash string) (Message, error)
	GetMessagesBySafe(ctx context.Context, safe string, limit, offset int) (Page[Message], error)
	GetDelegates(ctx context.Context, safe, delegate string) (Page[Delegate], error)
	GetCollectibles(ctx context.Context, safe string, limit, offset int) (Page[Collectible], error)
}

// BalancesService returns token balances of a Safe.
type BalancesService interface {
	GetBalances(ctx context.Context, safe string, trusted, excludeSpam bool) ([]Balance, error)
}

type TransactionClient struct {
	baseURL string
	client  *http.Client
}

func NewTransactionClient(baseURL string, client *http.Client) *TransactionClient {
	return &TransactionClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *TransactionClient) GetSafe(ctx context.Context, address string) (Safe, error) {
	var safe Safe
	err := getJSON(ctx, c.client, c.url("/api/v1/safes/"+url.PathEscape(address)+"/", nil), &safe)
	return safe, err
}

func (c *TransactionClient) GetMultisigTransaction(ctx context.Context, safeTxHash string) (MultisigTransaction, error) {
	var tx MultisigTransaction
	err := getJSON(ctx, c.client, c.url("/api/v1/multisig-transactions/"+url.PathEscape(safeTxHash)+"/", nil), &tx)
	return tx, err
}

func (c *TransactionClient) GetMultisigTransactions(ctx context.Context, safe string, limit, offset int) (Page[MultisigTransaction], error) {
	var page Page[MultisigTransaction]
	err := getJSON(ctx, c.client, c.safeURL(safe, "multisig-transactions", pagination(limit, offset)), &page)
	return page, err
}

func (c *TransactionClient) GetAllTransactions(ctx context.Context, safe string, limit, offset int) (Page[json.RawMessage], error) {
	var page Page[json.RawMessage]
	err := getJSON(ctx, c.client, c.safeURL(safe, "all-transactions", pagination(limit, offset)), &page)
	return page, err
}

func (c *TransactionClient) GetModuleTransactions(ctx context.Context, safe string, limit, offset int) (Page[json.RawMessage], error) {
	var page Page[json.RawMessage]
	err := getJSON(ctx, c.client, c.safeURL(safe, "module-transactions", pagination(limit, offset)), &page)
	return page, err
}

func (c *TransactionClient) GetTransfers(ctx context.Context, safe string, limit, offset int) (Page[json.RawMessage], error) {
	var page Page[json.RawMessage]
	err := getJSON(ctx, c.client, c.safeURL(safe, "transfers", pagination(limit, offset)), &page)
	return page, err
}

func (c *TransactionClient) GetIncomingTransfers(ctx context.Context, safe, txHash string) (Page[Transfer], error) {
	var page Page[Transfer]
	query := url.Values{}
	if txHash != "" {
		query.Set("transaction_hash", txHash)
	}
	err := getJSON(ctx, c.client, c.safeURL(safe, "incoming-transfers", query), &page)
	return page, err
}

func (c *TransactionClient) GetMessageByHash(ctx context.Context, messageHash string) (Message, error) {
	var msg Message
	err := getJSON(ctx, c.client, c.url("/api/v1/messages/"+url.PathEscape(messageHash)+"/", nil), &msg)
	return msg, err
}

func (c *TransactionClient) GetMessagesBySafe(ctx context.Context, safe string, limit, offset int) (Page[Message], error) {
	var page Page[Message]
	err := getJSON(ctx, c.client, c.safeURL(safe, "messages", pagination(limit, offset)), &page)
	return page, err
}

func (c *TransactionClient) GetDelegates(ctx context.Context, safe, delegate string) (Page[Delegate], error) {
	query := url.Values{}
	if safe != "" {
		query.Set("safe", safe)
	}
	if delegate != "" {
		query.Set("delegate", delegate)
	}
	var page Page[Delegate]
	err := getJSON(ctx, c.client, c.url("/api/v2/delegates/", query), &page)
	return page, err
}

func (c *TransactionClient) GetBalances(ctx context.Context, safe string, trusted, excludeSpam bool) ([]Balance, error) {
	query := url.Values{}
	query.Set("trusted", strconv.FormatBool(trusted))
	query.Set("exclude_spam", strconv.FormatBool(excludeSpam))
	var balances []Balance
	err := getJSON(ctx, c.client, c.safeURL(safe, "balances", query), &balances)
	return balances, err
}

func (c *TransactionClient) GetCollectibles(ctx context.Context, safe string, limit, offset int) (Page[Collectible], error) {
	var page Page[Collectible]
	path := fmt.Sprintf("/api/v2/safes/%s/collectibles/", url.PathEscape(safe))
	err := getJSON(ctx, c.client, c.url(path, pagination(limit, offset)), &page)
	return page, err
}

func (c *TransactionClient) safeURL(safe, resource string, query url.Values) string {
	return c.url(fmt.Sprintf("/api/v1/safes/%s/%s/", url.PathEscape(safe), resource), query)
}

func (c *TransactionClient) url(path string, query url.Values) string {
	if len(query) == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + query.Encode()
}

func pagination(limit, offset int) url.Values {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	return query
}
