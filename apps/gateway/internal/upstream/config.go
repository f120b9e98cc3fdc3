package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// ConfigService serves chain and Safe App configuration.
type ConfigService interface {
	GetChain(ctx context.Context, chainID string) (Chain, error)
	GetSafeApps(ctx context.Context, chainID string) ([]SafeApp, error)
}

type ConfigClient struct {
	baseURL string
	client  *http.Client
}

func NewConfigClient(baseURL string, client *http.Client) *ConfigClient {
	return &ConfigClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *ConfigClient) GetChain(ctx context.Context, chainID string) (Chain, error) {
	var chain Chain
	err := getJSON(ctx, c.client, c.baseURL+"/api/v1/chains/"+url.PathEscape(chainID)+"/", &chain)
	return chain, err
}

func (c *ConfigClient) GetSafeApps(ctx context.Context, chainID string) ([]SafeApp, error) {
	query := url.Values{}
	query.Set("chainId", chainID)
	var apps []SafeApp
	err := getJSON(ctx, c.client, c.baseURL+"/api/v1/safe-apps/?"+query.Encode(), &apps)
	return apps, err
}
