package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// StakingService lists native staking positions of wallets.
type StakingService interface {
	GetStakes(ctx context.Context, wallets []string) ([]Stake, error)
}

type StakingClient struct {
	baseURL string
	client  *http.Client
}

func NewStakingClient(baseURL string, client *http.Client) *StakingClient {
	return &StakingClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *StakingClient) GetStakes(ctx context.Context, wallets []string) ([]Stake, error) {
	query := url.Values{}
	query.Set("wallets", strings.Join(wallets, ","))
	var resp struct {
		Data []Stake `json:"data"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/v1/eth/stakes?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
