//go:build integration

package test

const (
	// Test server configuration
	BaseURL = "http://localhost:8080"

	EventsPath = "/api/v1/hooks/events"

	// Test Safe on Ethereum mainnet
	TestChainID     = "1"
	TestSafeAddress = "0x0B8fA6F76eB75ae3a4ca28eb3020DFC4503F2136"
	TestSafeTxHash  = "0x5f1e8b6e9a4c1f2d3b0a9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2918070605"
)

// EventRequest represents the body of a hook event
type EventRequest struct {
	Type       string `json:"type"`
	ChainID    string `json:"chainId"`
	Address    string `json:"address,omitempty"`
	SafeTxHash string `json:"safeTxHash,omitempty"`
}

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
