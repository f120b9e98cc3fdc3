package upstream

import (
	"encoding/json"
	"time"
)

type Safe struct {
	Address         string      `json:"address"`
	Nonce           json.Number `json:"nonce"`
	Threshold       int         `json:"threshold"`
	Owners          []string    `json:"owners"`
	MasterCopy      string      `json:"masterCopy"`
	Modules         []string    `json:"modules"`
	FallbackHandler string      `json:"fallbackHandler"`
	Guard           string      `json:"guard"`
	Version         *string     `json:"version"`
}

type Confirmation struct {
	Owner           string     `json:"owner"`
	SubmissionDate  *time.Time `json:"submissionDate,omitempty"`
	TransactionHash *string    `json:"transactionHash,omitempty"`
	Signature       *string    `json:"signature,omitempty"`
	SignatureType   string     `json:"signatureType,omitempty"`
}

type MultisigTransaction struct {
	Safe                  string         `json:"safe"`
	To                    string         `json:"to"`
	Value                 string         `json:"value"`
	Data                  *string        `json:"data"`
	Operation             int            `json:"operation"`
	Nonce                 json.Number    `json:"nonce"`
	SafeTxHash            string         `json:"safeTxHash"`
	TransactionHash       *string        `json:"transactionHash"`
	IsExecuted            bool           `json:"isExecuted"`
	IsSuccessful          *bool          `json:"isSuccessful"`
	ConfirmationsRequired int            `json:"confirmationsRequired"`
	Confirmations         []Confirmation `json:"confirmations"`
}

type MessageConfirmation struct {
	Owner         string    `json:"owner"`
	Signature     string    `json:"signature"`
	SignatureType string    `json:"signatureType"`
	Created       time.Time `json:"created"`
	Modified      time.Time `json:"modified"`
}

type Message struct {
	MessageHash       string                `json:"messageHash"`
	Safe              string                `json:"safe"`
	Message           json.RawMessage       `json:"message"`
	ProposedBy        string                `json:"proposedBy"`
	SafeAppID         *int                  `json:"safeAppId"`
	PreparedSignature *string               `json:"preparedSignature"`
	Confirmations     []MessageConfirmation `json:"confirmations"`
	Created           time.Time             `json:"created"`
	Modified          time.Time             `json:"modified"`
}

type Transfer struct {
	Type            string     `json:"type"`
	ExecutionDate   *time.Time `json:"executionDate"`
	BlockNumber     uint64     `json:"blockNumber"`
	TransactionHash string     `json:"transactionHash"`
	To              string     `json:"to"`
	From            string     `json:"from"`
	Value           *string    `json:"value"`
	TokenAddress    *string    `json:"tokenAddress"`
	TokenID         *string    `json:"tokenId"`
}

type Delegate struct {
	Safe       *string    `json:"safe"`
	Delegate   string     `json:"delegate"`
	Delegator  string     `json:"delegator"`
	Label      string     `json:"label"`
	ExpiryDate *time.Time `json:"expiryDate"`
}

type Balance struct {
	TokenAddress *string         `json:"tokenAddress"`
	Token        json.RawMessage `json:"token"`
	Balance      string          `json:"balance"`
}

type Collectible struct {
	Address     string          `json:"address"`
	TokenName   string          `json:"tokenName"`
	TokenSymbol string          `json:"tokenSymbol"`
	LogoURI     string          `json:"logoUri"`
	ID          string          `json:"id"`
	URI         *string         `json:"uri"`
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	ImageURI    *string         `json:"imageUri"`
	Metadata    json.RawMessage `json:"metadata"`
}

type RPCURI struct {
	Authentication string `json:"authentication"`
	Value          string `json:"value"`
}

type Chain struct {
	ChainID               string `json:"chainId"`
	ChainName             string `json:"chainName"`
	ShortName             string `json:"shortName"`
	L2                    bool   `json:"l2"`
	IsTestnet             bool   `json:"isTestnet"`
	TransactionService    string `json:"transactionService"`
	VpcTransactionService string `json:"vpcTransactionService"`
	RPCURI                RPCURI `json:"rpcUri"`
}

type SafeApp struct {
	ID          int      `json:"id"`
	URL         string   `json:"url"`
	Name        string   `json:"name"`
	IconURL     string   `json:"iconUrl"`
	Description string   `json:"description"`
	ChainIDs    []string `json:"chainIds"`
	Tags        []string `json:"tags"`
}

type Stake struct {
	ValidatorAddress             string  `json:"validator_address"`
	State                        string  `json:"state"`
	EffectiveBalance             string  `json:"effective_balance"`
	Rewards                      string  `json:"rewards"`
	NetClaimableConsensusRewards *string `json:"net_claimable_consensus_rewards"`
}
