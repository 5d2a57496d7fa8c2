package entities

import "fmt"

// Well known EVM chain ids
const (
	ChainIDEthereum    int64 = 1
	ChainIDBase        int64 = 8453
	ChainIDBaseSepolia int64 = 84532
	ChainIDSepolia     int64 = 11155111
)

var chainNames = map[int64]string{
	ChainIDEthereum:    "Ethereum",
	ChainIDBase:        "Base",
	ChainIDBaseSepolia: "Base Sepolia",
	ChainIDSepolia:     "Sepolia",
}

// ChainName returns a display name for a chain id.
func ChainName(chainID int64) string {
	if name, ok := chainNames[chainID]; ok {
		return name
	}
	return fmt.Sprintf("Chain ID: %d", chainID)
}

// Token is an ERC20 token accepted for invoice payment on one chain.
type Token struct {
	ChainID  int64  `json:"chainId"`
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}
