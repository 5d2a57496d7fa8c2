package blockchain

import (
	"strings"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
)

// DefaultTokens lists the USDC deployments invoices can be paid in.
var DefaultTokens = []entities.Token{
	{ChainID: entities.ChainIDBaseSepolia, Symbol: "USDC", Address: "0x036CbD53842c5426634e7929541eC2318f3dCF7e", Decimals: 6},
	{ChainID: entities.ChainIDBase, Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
	{ChainID: entities.ChainIDEthereum, Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
	{ChainID: entities.ChainIDSepolia, Symbol: "USDC", Address: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", Decimals: 6},
}

// TokenRegistry resolves (chain, symbol) pairs to token contracts.
type TokenRegistry struct {
	tokens map[int64]map[string]entities.Token
}

func NewTokenRegistry(tokens []entities.Token) *TokenRegistry {
	r := &TokenRegistry{tokens: make(map[int64]map[string]entities.Token)}
	for _, t := range tokens {
		if r.tokens[t.ChainID] == nil {
			r.tokens[t.ChainID] = make(map[string]entities.Token)
		}
		r.tokens[t.ChainID][strings.ToUpper(t.Symbol)] = t
	}
	return r
}

// Lookup returns ErrUnsupportedChain or ErrUnsupportedToken when nothing matches.
func (r *TokenRegistry) Lookup(chainID int64, symbol string) (entities.Token, error) {
	byChain, ok := r.tokens[chainID]
	if !ok {
		return entities.Token{}, domainerrors.ErrUnsupportedChain
	}
	t, ok := byChain[strings.ToUpper(symbol)]
	if !ok {
		return entities.Token{}, domainerrors.ErrUnsupportedToken
	}
	return t, nil
}
