package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
)

// ClientFactory caches one EVM client per chain
type ClientFactory struct {
	rpcURLs map[int64]string
	clients map[int64]*EVMClient
	mu      sync.RWMutex
}

// NewClientFactory creates a new client factory for the configured RPC endpoints
func NewClientFactory(rpcURLs map[int64]string) *ClientFactory {
	urls := make(map[int64]string, len(rpcURLs))
	for id, url := range rpcURLs {
		urls[id] = url
	}
	return &ClientFactory{
		rpcURLs: urls,
		clients: make(map[int64]*EVMClient),
	}
}

// GetEVMClient returns a client for chainID, dialing it on first use
func (f *ClientFactory) GetEVMClient(ctx context.Context, chainID int64) (*EVMClient, error) {
	f.mu.RLock()
	client, ok := f.clients[chainID]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if client, ok := f.clients[chainID]; ok {
		return client, nil
	}

	rpcURL, ok := f.rpcURLs[chainID]
	if !ok || rpcURL == "" {
		return nil, fmt.Errorf("no rpc url configured for chain %d", chainID)
	}

	newClient, err := NewEVMClient(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create EVM client: %w", err)
	}
	if newClient.ChainID().Int64() != chainID {
		newClient.Close()
		return nil, fmt.Errorf("rpc url for chain %d reports chain %s", chainID, newClient.ChainID())
	}

	f.clients[chainID] = newClient
	return newClient, nil
}

// RegisterEVMClient injects/overrides the cached client for a chain.
// Useful for deterministic unit tests.
func (f *ClientFactory) RegisterEVMClient(chainID int64, client *EVMClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[chainID] = client
}

// VerifyTransfer checks the receipt of txHash on chainID for the expected transfer.
func (f *ClientFactory) VerifyTransfer(ctx context.Context, chainID int64, txHash string, want Transfer) (bool, error) {
	client, err := f.GetEVMClient(ctx, chainID)
	if err != nil {
		return false, err
	}
	return client.VerifyTransfer(ctx, txHash, want)
}

// TokenBalance reads the ERC20 balance of owner on chainID.
func (f *ClientFactory) TokenBalance(ctx context.Context, chainID int64, tokenAddress, owner string) (*big.Int, error) {
	client, err := f.GetEVMClient(ctx, chainID)
	if err != nil {
		return nil, err
	}
	return client.GetTokenBalance(ctx, tokenAddress, owner)
}

// Close closes every cached client
func (f *ClientFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.clients {
		c.Close()
		delete(f.clients, id)
	}
}
