package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20ABIJSON = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"Transfer","anonymous":false,
	 "inputs":[{"name":"from","type":"address","indexed":true},
	           {"name":"to","type":"address","indexed":true},
	           {"name":"value","type":"uint256","indexed":false}]}
]`

var (
	erc20ABI        = mustParseABI(erc20ABIJSON)
	transferEventID = erc20ABI.Events["Transfer"].ID
)

// Transfer is the ERC20 movement a settled payment must contain.
type Transfer struct {
	Token  string
	To     string
	Amount *big.Int
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// evmBackend is the subset of ethclient.Client the invoice flow needs.
type evmBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

var dialEVMClient = func(rpcURL string) (evmBackend, error) {
	return ethclient.Dial(rpcURL)
}

// EVMClient provides EVM blockchain interaction
type EVMClient struct {
	backend evmBackend
	chainID *big.Int
	rpcURL  string
}

// NewEVMClient creates a new EVM client
func NewEVMClient(ctx context.Context, rpcURL string) (*EVMClient, error) {
	backend, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &EVMClient{
		backend: backend,
		chainID: chainID,
		rpcURL:  rpcURL,
	}, nil
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GetTokenBalance gets the ERC20 token balance of an address
func (c *EVMClient) GetTokenBalance(ctx context.Context, tokenAddress, ownerAddress string) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", common.HexToAddress(ownerAddress))
	if err != nil {
		return nil, err
	}

	token := common.HexToAddress(tokenAddress)
	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	out, err := erc20ABI.Unpack("balanceOf", result)
	if err != nil {
		return nil, fmt.Errorf("decode balanceOf: %w", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode balanceOf: unexpected type %T", out[0])
	}
	return balance, nil
}

// GetTransactionReceipt gets transaction receipt
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	return c.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
}

// VerifyTransfer reports whether txHash was mined successfully and emitted a
// Transfer of at least want.Amount of want.Token to want.To.
func (c *EVMClient) VerifyTransfer(ctx context.Context, txHash string, want Transfer) (bool, error) {
	receipt, err := c.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return false, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return false, nil
	}
	return hasTransfer(receipt.Logs, want), nil
}

func hasTransfer(logs []*types.Log, want Transfer) bool {
	token := common.HexToAddress(want.Token)
	to := common.HexToAddress(want.To)
	for _, l := range logs {
		if l == nil || l.Address != token || len(l.Topics) != 3 || l.Topics[0] != transferEventID {
			continue
		}
		if common.BytesToAddress(l.Topics[2].Bytes()) != to || len(l.Data) != 32 {
			continue
		}
		if new(big.Int).SetBytes(l.Data).Cmp(want.Amount) >= 0 {
			return true
		}
	}
	return false
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.backend != nil {
		c.backend.Close()
	}
}

// EncodeTransfer ABI-encodes transfer(to, amount).
func EncodeTransfer(to string, amount *big.Int) ([]byte, error) {
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("invalid recipient address %q", to)
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid transfer amount")
	}
	return erc20ABI.Pack("transfer", common.HexToAddress(to), amount)
}

// IsValidAddress reports whether s is a 20-byte hex address.
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// IsValidTxHash reports whether s looks like a 32-byte transaction hash.
func IsValidTxHash(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	b := common.FromHex(s)
	return len(b) == common.HashLength && len(s) == 2+2*common.HashLength
}
