package blockchain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

type rpcReq struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type rpcResp struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

const (
	okTxHash       = "0x1111111111111111111111111111111111111111111111111111111111111111"
	revertedTxHash = "0x9999999999999999999999999999999999999999999999999999999999999999"
)

func receiptJSON(hash, status string) map[string]interface{} {
	return map[string]interface{}{
		"transactionHash":   hash,
		"transactionIndex":  "0x0",
		"blockHash":         "0x2222222222222222222222222222222222222222222222222222222222222222",
		"blockNumber":       "0x1",
		"from":              "0x3333333333333333333333333333333333333333",
		"to":                "0x4444444444444444444444444444444444444444",
		"cumulativeGasUsed": "0x5208",
		"gasUsed":           "0x5208",
		"contractAddress":   nil,
		"logs":              []interface{}{},
		"logsBloom":         "0x" + strings.Repeat("0", 512),
		"status":            status,
		"effectiveGasPrice": "0x3b9aca00",
		"type":              "0x0",
	}
}

// newEVMRPCServer answers as Base Sepolia (0x14a34).
func newEVMRPCServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req rpcReq
		_ = json.NewDecoder(r.Body).Decode(&req)

		res := rpcResp{JSONRPC: "2.0", ID: req.ID}
		switch req.Method {
		case "eth_chainId":
			res.Result = "0x14a34"
		case "eth_call":
			if strings.Contains(string(req.Params), "70a08231") {
				res.Result = "0x00000000000000000000000000000000000000000000000000000000000003e8"
			} else {
				res.Result = "0x"
			}
		case "eth_getTransactionReceipt":
			if strings.Contains(string(req.Params), strings.TrimPrefix(revertedTxHash, "0x")) {
				res.Result = receiptJSON(revertedTxHash, "0x0")
			} else {
				res.Result = receiptJSON(okTxHash, "0x1")
			}
		default:
			res.Result = "0x0"
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
}

func TestEVMClient_Methods_WithMockRPC(t *testing.T) {
	srv := newEVMRPCServer(t)
	defer srv.Close()
	ctx := context.Background()

	client, err := NewEVMClient(ctx, srv.URL)
	require.NoError(t, err)
	defer client.Close()

	require.Equal(t, big.NewInt(84532), client.ChainID())

	bal, err := client.GetTokenBalance(ctx, "0x4444444444444444444444444444444444444444", "0x3333333333333333333333333333333333333333")
	require.NoError(t, err)
	require.Equal(t, "1000", bal.String())

	receipt, err := client.GetTransactionReceipt(ctx, okTxHash)
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.Status)

	want := Transfer{Token: "0x4444444444444444444444444444444444444444", To: "0x5555555555555555555555555555555555555555", Amount: big.NewInt(1)}

	// mined but without a matching Transfer log
	ok, err := client.VerifyTransfer(ctx, okTxHash, want)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = client.VerifyTransfer(ctx, revertedTxHash, want)
	require.NoError(t, err)
	require.False(t, ok)
}

func transferLog(token, from, to string, amount int64) *types.Log {
	return &types.Log{
		Address: common.HexToAddress(token),
		Topics: []common.Hash{
			transferEventID,
			common.BytesToHash(common.HexToAddress(from).Bytes()),
			common.BytesToHash(common.HexToAddress(to).Bytes()),
		},
		Data: common.LeftPadBytes(big.NewInt(amount).Bytes(), 32),
	}
}

func TestHasTransfer(t *testing.T) {
	const (
		token   = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
		creator = "0x1111111111111111111111111111111111111111"
		payer   = "0x2222222222222222222222222222222222222222"
	)
	want := Transfer{Token: token, To: creator, Amount: big.NewInt(50_000_000)}

	cases := []struct {
		name string
		logs []*types.Log
		ok   bool
	}{
		{"exact amount", []*types.Log{transferLog(token, payer, creator, 50_000_000)}, true},
		{"overpayment", []*types.Log{transferLog(token, payer, creator, 60_000_000)}, true},
		{"lowercase token address", []*types.Log{transferLog(strings.ToLower(token), payer, creator, 50_000_000)}, true},
		{"short amount", []*types.Log{transferLog(token, payer, creator, 49_999_999)}, false},
		{"other recipient", []*types.Log{transferLog(token, payer, payer, 50_000_000)}, false},
		{"other token", []*types.Log{transferLog("0x4444444444444444444444444444444444444444", payer, creator, 50_000_000)}, false},
		{"unrelated event", []*types.Log{{Address: common.HexToAddress(token), Topics: []common.Hash{{0x01}}}}, false},
		{"no logs", nil, false},
		{"second log matches", []*types.Log{
			transferLog(token, payer, payer, 1),
			transferLog(token, payer, creator, 50_000_000),
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.ok, hasTransfer(tc.logs, want))
		})
	}
}

func TestNewEVMClient_InvalidURL(t *testing.T) {
	_, err := NewEVMClient(context.Background(), "://bad-url")
	require.Error(t, err)
}

func TestEncodeTransfer(t *testing.T) {
	data, err := EncodeTransfer("0x00000000000000000000000000000000000000Ab", big.NewInt(50_000_000))
	require.NoError(t, err)
	require.Len(t, data, 4+32+32)
	// transfer(address,uint256)
	require.Equal(t, "a9059cbb", common.Bytes2Hex(data[:4]))
	require.Equal(t, common.LeftPadBytes(common.FromHex("0xab"), 32), data[4:36])
	require.Equal(t, big.NewInt(50_000_000), new(big.Int).SetBytes(data[36:]))

	_, err = EncodeTransfer("not-an-address", big.NewInt(1))
	require.Error(t, err)
	_, err = EncodeTransfer("0x00000000000000000000000000000000000000Ab", big.NewInt(-1))
	require.Error(t, err)
	_, err = EncodeTransfer("0x00000000000000000000000000000000000000Ab", nil)
	require.Error(t, err)
}

func TestAddressAndHashChecks(t *testing.T) {
	require.True(t, IsValidAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"))
	require.True(t, IsValidAddress("0x036cbd53842c5426634e7929541ec2318f3dcf7e"))
	require.False(t, IsValidAddress("0xABC"))
	require.False(t, IsValidAddress(""))

	require.True(t, IsValidTxHash(okTxHash))
	require.False(t, IsValidTxHash("0x1234"))
	require.False(t, IsValidTxHash(strings.TrimPrefix(okTxHash, "0x")))
	require.False(t, IsValidTxHash("0x"+strings.Repeat("zz", 32)))
}
