package onchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRPCClient is a minimal JSON-RPC client for the read-only checks the
// coordinator needs alongside the signed instruction path in client.go:
// wallet format validation, balance lookups, and the transaction
// confirmation check the duel resolver runs before settling a dispatch.
type RawRPCClient struct {
	rpcURL     string
	httpClient *http.Client
}

type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewRawRPCClient(rpcURL string) *RawRPCClient {
	return &RawRPCClient{
		rpcURL: rpcURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *RawRPCClient) call(ctx context.Context, method string, params []interface{}) (*rpcResponse, error) {
	reqBody, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.rpcURL, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error: %s (code %d)", rpcResp.Error.Message, rpcResp.Error.Code)
	}
	return &rpcResp, nil
}

// ValidateWalletAddress checks the shape of a base58 Solana address without
// a round trip to the cluster.
func (c *RawRPCClient) ValidateWalletAddress(address string) bool {
	if len(address) < 32 || len(address) > 44 {
		return false
	}
	const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	for _, ch := range address {
		if !strings.ContainsRune(alphabet, ch) {
			return false
		}
	}
	return true
}

// GetSOLBalance returns the native balance of a wallet in SOL.
func (c *RawRPCClient) GetSOLBalance(ctx context.Context, walletAddress string) (decimal.Decimal, error) {
	resp, err := c.call(ctx, "getBalance", []interface{}{walletAddress, map[string]string{"commitment": "confirmed"}})
	if err != nil {
		return decimal.Zero, err
	}
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return decimal.Zero, fmt.Errorf("parse balance: %w", err)
	}
	return decimal.NewFromInt(int64(result.Value)).Div(decimal.NewFromInt(1_000_000_000)), nil
}

// GetTokenBalance returns a wallet's balance of a given SPL mint (used for
// the PUMP currency leg of duels and pool liquidity provisioning).
func (c *RawRPCClient) GetTokenBalance(ctx context.Context, walletAddress, mintAddress string) (decimal.Decimal, error) {
	resp, err := c.call(ctx, "getTokenAccountsByOwner", []interface{}{
		walletAddress,
		map[string]interface{}{"mint": mintAddress},
		map[string]string{"encoding": "jsonParsed"},
	})
	if err != nil {
		return decimal.Zero, err
	}

	var result struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							TokenAmount struct {
								UiAmount float64 `json:"uiAmount"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return decimal.Zero, fmt.Errorf("parse token balance: %w", err)
	}
	if len(result.Value) == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromFloat(result.Value[0].Account.Data.Parsed.Info.TokenAmount.UiAmount), nil
}

// GetCurrentSlot returns the cluster's current slot.
func (c *RawRPCClient) GetCurrentSlot(ctx context.Context) (uint64, error) {
	resp, err := c.call(ctx, "getSlot", []interface{}{map[string]string{"commitment": "confirmed"}})
	if err != nil {
		return 0, err
	}
	var slot uint64
	if err := json.Unmarshal(resp.Result, &slot); err != nil {
		return 0, fmt.Errorf("parse slot: %w", err)
	}
	return slot, nil
}

// GetTransactionStatus reports whether a transaction landed successfully and
// how many slots have confirmed it since.
func (c *RawRPCClient) GetTransactionStatus(ctx context.Context, signature string) (ok bool, confirmations int, err error) {
	resp, err := c.call(ctx, "getTransaction", []interface{}{
		signature,
		map[string]interface{}{"encoding": "json", "maxSupportedTransactionVersion": 0},
	})
	if err != nil {
		return false, 0, err
	}
	if resp.Result == nil || string(resp.Result) == "null" {
		return false, 0, nil
	}

	var result struct {
		Slot uint64 `json:"slot"`
		Meta struct {
			Err interface{} `json:"err"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return false, 0, fmt.Errorf("parse transaction: %w", err)
	}

	currentSlot, err := c.GetCurrentSlot(ctx)
	if err != nil {
		return false, 0, err
	}

	return result.Meta.Err == nil, int(currentSlot - result.Slot), nil
}

// VerifyTransaction reports whether signature landed successfully and has
// accrued at least requiredConfirmations slots. It makes one check; the duel
// resolver calls it repeatedly until it succeeds or the resolver's timeout
// elapses.
func (c *RawRPCClient) VerifyTransaction(ctx context.Context, signature string, requiredConfirmations int) (bool, error) {
	ok, confirmations, err := c.GetTransactionStatus(ctx, signature)
	if err != nil {
		return false, err
	}
	return ok && confirmations >= requiredConfirmations, nil
}
