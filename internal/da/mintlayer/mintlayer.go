// Package mintlayer is a JSON-RPC client for the Mintlayer wallet daemon,
// grounded on the original Rust client's wallet_create/wallet_open/
// address_new/address_deposit_data call sequence. It exists purely to
// anchor IPFS hashes on-chain; it never interprets Mintlayer-side balances
// or UTXOs beyond what the RPC responses hand back.
package mintlayer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/zk-thunder/da-pipeline/internal/errs"
)

// Client is a minimal JSON-RPC 2.0 client over HTTP, with optional Basic
// auth, matching how the wallet daemon's RPC endpoint is normally fronted.
type Client struct {
	url      string
	username string
	password string
	http     *http.Client
}

// New builds a Client against the given RPC URL. Basic auth is sent only
// when both username and password are non-empty.
func New(url, username, password string) *Client {
	return &Client{url: url, username: username, password: password, http: http.DefaultClient}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return errs.Mintlayer(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errs.Mintlayer(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" && c.password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
		req.Header.Set("Authorization", "Basic "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Mintlayer(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.Mintlayerf("rpc %s returned status %d", method, resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return errs.Mintlayer(err)
	}
	if rr.Error != nil {
		return errs.Mintlayerf("rpc %s failed: %s (code %d)", method, rr.Error.Message, rr.Error.Code)
	}
	if rr.Result == nil {
		return errs.Mintlayerf("rpc %s returned no result", method)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return errs.Mintlayer(err)
	}
	return nil
}

// WalletCreate creates a new wallet at path from a mnemonic.
func (c *Client) WalletCreate(ctx context.Context, path, mnemonic string) error {
	params := map[string]any{
		"path":              path,
		"store_seed_phrase": true,
		"mnemonic":          mnemonic,
	}
	return c.call(ctx, "wallet_create", params, nil)
}

// WalletOpen opens an existing wallet file.
func (c *Client) WalletOpen(ctx context.Context, path string) error {
	return c.call(ctx, "wallet_open", map[string]any{"path": path}, nil)
}

// AddressNew requests a fresh receive address from the open wallet's
// default account.
func (c *Client) AddressNew(ctx context.Context) (string, error) {
	var out struct {
		Address string `json:"address"`
	}
	if err := c.call(ctx, "address_new", map[string]any{"account": 0}, &out); err != nil {
		return "", err
	}
	return out.Address, nil
}

// AddressDepositData anchors data on-chain by attaching it to a zero-value
// output on the wallet's default account, returning the resulting
// transaction hash.
func (c *Client) AddressDepositData(ctx context.Context, data []byte) (string, error) {
	params := map[string]any{
		"data":    hex.EncodeToString(data),
		"account": 0,
		"options": map[string]any{},
	}
	var txHash string
	if err := c.call(ctx, "address_deposit_data", params, &txHash); err != nil {
		return "", err
	}
	if txHash == "" {
		return "", errs.Mintlayerf("address_deposit_data returned empty tx_hash")
	}
	return txHash, nil
}

// BootstrapSummary records the outcome of each best-effort RPC call
// BootstrapWallet fires at startup. Unlike the original client (which fired
// these three calls and silently discarded any failure), every error is
// captured here instead of dropped, so an operator can see a failed
// wallet_open/address_new in logs without the startup sequence itself
// blocking or failing.
type BootstrapSummary struct {
	WalletCreateErr error
	WalletOpenErr   error
	AddressNewErr   error
	Address         string
}

// BootstrapWallet fires wallet_create (only when mnemonic is non-empty),
// wallet_open, then address_new, in that order, exactly as the original
// client does at startup. Every call is attempted regardless of whether an
// earlier one failed; no error here aborts process startup.
func (c *Client) BootstrapWallet(ctx context.Context, walletPath, mnemonic string) BootstrapSummary {
	var s BootstrapSummary
	if mnemonic != "" {
		s.WalletCreateErr = c.WalletCreate(ctx, walletPath, mnemonic)
	}
	s.WalletOpenErr = c.WalletOpen(ctx, walletPath)
	s.Address, s.AddressNewErr = c.AddressNew(ctx)
	return s
}
