// Package btc provides the Bitcoin network client, transaction assembly,
// and signing.
package btc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/shopspring/decimal"

	"github.com/mrz1836/satsend/internal/chain"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

const (
	// defaultTimeout is the default HTTP request timeout.
	defaultTimeout = 30 * time.Second

	// defaultBaseURL is the default block explorer API URL.
	defaultBaseURL = "https://api.blockchain.info/haskoin-store/btc"
)

// Explorer endpoints, as rate-limit keys.
const (
	endpointBalance       = "balance"
	endpointUnspent       = "unspent"
	endpointFees          = "fees"
	endpointTicker        = "ticker"
	endpointOrders        = "orders"
	endpointTransactions  = "transactions"
	endpointBroadcast     = "broadcast"
	endpointNotifications = "notifications"
)

// defaultReadLimit is the shared budget for read endpoints.
var defaultReadLimit = chain.Limit{PerSecond: 5, Burst: 10}

// defaultEndpointLimits throttles the write-style endpoints harder than
// reads. Broadcast and notification re-registration happen at most a few
// times per session; the ticker feeds only the large-transaction check.
func defaultEndpointLimits() map[string]chain.Limit {
	return map[string]chain.Limit{
		endpointBroadcast:     {PerSecond: 1, Burst: 1},
		endpointNotifications: {PerSecond: 1, Burst: 2},
		endpointTicker:        {PerSecond: 2, Burst: 4},
	}
}

// ClientOptions contains optional configuration for the Bitcoin client.
type ClientOptions struct {
	// BaseURL overrides the default explorer API URL.
	BaseURL string

	// APIKey is the optional API key for higher rate limits.
	APIKey string

	// Params selects mainnet or testnet address encoding.
	Params *chaincfg.Params

	// RateLimits overrides the per-endpoint request budgets, keyed by
	// endpoint name. Unlisted endpoints keep their defaults.
	RateLimits map[string]chain.Limit
}

// Client provides Bitcoin blockchain operations against a block explorer
// backend. It implements every provider contract the send engine consumes.
type Client struct {
	baseURL    string
	apiKey     string
	params     *chaincfg.Params
	httpClient *http.Client
	limiter    *chain.RateLimiter
}

// NewClient creates a new Bitcoin client.
func NewClient(opts *ClientOptions) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		params:  &chaincfg.MainNetParams,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	limits := defaultEndpointLimits()
	if opts != nil {
		c.applyOptions(opts)
		for endpoint, l := range opts.RateLimits {
			limits[endpoint] = l
		}
	}
	c.limiter = chain.NewRateLimiter(defaultReadLimit, limits)

	return c
}

// balanceResponse is one per-address entry of the balance endpoint.
type balanceResponse struct {
	Address     string `json:"address"`
	Confirmed   int64  `json:"confirmed"`
	Unconfirmed int64  `json:"unconfirmed"`
}

// utxoResponse represents one explorer UTXO entry.
type utxoResponse struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"index"`
	Value         int64  `json:"value"`
	Address       string `json:"address"`
	Confirmations uint32 `json:"confirmations"`
}

// feeResponse is the mempool fee endpoint payload, in satoshis per byte.
type feeResponse struct {
	Regular  int64 `json:"regular"`
	Priority int64 `json:"priority"`
}

// Balance retrieves the aggregate balance across a set of addresses.
func (c *Client) Balance(ctx context.Context, addresses []string) (chain.Balance, error) {
	if len(addresses) == 0 {
		return chain.Balance{}, nil
	}

	var entries []balanceResponse
	endpoint := fmt.Sprintf("%s/address/balances?addresses=%s",
		c.baseURL, url.QueryEscape(strings.Join(addresses, ",")))
	if err := c.getJSON(ctx, endpointBalance, endpoint, &entries); err != nil {
		return chain.Balance{}, err
	}

	var balance chain.Balance
	for _, e := range entries {
		balance.Total += btcutil.Amount(e.Confirmed + e.Unconfirmed)
		balance.Spendable += btcutil.Amount(e.Confirmed + e.Unconfirmed)
		balance.Pending += btcutil.Amount(e.Unconfirmed)
	}
	return balance, nil
}

// Unspent returns the unspent outputs across a set of addresses. Derivation
// paths are unknown to the explorer; the caller annotates them from its own
// address map.
func (c *Client) Unspent(ctx context.Context, addresses []string) ([]chain.UTXO, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	var entries []utxoResponse
	endpoint := fmt.Sprintf("%s/address/unspent?addresses=%s",
		c.baseURL, url.QueryEscape(strings.Join(addresses, ",")))
	if err := c.getJSON(ctx, endpointUnspent, endpoint, &entries); err != nil {
		return nil, err
	}

	utxos := make([]chain.UTXO, 0, len(entries))
	for _, e := range entries {
		script, err := c.ScriptTypeOf(e.Address)
		if err != nil {
			return nil, fmt.Errorf("classifying unspent output %s:%d: %w", e.TxID, e.Vout, err)
		}
		utxos = append(utxos, chain.UTXO{
			TxID:          e.TxID,
			Vout:          e.Vout,
			Value:         btcutil.Amount(e.Value),
			Address:       e.Address,
			Script:        script,
			Confirmations: e.Confirmations,
		})
	}
	return utxos, nil
}

// FeeSchedule fetches the current network fee rates.
func (c *Client) FeeSchedule(ctx context.Context) (*chain.FeeSchedule, error) {
	var fees feeResponse
	endpoint := c.baseURL + "/mempool/fees"
	if err := c.getJSON(ctx, endpointFees, endpoint, &fees); err != nil {
		return nil, err
	}

	// The endpoint reports sat/byte; the schedule carries sat/kB.
	return &chain.FeeSchedule{
		RegularPerKB:  btcutil.Amount(fees.Regular * 1000),
		PriorityPerKB: btcutil.Amount(fees.Priority * 1000),
		FetchedAt:     time.Now().UTC(),
	}, nil
}

// FiatRate returns the fiat price of one BTC in the given currency.
func (c *Client) FiatRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	var ticker struct {
		Price decimal.Decimal `json:"last"`
	}
	endpoint := fmt.Sprintf("%s/ticker?currency=%s", c.baseURL, url.QueryEscape(currency))
	if err := c.getJSON(ctx, endpointTicker, endpoint, &ticker); err != nil {
		return decimal.Zero, err
	}
	return ticker.Price, nil
}

// CheckPendingOrders queries the trading backend's pending-order count and
// returns ErrPendingOrdersLimit once the cap is reached.
func (c *Client) CheckPendingOrders(ctx context.Context) error {
	var orders struct {
		Pending int `json:"pending"`
		Max     int `json:"max"`
	}
	endpoint := c.baseURL + "/orders/pending"
	if err := c.getJSON(ctx, endpointOrders, endpoint, &orders); err != nil {
		return err
	}

	if orders.Max > 0 && orders.Pending >= orders.Max {
		return satserr.WithDetails(satserr.ErrPendingOrdersLimit, map[string]string{
			"pending": fmt.Sprintf("%d", orders.Pending),
			"max":     fmt.Sprintf("%d", orders.Max),
		})
	}
	return nil
}

// Broadcast submits a signed raw transaction and returns its txid.
// Broadcasts are never retried: a timeout after submission leaves the
// transaction's fate unknown and a retry could double-spend against
// ourselves.
func (c *Client) Broadcast(ctx context.Context, rawTx []byte) (string, error) {
	if err := c.limiter.Wait(ctx, endpointBroadcast); err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]string{"tx": hex.EncodeToString(rawTx)})
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tx", strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", satserr.ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", satserr.WithDetails(satserr.ErrTxRejected, map[string]string{
			"status": fmt.Sprintf("%d", resp.StatusCode),
			"reason": strings.TrimSpace(string(body)),
		})
	}

	var result struct {
		TxID string `json:"txid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return result.TxID, nil
}

// ResyncAddresses re-registers the set of addresses the backend watches
// for incoming-transaction push notifications. Called after account
// lifecycle changes (archive, default change) so notifications keep
// working for the accounts that remain visible.
func (c *Client) ResyncAddresses(ctx context.Context, addresses []string) error {
	if err := c.limiter.Wait(ctx, endpointNotifications); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string][]string{"addresses": addresses})
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/notifications/addresses", strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", satserr.ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", satserr.ErrNetworkError, resp.StatusCode)
	}
	return nil
}

// ValidateAddress checks that an address parses for the client's network.
func (c *Client) ValidateAddress(address string) error {
	_, err := c.ScriptTypeOf(address)
	return err
}

// ScriptTypeOf decodes an address and reports its script template.
func (c *Client) ScriptTypeOf(address string) (chain.ScriptType, error) {
	if address == "" {
		return 0, satserr.ErrInvalidAddress
	}

	addr, err := btcutil.DecodeAddress(address, c.params)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", satserr.ErrInvalidAddress, address)
	}
	if !addr.IsForNet(c.params) {
		return 0, fmt.Errorf("%w: %s is for a different network", satserr.ErrInvalidAddress, address)
	}

	switch addr.(type) {
	case *btcutil.AddressPubKeyHash:
		return chain.ScriptP2PKH, nil
	case *btcutil.AddressWitnessPubKeyHash:
		return chain.ScriptP2WPKH, nil
	default:
		return 0, fmt.Errorf("%w: unsupported script for %s", satserr.ErrInvalidAddress, address)
	}
}

// getJSON performs a rate-limited GET with retry on transient failures and
// decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	_, err := chain.Retry(ctx, func() (struct{}, error) {
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return struct{}{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return struct{}{}, fmt.Errorf("creating request: %w", err)
		}
		c.authorize(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, chain.WrapRetryable(fmt.Errorf("%w: %w", satserr.ErrNetworkError, err))
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests:
			_, _ = io.Copy(io.Discard, resp.Body)
			retryAfter := chain.ParseRetryAfter(resp.Header.Get("Retry-After"))
			return struct{}{}, chain.RateLimited(endpoint, retryAfter)
		case resp.StatusCode >= http.StatusInternalServerError:
			_, _ = io.Copy(io.Discard, resp.Body)
			return struct{}{}, chain.WrapRetryable(
				fmt.Errorf("%w: status %d", satserr.ErrNetworkError, resp.StatusCode))
		default:
			_, _ = io.Copy(io.Discard, resp.Body)
			return struct{}{}, fmt.Errorf("%w: status %d", satserr.ErrNetworkError, resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, fmt.Errorf("decoding response: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// authorize attaches the API key when configured.
func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// applyOptions applies optional configuration.
func (c *Client) applyOptions(opts *ClientOptions) {
	if opts.BaseURL != "" {
		c.baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.APIKey != "" {
		c.apiKey = opts.APIKey
	}
	if opts.Params != nil {
		c.params = opts.Params
	}
}
