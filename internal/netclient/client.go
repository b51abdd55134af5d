// Package netclient is the node API client: block, transaction and program
// lookups plus unspent-record discovery.
package netclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/Klingon-tech/aleo-netclient/internal/account"
	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	klog "github.com/Klingon-tech/aleo-netclient/internal/log"
	"github.com/Klingon-tech/aleo-netclient/internal/rpcclient"
	"github.com/Klingon-tech/aleo-netclient/internal/scanner"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
)

// Client talks to one node at <host>/<network>.
type Client struct {
	host    string
	network string
	rpc     *rpcclient.Client
	scanner *scanner.Scanner

	mu      sync.RWMutex
	account *account.Account
}

// New creates a client for host, e.g. "https://api.explorer.aleo.org/v1".
func New(host string, opts ...Option) *Client {
	s := settings{
		network: DefaultNetwork,
		scan:    scanner.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.metrics != nil {
		s.scan.Metrics = s.metrics
	}

	host = strings.TrimRight(host, "/")
	c := &Client{
		host:    host,
		network: s.network,
		rpc: rpcclient.NewWithOptions(host+"/"+s.network, rpcclient.Options{
			Timeout:    s.timeout,
			Retries:    s.retries,
			RetryDelay: s.retryDelay,
			HTTPClient: s.httpClient,
			Metrics:    s.metrics,
		}),
	}
	c.scanner = scanner.New(c, s.scan)

	nlog := klog.WithNetwork(s.network)
	nlog.Debug().Str("host", host).Msg("Client created")
	return c
}

// Host returns the node host without the network segment.
func (c *Client) Host() string { return c.host }

// Network returns the network path segment.
func (c *Client) Network() string { return c.network }

// Scanner returns the scanner behind FindUnspentRecords.
func (c *Client) Scanner() *scanner.Scanner { return c.scanner }

// SetAccount associates acct with the client. It is used by key-dependent
// operations called without explicit key material. Nil clears it.
func (c *Client) SetAccount(acct *account.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = acct
}

// Account returns the associated account, or nil.
func (c *Client) Account() *account.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

// GetBlock returns the block at height.
func (c *Client) GetBlock(ctx context.Context, height int64) (*types.Block, error) {
	var b types.Block
	if err := c.rpc.Get(ctx, fmt.Sprintf("/block/%d", height), &b); err != nil {
		return nil, apierr.Fetchf(err, "Error fetching block.")
	}
	return &b, nil
}

// GetBlockRange returns the blocks in [start, end), ascending. The range is
// validated locally.
func (c *Client) GetBlockRange(ctx context.Context, start, end int64) ([]types.Block, error) {
	if err := scanner.ValidateRange(start, end); err != nil {
		return nil, err
	}
	var blocks []types.Block
	if err := c.rpc.Get(ctx, fmt.Sprintf("/blocks?start=%d&end=%d", start, end), &blocks); err != nil {
		return nil, apierr.Fetchf(err, "Error fetching blocks between %d and %d.", start, end)
	}
	return blocks, nil
}

// GetLatestBlock returns the chain tip.
func (c *Client) GetLatestBlock(ctx context.Context) (*types.Block, error) {
	var b types.Block
	if err := c.rpc.Get(ctx, "/latest/block", &b); err != nil {
		return nil, apierr.Fetchf(err, "Error fetching latest block.")
	}
	return &b, nil
}

// GetLatestHash returns the hash of the chain tip.
func (c *Client) GetLatestHash(ctx context.Context) (string, error) {
	var hash string
	if err := c.rpc.Get(ctx, "/latest/hash", &hash); err != nil {
		return "", apierr.Fetchf(err, "Error fetching latest hash.")
	}
	return hash, nil
}

// GetLatestHeight returns the height of the chain tip.
func (c *Client) GetLatestHeight(ctx context.Context) (int64, error) {
	var height int64
	if err := c.rpc.Get(ctx, "/latest/height", &height); err != nil {
		return 0, apierr.Fetchf(err, "Error fetching latest height.")
	}
	return height, nil
}

// GetStateRoot returns the latest global state root.
func (c *Client) GetStateRoot(ctx context.Context) (string, error) {
	var root string
	if err := c.rpc.Get(ctx, "/latest/stateRoot", &root); err != nil {
		return "", apierr.Fetchf(err, "Error fetching Aleo state root.")
	}
	return root, nil
}

// GetTransaction returns a transaction by ID.
func (c *Client) GetTransaction(ctx context.Context, id string) (*types.Transaction, error) {
	var tx types.Transaction
	if err := c.rpc.Get(ctx, "/transaction/"+url.PathEscape(id), &tx); err != nil {
		return nil, apierr.Fetchf(err, "Error fetching transaction.")
	}
	return &tx, nil
}

// GetTransactions returns the confirmed transactions of the block at height.
func (c *Client) GetTransactions(ctx context.Context, height int64) ([]types.ConfirmedTransaction, error) {
	var txs []types.ConfirmedTransaction
	if err := c.rpc.Get(ctx, fmt.Sprintf("/block/%d/transactions", height), &txs); err != nil {
		return nil, apierr.Fetchf(err, "Error fetching transactions.")
	}
	return txs, nil
}

// GetTransitionID returns the ID of the transition that took inputID (an
// input ID or a record serial number) as input.
func (c *Client) GetTransitionID(ctx context.Context, inputID string) (string, error) {
	var id string
	if err := c.rpc.Get(ctx, "/find/transitionID/"+url.PathEscape(inputID), &id); err != nil {
		return "", apierr.Fetchf(err, "Error fetching transition ID.")
	}
	return id, nil
}

// GetProgram returns the source of a deployed program.
func (c *Client) GetProgram(ctx context.Context, programID string) (string, error) {
	var source string
	if err := c.rpc.Get(ctx, "/program/"+url.PathEscape(programID), &source); err != nil {
		return "", apierr.Fetchf(err, "Error fetching program")
	}
	return source, nil
}

// GetProgramMappingNames returns the mapping names a program declares.
func (c *Client) GetProgramMappingNames(ctx context.Context, programID string) ([]string, error) {
	var names []string
	if err := c.rpc.Get(ctx, "/program/"+url.PathEscape(programID)+"/mappings", &names); err != nil {
		return nil, apierr.Fetchf(err, "Error fetching program mappings")
	}
	return names, nil
}

// GetMappingValue returns the value stored under key in a program mapping.
// An absent key yields "" and no error.
func (c *Client) GetMappingValue(ctx context.Context, programID, mapping, key string) (string, error) {
	var value *string
	path := fmt.Sprintf("/program/%s/mapping/%s/%s", url.PathEscape(programID), url.PathEscape(mapping), url.PathEscape(key))
	if err := c.rpc.Get(ctx, path, &value); err != nil {
		return "", apierr.Fetchf(err, "Error fetching mapping value")
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

// FindUnspentRecords scans [start, end) for unspent records owned by
// privateKey. An empty privateKey uses the associated account.
// See scanner.Scanner.Scan for ordering and filter semantics.
func (c *Client) FindUnspentRecords(ctx context.Context, start, end int64, privateKey string, amounts []uint64, maxAmount *uint64) ([]scanner.Record, error) {
	req := scanner.Request{
		Start:      start,
		End:        end,
		PrivateKey: privateKey,
		Amounts:    amounts,
		MaxAmount:  maxAmount,
	}
	if privateKey == "" {
		req.Account = c.Account()
	}
	return c.scanner.Scan(ctx, req)
}

// FindUnspentRecordsToTip scans from start through the current chain tip.
// Range and key are checked before the tip is requested.
func (c *Client) FindUnspentRecordsToTip(ctx context.Context, start int64, privateKey string, amounts []uint64, maxAmount *uint64) ([]scanner.Record, error) {
	if start < 0 {
		return nil, &apierr.InvalidRangeError{Start: start, End: start}
	}
	acct := c.Account()
	if privateKey != "" || acct == nil {
		var err error
		if acct, err = account.FromPrivateKey(privateKey); err != nil {
			return nil, err
		}
	}

	tip, err := c.GetLatestHeight(ctx)
	if err != nil {
		return nil, err
	}
	return c.scanner.Scan(ctx, scanner.Request{
		Start:     start,
		End:       tip + 1,
		Account:   acct,
		Amounts:   amounts,
		MaxAmount: maxAmount,
	})
}
