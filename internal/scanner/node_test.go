package scanner

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	"github.com/Klingon-tech/aleo-netclient/internal/record"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
	"github.com/stretchr/testify/require"
)

// fakeNode serves blocks [0, tip) from memory and records every request.
type fakeNode struct {
	mu sync.Mutex

	tip       int64
	txs       map[int64][]types.ConfirmedTransaction
	pageDelay func(start int64) time.Duration
	// mangle lets a test corrupt a page before it is returned.
	mangle func(start, end int64, blocks []types.Block) []types.Block

	spent         map[string]bool
	transitionErr error

	rangeCalls      int
	heightsFetched  map[int64]int
	transitionCalls int
}

func newFakeNode(tip int64) *fakeNode {
	return &fakeNode{
		tip:            tip,
		txs:            make(map[int64][]types.ConfirmedTransaction),
		spent:          make(map[string]bool),
		heightsFetched: make(map[int64]int),
	}
}

func (n *fakeNode) GetBlockRange(ctx context.Context, start, end int64) ([]types.Block, error) {
	n.mu.Lock()
	n.rangeCalls++
	for h := start; h < end; h++ {
		n.heightsFetched[h]++
	}
	delay := n.pageDelay
	n.mu.Unlock()

	if delay != nil {
		select {
		case <-time.After(delay(start)):
		case <-ctx.Done():
			return nil, apierr.Fetchf(apierr.AsTimeout(ctx, "GET /blocks", ctx.Err()), "Error fetching blocks between %d and %d.", start, end)
		}
	}

	if end > n.tip {
		return nil, apierr.Fetchf(&apierr.StatusError{Code: http.StatusNotFound}, "Error fetching blocks between %d and %d.", start, end)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	blocks := make([]types.Block, 0, end-start)
	for h := start; h < end; h++ {
		blocks = append(blocks, types.Block{
			Header:       types.Header{Metadata: types.Metadata{Height: uint64(h)}},
			Transactions: n.txs[h],
		})
	}
	if n.mangle != nil {
		blocks = n.mangle(start, end, blocks)
	}
	return blocks, nil
}

func (n *fakeNode) GetTransitionID(_ context.Context, id string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitionCalls++
	if n.transitionErr != nil {
		return "", n.transitionErr
	}
	if n.spent[id] {
		return "au1spender", nil
	}
	return "", apierr.Fetchf(&apierr.StatusError{Code: http.StatusNotFound}, "Error fetching transition ID.")
}

func (n *fakeNode) addTx(height int64, tx types.ConfirmedTransaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.txs[height] = append(n.txs[height], tx)
}

func (n *fakeNode) fetchCounts() (calls int, heights map[int64]int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	heights = make(map[int64]int, len(n.heightsFetched))
	for h, c := range n.heightsFetched {
		heights[h] = c
	}
	return n.rangeCalls, heights
}

// recordOutput encrypts a credits record of amount to owner.
func recordOutput(t *testing.T, owner types.Address, amount uint64) types.Output {
	t.Helper()
	ct, err := record.ECDHCipher{}.Encrypt(owner, types.RecordPlaintext{Microcredits: amount})
	require.NoError(t, err)
	return types.Output{Type: types.ValueTypeRecord, ID: "commitment", Value: ct}
}

// executeTx wraps outputs in an accepted credits.aleo execution.
func executeTx(id, program string, outputs ...types.Output) types.ConfirmedTransaction {
	return types.ConfirmedTransaction{
		Status: types.TxStatusAccepted,
		Type:   types.TxTypeExecute,
		Transaction: types.Transaction{
			Type: types.TxTypeExecute,
			ID:   id,
			Execution: &types.Execution{Transitions: []types.Transition{{
				ID:       "au1" + id,
				Program:  program,
				Function: "transfer_private",
				Outputs:  outputs,
			}}},
		},
	}
}
