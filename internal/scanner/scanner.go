// Package scanner discovers unspent records owned by a key across a range of
// blocks.
//
// A scan validates its inputs before touching the network, walks the range
// through a Fetcher in ascending height order, decrypts every record output
// with the account's view key and keeps the owned, unspent records that pass
// the amount filters.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/aleo-netclient/internal/account"
	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	klog "github.com/Klingon-tech/aleo-netclient/internal/log"
	"github.com/Klingon-tech/aleo-netclient/internal/metrics"
	"github.com/Klingon-tech/aleo-netclient/internal/record"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
)

// BlockSource is the node surface a scan needs.
type BlockSource interface {
	RangeSource
	// GetTransitionID returns the transition that consumed the given input
	// or serial number. A 404 FetchError means no transition did.
	GetTransitionID(ctx context.Context, inputID string) (string, error)
}

// Options configures a Scanner.
type Options struct {
	// Program restricts the scan to transitions of one program. Empty means
	// every program.
	Program string
	// PageSize and Concurrency tune the Fetcher.
	PageSize    int
	Concurrency int
	// Timeout bounds a whole scan. Zero means only the caller's context.
	Timeout time.Duration
	// SkipSpentCheck returns owned records without asking the node whether
	// their serial numbers were revealed.
	SkipSpentCheck bool
	// Cipher decrypts record ciphertexts. Nil means record.ECDHCipher.
	Cipher  record.Cipher
	Metrics *metrics.Metrics
}

// DefaultOptions scans credits.aleo records with the default fetch settings.
func DefaultOptions() Options {
	return Options{
		Program:     types.CreditsProgram,
		PageSize:    DefaultPageSize,
		Concurrency: DefaultConcurrency,
	}
}

// Request is a single scan. Either PrivateKey or Account must be set;
// Account wins when both are.
type Request struct {
	Start      int64
	End        int64
	PrivateKey string
	Account    *account.Account
	// Amounts keeps only records whose amount is in the set. Empty means no
	// membership filter.
	Amounts []uint64
	// MaxAmount keeps only records whose amount is <= *MaxAmount.
	MaxAmount *uint64
}

// Record is an owned, unspent record together with where it was found.
type Record struct {
	Plaintext     types.RecordPlaintext `json:"plaintext"`
	Height        uint64                `json:"height"`
	TransactionID string                `json:"transaction_id"`
	TransitionID  string                `json:"transition_id"`
	Program       string                `json:"program"`
	Function      string                `json:"function"`
	Commitment    string                `json:"commitment"`
	Ciphertext    string                `json:"ciphertext"`
	SerialNumber  string                `json:"serial_number"`
}

// Amount returns the record's microcredits.
func (r *Record) Amount() uint64 {
	return r.Plaintext.Microcredits
}

// Scanner runs scans against a BlockSource. It holds no per-scan state and
// is safe for concurrent use.
type Scanner struct {
	src     BlockSource
	fetcher *Fetcher
	opts    Options
}

// New creates a scanner over src.
func New(src BlockSource, opts Options) *Scanner {
	if opts.Cipher == nil {
		opts.Cipher = record.ECDHCipher{}
	}
	return &Scanner{
		src:     src,
		fetcher: NewFetcher(src, opts.PageSize, opts.Concurrency),
		opts:    opts,
	}
}

// ValidateRange checks that [start, end) is a non-empty, non-negative
// half-open range. It performs no I/O.
func ValidateRange(start, end int64) error {
	if start < 0 || end <= start {
		return &apierr.InvalidRangeError{Start: start, End: end}
	}
	return nil
}

// Scan returns the records owned by the request's key in [Start, End), in
// discovery order: ascending height, then transaction, transition and output
// order. A range with no matches yields an empty, non-nil slice.
func (s *Scanner) Scan(ctx context.Context, req Request) ([]Record, error) {
	if err := ValidateRange(req.Start, req.End); err != nil {
		return nil, err
	}
	acct := req.Account
	if acct == nil {
		var err error
		if acct, err = account.FromPrivateKey(req.PrivateKey); err != nil {
			return nil, err
		}
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	logger := klog.Scanner.With().
		Int64("start", req.Start).
		Int64("end", req.End).
		Str("address", acct.Address().String()).
		Logger()
	logger.Info().Msg("Scanning for unspent records")
	started := time.Now()

	sc := &scan{
		Scanner: s,
		acct:    acct,
		filter:  newAmountFilter(req.Amounts, req.MaxAmount),
		seen:    make(map[string]struct{}),
		found:   make([]Record, 0),
	}
	err := s.fetcher.Each(ctx, req.Start, req.End, func(b *types.Block) error {
		return sc.block(ctx, b)
	})
	if err != nil {
		err = apierr.AsTimeout(ctx, fmt.Sprintf("scan [%d, %d)", req.Start, req.End), err)
		s.opts.Metrics.ScanFinished(err)
		logger.Warn().Err(err).Msg("Scan failed")
		return nil, err
	}

	s.opts.Metrics.ScanFinished(nil)
	logger.Info().
		Int("found", len(sc.found)).
		Dur("took", time.Since(started)).
		Msg("Scan complete")
	return sc.found, nil
}

// scan is the state of one Scan call.
type scan struct {
	*Scanner
	acct   *account.Account
	filter amountFilter
	seen   map[string]struct{}
	found  []Record
}

func (sc *scan) block(ctx context.Context, b *types.Block) error {
	sc.opts.Metrics.BlockScanned()
	for i := range b.Transactions {
		confirmed := &b.Transactions[i]
		for _, tr := range transitionsOf(confirmed) {
			if sc.opts.Program != "" && tr.Program != sc.opts.Program {
				continue
			}
			for _, out := range tr.Outputs {
				if !out.IsRecord() {
					continue
				}
				rec, ok, err := sc.candidate(ctx, b, &confirmed.Transaction, &tr, out)
				if err != nil {
					return err
				}
				if ok {
					sc.found = append(sc.found, rec)
					sc.opts.Metrics.RecordFound()
				}
			}
		}
	}
	return nil
}

// transitionsOf returns the transitions whose outputs exist on chain. A
// rejected transaction only keeps its fee transition.
func transitionsOf(confirmed *types.ConfirmedTransaction) []types.Transition {
	tx := &confirmed.Transaction
	if confirmed.Status == types.TxStatusRejected {
		if tx.Fee != nil && tx.Fee.Transition != nil {
			return []types.Transition{*tx.Fee.Transition}
		}
		return nil
	}
	return tx.Transitions()
}

// candidate decides whether one record output belongs in the result.
// Only a failed spent lookup is an error.
func (sc *scan) candidate(ctx context.Context, b *types.Block, tx *types.Transaction, tr *types.Transition, out types.Output) (Record, bool, error) {
	outcome := sc.opts.Cipher.Decrypt(out.Value, sc.acct.ViewKey())
	switch outcome.Status {
	case record.NotOwned:
		sc.opts.Metrics.RecordSkipped("not_owned")
		return Record{}, false, nil
	case record.Malformed:
		klog.Scanner.Debug().
			Uint64("height", b.Height()).
			Str("transition", tr.ID).
			Err(outcome.Err).
			Msg("Skipping malformed record")
		sc.opts.Metrics.RecordSkipped("malformed")
		return Record{}, false, nil
	}

	pt := outcome.Record
	key := pt.Nonce
	if key == "" {
		key = out.Value
	}
	if _, dup := sc.seen[key]; dup {
		sc.opts.Metrics.RecordSkipped("duplicate")
		return Record{}, false, nil
	}
	sc.seen[key] = struct{}{}

	if !sc.filter.match(pt.Microcredits) {
		sc.opts.Metrics.RecordSkipped("filtered")
		return Record{}, false, nil
	}

	serial, err := record.SerialNumber(sc.acct.PrivateKey(), out.Value)
	if err != nil {
		// A custom Cipher may accept payloads the serial derivation cannot read.
		sc.opts.Metrics.RecordSkipped("malformed")
		return Record{}, false, nil
	}

	if !sc.opts.SkipSpentCheck {
		spent, err := sc.spent(ctx, serial)
		if err != nil {
			return Record{}, false, err
		}
		if spent {
			sc.opts.Metrics.RecordSkipped("spent")
			return Record{}, false, nil
		}
	}

	return Record{
		Plaintext:     *pt,
		Height:        b.Height(),
		TransactionID: tx.ID,
		TransitionID:  tr.ID,
		Program:       tr.Program,
		Function:      tr.Function,
		Commitment:    out.ID,
		Ciphertext:    out.Value,
		SerialNumber:  serial,
	}, true, nil
}

// spent reports whether a transition consumed serial. A 404 means unspent.
func (sc *scan) spent(ctx context.Context, serial string) (bool, error) {
	_, err := sc.src.GetTransitionID(ctx, serial)
	switch {
	case err == nil:
		return true, nil
	case apierr.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// amountFilter combines the membership set and the threshold with AND.
type amountFilter struct {
	set map[uint64]struct{}
	max *uint64
}

func newAmountFilter(amounts []uint64, max *uint64) amountFilter {
	f := amountFilter{max: max}
	if len(amounts) > 0 {
		f.set = make(map[uint64]struct{}, len(amounts))
		for _, a := range amounts {
			f.set[a] = struct{}{}
		}
	}
	return f
}

func (f amountFilter) match(amount uint64) bool {
	if f.set != nil {
		if _, ok := f.set[amount]; !ok {
			return false
		}
	}
	return f.max == nil || amount <= *f.max
}
