package recordindex

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Klingon-tech/aleo-netclient/internal/scanner"
)

// Selection errors.
var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNoRecords           = errors.New("no records available")
)

// Selection is a set of records that together cover a target amount.
type Selection struct {
	Records []scanner.Record `json:"records"`
	Total   uint64           `json:"total"`  // Sum of selected microcredits.
	Excess  uint64           `json:"excess"` // Total - target.
}

// Select picks records whose microcredits cover target. It compares the
// smallest single record that covers target with a largest-first
// accumulation and returns whichever overshoots less. Ties go to the single
// record, which needs fewer inputs.
func Select(recs []scanner.Record, target uint64) (*Selection, error) {
	if target == 0 {
		return nil, fmt.Errorf("target must be positive")
	}

	candidates := make([]scanner.Record, 0, len(recs))
	var available uint64
	for _, r := range recs {
		if r.Amount() > 0 {
			candidates = append(candidates, r)
			available += r.Amount()
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoRecords
	}

	// Ascending; stable keeps discovery order among equal amounts.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Amount() < candidates[j].Amount()
	})

	var single *Selection
	for _, r := range candidates {
		if r.Amount() >= target {
			single = &Selection{
				Records: []scanner.Record{r},
				Total:   r.Amount(),
				Excess:  r.Amount() - target,
			}
			break
		}
	}

	var accum *Selection
	var picked []scanner.Record
	var total uint64
	for i := len(candidates) - 1; i >= 0; i-- {
		picked = append(picked, candidates[i])
		total += candidates[i].Amount()
		if total >= target {
			accum = &Selection{Records: picked, Total: total, Excess: total - target}
			break
		}
	}

	switch {
	case single != nil && accum != nil:
		if single.Excess <= accum.Excess {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	default:
		return nil, fmt.Errorf("%w: have %d, need %d microcredits", ErrInsufficientCredits, available, target)
	}
}
