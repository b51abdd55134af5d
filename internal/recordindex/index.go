// Package recordindex persists the records a scan discovered, per address,
// together with a checkpoint of how far the address has been scanned.
//
// Key layout (under the "ri/<network>/" namespace):
//
//	Record:  "e/<address>/<height8><seq4>" → JSON scanner.Record
//	Serial:  "s/<address>/<serial>"        → record key
//	Meta:    "m/<address>"                 → JSON Meta
//
// height is big-endian so iteration yields records in discovery order.
package recordindex

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/aleo-netclient/internal/account"
	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	klog "github.com/Klingon-tech/aleo-netclient/internal/log"
	"github.com/Klingon-tech/aleo-netclient/internal/scanner"
	"github.com/Klingon-tech/aleo-netclient/internal/storage"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
)

// Meta is the scan checkpoint of one address.
type Meta struct {
	// NextHeight is the first height not yet scanned.
	NextHeight int64 `json:"next_height"`
	Count      int   `json:"count"`
}

// Index stores discovered records.
type Index struct {
	db *storage.PrefixDB
}

// New creates an index for network inside db.
func New(db storage.DB, network string) *Index {
	return &Index{db: storage.NewPrefixDB(db, []byte("ri/"+network+"/"))}
}

func entryPrefix(addr types.Address) []byte {
	return []byte("e/" + addr.String() + "/")
}

func entryKey(addr types.Address, height uint64, seq int) []byte {
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], height)
	binary.BigEndian.PutUint32(buf[8:], uint32(seq))
	return append(entryPrefix(addr), buf[:]...)
}

func serialKey(addr types.Address, serial string) []byte {
	return []byte("s/" + addr.String() + "/" + serial)
}

func metaKey(addr types.Address) []byte {
	return []byte("m/" + addr.String())
}

// Meta returns the checkpoint of addr. An address never indexed has a zero
// Meta.
func (idx *Index) Meta(addr types.Address) (Meta, error) {
	data, err := idx.db.Get(metaKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return Meta{}, nil
	}
	if err != nil {
		return Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("corrupt index meta: %w", err)
	}
	return meta, nil
}

// Put stores recs found for addr while scanning [start, end). Records
// already stored, by serial number, are skipped. The checkpoint advances to
// end only when the scan is contiguous with it (start <= NextHeight), so a
// gap below start is still scanned by a later Sync. Everything is written in
// one batch.
func (idx *Index) Put(addr types.Address, start, end int64, recs []scanner.Record) (int, error) {
	meta, err := idx.Meta(addr)
	if err != nil {
		return 0, err
	}

	batch := idx.db.NewBatch()
	added := 0
	seq := make(map[uint64]int)
	pending := make(map[string]struct{})
	for i := range recs {
		r := &recs[i]
		if _, dup := pending[r.SerialNumber]; dup {
			continue
		}
		sk := serialKey(addr, r.SerialNumber)
		ok, err := idx.db.Has(sk)
		if err != nil {
			return 0, err
		}
		if ok {
			continue
		}
		pending[r.SerialNumber] = struct{}{}

		data, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("marshal record: %w", err)
		}
		n, err := idx.nextSeq(addr, r.Height, seq)
		if err != nil {
			return 0, err
		}
		ek := entryKey(addr, r.Height, n)
		if err := batch.Put(ek, data); err != nil {
			return 0, err
		}
		if err := batch.Put(sk, ek); err != nil {
			return 0, err
		}
		added++
	}

	meta.Count += added
	if start <= meta.NextHeight && end > meta.NextHeight {
		meta.NextHeight = end
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return 0, err
	}
	if err := batch.Put(metaKey(addr), data); err != nil {
		return 0, err
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("commit records: %w", err)
	}
	return added, nil
}

// nextSeq returns the next free sequence number at height: one past the
// highest stored, so numbers freed by Remove are never reused. seq caches
// numbers handed out during the current Put.
func (idx *Index) nextSeq(addr types.Address, height uint64, seq map[uint64]int) (int, error) {
	n, ok := seq[height]
	if !ok {
		prefix := entryKey(addr, height, 0)[:len(entryPrefix(addr))+8]
		err := idx.db.ForEach(prefix, func(key, _ []byte) error {
			if len(key) != len(prefix)+4 {
				return fmt.Errorf("corrupt index key %q", key)
			}
			if next := int(binary.BigEndian.Uint32(key[len(prefix):])) + 1; next > n {
				n = next
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("scan index entries at height %d: %w", height, err)
		}
	}
	seq[height] = n + 1
	return n, nil
}

// Records returns stored records of addr in discovery order, paginated, and
// the total count. A non-positive limit returns everything after offset.
func (idx *Index) Records(addr types.Address, limit, offset int) ([]scanner.Record, int, error) {
	var all []scanner.Record
	err := idx.db.ForEach(entryPrefix(addr), func(_, value []byte) error {
		var r scanner.Record
		if err := json.Unmarshal(value, &r); err != nil {
			return nil // Skip corrupt entries.
		}
		all = append(all, r)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(all)
	if offset >= total {
		return []scanner.Record{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// Remove deletes the records of addr with the given serial numbers.
func (idx *Index) Remove(addr types.Address, serials ...string) (int, error) {
	meta, err := idx.Meta(addr)
	if err != nil {
		return 0, err
	}

	batch := idx.db.NewBatch()
	removed := 0
	for _, serial := range serials {
		sk := serialKey(addr, serial)
		ek, err := idx.db.Get(sk)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if err := batch.Delete(ek); err != nil {
			return 0, err
		}
		if err := batch.Delete(sk); err != nil {
			return 0, err
		}
		removed++
	}
	if removed == 0 {
		return 0, nil
	}

	meta.Count -= removed
	if meta.Count < 0 {
		meta.Count = 0
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return 0, err
	}
	if err := batch.Put(metaKey(addr), data); err != nil {
		return 0, err
	}
	return removed, batch.Commit()
}

// Clear removes every record and the checkpoint of addr.
func (idx *Index) Clear(addr types.Address) error {
	var keys [][]byte
	collect := func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	}
	if err := idx.db.ForEach(entryPrefix(addr), collect); err != nil {
		return err
	}
	if err := idx.db.ForEach([]byte("s/"+addr.String()+"/"), collect); err != nil {
		return err
	}
	keys = append(keys, metaKey(addr))

	batch := idx.db.NewBatch()
	for _, k := range keys {
		if err := batch.Delete(k); err != nil {
			return err
		}
	}
	return batch.Commit()
}

// Finder is the node surface Sync and Prune need; *netclient.Client
// implements it.
type Finder interface {
	GetLatestHeight(ctx context.Context) (int64, error)
	GetTransitionID(ctx context.Context, inputID string) (string, error)
}

// RecordScanner scans a range for an account.
type RecordScanner interface {
	Scan(ctx context.Context, req scanner.Request) ([]scanner.Record, error)
}

// Sync scans acct from its checkpoint through the chain tip and stores what
// it finds. It returns the number of new records and the new checkpoint.
// When the checkpoint is already past the tip nothing is fetched.
func (idx *Index) Sync(ctx context.Context, node Finder, sc RecordScanner, acct *account.Account) (int, int64, error) {
	addr := acct.Address()
	meta, err := idx.Meta(addr)
	if err != nil {
		return 0, 0, err
	}
	tip, err := node.GetLatestHeight(ctx)
	if err != nil {
		return 0, meta.NextHeight, err
	}
	end := tip + 1
	if meta.NextHeight >= end {
		return 0, meta.NextHeight, nil
	}

	recs, err := sc.Scan(ctx, scanner.Request{Start: meta.NextHeight, End: end, Account: acct})
	if err != nil {
		return 0, meta.NextHeight, err
	}
	added, err := idx.Put(addr, meta.NextHeight, end, recs)
	if err != nil {
		return 0, meta.NextHeight, err
	}
	klog.Storage.Info().
		Str("address", addr.String()).
		Int64("from", meta.NextHeight).
		Int64("to", end).
		Int("added", added).
		Msg("Record index synced")
	return added, end, nil
}

// Prune removes stored records of addr whose serial numbers the node now
// reports as consumed.
func (idx *Index) Prune(ctx context.Context, node Finder, addr types.Address) (int, error) {
	recs, _, err := idx.Records(addr, 0, 0)
	if err != nil {
		return 0, err
	}
	var spent []string
	for _, r := range recs {
		_, err := node.GetTransitionID(ctx, r.SerialNumber)
		switch {
		case err == nil:
			spent = append(spent, r.SerialNumber)
		case apierr.IsNotFound(err):
		default:
			return 0, err
		}
	}
	return idx.Remove(addr, spent...)
}
