package storage

import "bytes"

// PrefixDB scopes every key under a fixed prefix, giving each network its
// own keyspace inside one database. Keys passed in and handed back are
// logical keys without the prefix.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB returns a view of inner restricted to prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: bytes.Clone(prefix)}
}

func (p *PrefixDB) prefixed(key []byte) []byte {
	return append(bytes.Clone(p.prefix), key...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) { return p.inner.Get(p.prefixed(key)) }

func (p *PrefixDB) Put(key, value []byte) error { return p.inner.Put(p.prefixed(key), value) }

func (p *PrefixDB) Delete(key []byte) error { return p.inner.Delete(p.prefixed(key)) }

func (p *PrefixDB) Has(key []byte) (bool, error) { return p.inner.Has(p.prefixed(key)) }

// ForEach walks logical keys under prefix in ascending order.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(p.prefixed(prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// DeleteAll removes every key in this keyspace in one batch.
func (p *PrefixDB) DeleteAll() error {
	var keys [][]byte
	err := p.ForEach(nil, func(key, _ []byte) error {
		keys = append(keys, bytes.Clone(key))
		return nil
	})
	if err != nil {
		return err
	}
	b := p.NewBatch()
	for _, key := range keys {
		if err := b.Delete(key); err != nil {
			return err
		}
	}
	return b.Commit()
}

// Close is a no-op; the inner DB owns its lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

// NewBatch creates a batch that prepends the prefix to all keys. It is atomic
// when the inner DB is a Batcher.
func (p *PrefixDB) NewBatch() Batch {
	if batcher, ok := p.inner.(Batcher); ok {
		return &prefixBatch{db: p, inner: batcher.NewBatch()}
	}
	return &prefixBatch{db: p}
}

type prefixOp struct {
	key   []byte
	value []byte // nil means delete
}

// prefixBatch forwards to the inner batch, or buffers writes and applies
// them one by one on Commit when the inner DB cannot batch.
type prefixBatch struct {
	db    *PrefixDB
	inner Batch
	ops   []prefixOp
}

func (pb *prefixBatch) Put(key, value []byte) error {
	if pb.inner != nil {
		return pb.inner.Put(pb.db.prefixed(key), value)
	}
	v := bytes.Clone(value)
	if v == nil {
		v = []byte{}
	}
	pb.ops = append(pb.ops, prefixOp{key: pb.db.prefixed(key), value: v})
	return nil
}

func (pb *prefixBatch) Delete(key []byte) error {
	if pb.inner != nil {
		return pb.inner.Delete(pb.db.prefixed(key))
	}
	pb.ops = append(pb.ops, prefixOp{key: pb.db.prefixed(key)})
	return nil
}

func (pb *prefixBatch) Commit() error {
	if pb.inner != nil {
		return pb.inner.Commit()
	}
	for _, op := range pb.ops {
		var err error
		if op.value == nil {
			err = pb.db.inner.Delete(op.key)
		} else {
			err = pb.db.inner.Put(op.key, op.value)
		}
		if err != nil {
			return err
		}
	}
	pb.ops = nil
	return nil
}
