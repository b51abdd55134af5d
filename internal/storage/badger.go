package storage

import (
	"errors"
	"fmt"
	"strings"

	klog "github.com/Klingon-tech/aleo-netclient/internal/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerDB implements DB using Badger.
type BadgerDB struct {
	db *badger.DB
}

// A record index holds a few thousand small entries per account, so the
// defaults (64MB memtables, 1GB value log files) are trimmed.
const (
	memTableSize     = 8 << 20
	valueLogFileSize = 64 << 20
)

// NewBadger opens (or creates) a Badger database at path.
func NewBadger(path string) (*BadgerDB, error) {
	return openBadger(badger.DefaultOptions(path), path)
}

// NewBadgerInMemory opens a Badger database that lives only in memory.
func NewBadgerInMemory() (*BadgerDB, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true), "memory")
}

func openBadger(opts badger.Options, where string) (*BadgerDB, error) {
	opts = opts.
		WithLogger(badgerLogger{klog.Storage}).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithValueLogFileSize(valueLogFileSize)

	db, err := badger.Open(opts)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "Cannot acquire directory lock") ||
			strings.Contains(msg, "resource temporarily unavailable") {
			return nil, fmt.Errorf("record index at %s is in use (is another scan running?): %w", where, err)
		}
		return nil, fmt.Errorf("open record index at %s: %w", where, err)
	}
	klog.Storage.Debug().Str("path", where).Msg("Record index opened")
	return &BadgerDB{db: db}, nil
}

// item runs fn on the item stored under key inside a read transaction.
func (b *BadgerDB) item(key []byte, fn func(*badger.Item) error) error {
	err := b.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(key)
		if err != nil {
			return err
		}
		return fn(it)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// Get returns a copy of the value under key, or ErrNotFound.
func (b *BadgerDB) Get(key []byte) ([]byte, error) {
	var val []byte
	err := b.item(key, func(it *badger.Item) error {
		var err error
		val, err = it.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return val, nil
}

// Has reports whether key exists.
func (b *BadgerDB) Has(key []byte) (bool, error) {
	err := b.item(key, func(*badger.Item) error { return nil })
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("badger has: %w", err)
	}
	return true, nil
}

// Put stores a key-value pair.
func (b *BadgerDB) Put(key, value []byte) error {
	if err := b.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) }); err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (b *BadgerDB) Delete(key []byte) error {
	if err := b.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) }); err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// ForEach walks keys under prefix in ascending order.
func (b *BadgerDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if err := item.Value(func(val []byte) error { return fn(key, val) }); err != nil {
				return err
			}
		}
		return nil
	})
}

// NewBatch returns a batch backed by a Badger WriteBatch.
func (b *BadgerDB) NewBatch() Batch {
	return &badgerBatch{wb: b.db.NewWriteBatch()}
}

// Close flushes and closes the database.
func (b *BadgerDB) Close() error {
	return b.db.Close()
}

type badgerBatch struct {
	wb *badger.WriteBatch
}

func (bb *badgerBatch) Put(key, value []byte) error {
	return bb.wb.Set(key, value)
}

func (bb *badgerBatch) Delete(key []byte) error {
	return bb.wb.Delete(key)
}

func (bb *badgerBatch) Commit() error {
	if err := bb.wb.Flush(); err != nil {
		return fmt.Errorf("badger batch: %w", err)
	}
	return nil
}

// badgerLogger routes Badger's internal logging into the storage logger.
// Badger is chatty at info level, so info is demoted to debug.
type badgerLogger struct {
	l zerolog.Logger
}

func (bl badgerLogger) Errorf(format string, args ...interface{}) {
	bl.log(bl.l.Error(), format, args...)
}

func (bl badgerLogger) Warningf(format string, args ...interface{}) {
	bl.log(bl.l.Warn(), format, args...)
}

func (bl badgerLogger) Infof(format string, args ...interface{}) {
	bl.log(bl.l.Debug(), format, args...)
}

func (bl badgerLogger) Debugf(format string, args ...interface{}) {
	bl.log(bl.l.Trace(), format, args...)
}

func (bl badgerLogger) log(e *zerolog.Event, format string, args ...interface{}) {
	e.Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
