// Package kv is a persistent ql.Table on top of BadgerDB.
//
// Entries are stored under the matrix key with the action values encoded as
// big-endian float64 bits. The action count the store was created with is
// recorded under a reserved key, so reopening it with a different action set
// fails instead of silently mixing incompatible values.
package kv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/sw965/wren/matrix"
	"github.com/sw965/wren/ql"
)

var ErrCorruptEntry = errors.New("kv: stored entry is not a float64 vector")

// metaKey starts with a zero byte, which no matrix.Key does.
var metaKey = []byte("\x00action_count")

type Config struct {
	// Path is the directory for the database files. Ignored when InMemory.
	Path     string
	InMemory bool

	// SyncWrites makes every Set durable before it returns.
	SyncWrites bool

	// Logger receives BadgerDB's own log lines. Nil disables them.
	Logger *slog.Logger
}

func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Table is safe for concurrent use.
type Table struct {
	db *badger.DB
	n  int
}

// Open opens (or creates) a table whose entries hold n action values.
func Open(cfg Config, n int) (*Table, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("kv: path is required for a persistent table")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("kv: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kv: open: %w", err)
	}

	t := &Table{db: db, n: n}
	if err := t.checkActionCount(); err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}

func (t *Table) checkActionCount() error {
	return t.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set(metaKey, binary.BigEndian.AppendUint32(nil, uint32(t.n)))
		}
		if err != nil {
			return err
		}
		b, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(b) != 4 {
			return fmt.Errorf("%w: action count record", ErrCorruptEntry)
		}
		if got := int(binary.BigEndian.Uint32(b)); got != t.n {
			return fmt.Errorf("%w: store was created for %d actions, opened with %d", ql.ErrEntrySize, got, t.n)
		}
		return nil
	})
}

func (t *Table) ActionCount() int {
	return t.n
}

func (t *Table) Get(k matrix.Key) ([]float64, error) {
	var v []float64
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(k))
		if errors.Is(err, badger.ErrKeyNotFound) {
			v = make([]float64, t.n)
			return nil
		}
		if err != nil {
			return err
		}
		b, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		v, err = decode(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(v) != t.n {
		return nil, fmt.Errorf("%w: got %d, want %d", ql.ErrEntrySize, len(v), t.n)
	}
	return v, nil
}

func (t *Table) Set(k matrix.Key, v []float64) error {
	if len(v) != t.n {
		return fmt.Errorf("%w: got %d, want %d", ql.ErrEntrySize, len(v), t.n)
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(k), encode(v))
	})
}

// Len counts the stored entries.
func (t *Table) Len() (int, error) {
	n := 0
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if it.Item().Key()[0] == 0 {
				continue
			}
			n++
		}
		return nil
	})
	return n, err
}

func (t *Table) Close() error {
	return t.db.Close()
}

func encode(v []float64) []byte {
	b := make([]byte, 0, 8*len(v))
	for _, x := range v {
		b = binary.BigEndian.AppendUint64(b, math.Float64bits(x))
	}
	return b
}

func decode(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptEntry, len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.BigEndian.Uint64(b[i*8:]))
	}
	return v, nil
}
