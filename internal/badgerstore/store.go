package badgerstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/chat-service/internal/store"

	"github.com/dgraph-io/badger/v4"
)

type Options struct {
	Path     string
	InMemory bool
}

// Store: реализация store.Repository поверх BadgerDB.
type Store struct {
	db *badger.DB

	msgSeq    *badger.Sequence
	groupSeq  *badger.Sequence
	commonSeq *badger.Sequence
	memberSeq *badger.Sequence

	now func() time.Time
}

var _ store.Repository = (*Store)(nil)

func Open(opts Options) (*Store, error) {
	bo := badger.DefaultOptions(opts.Path).WithLoggingLevel(badger.ERROR)
	if opts.InMemory {
		bo = bo.WithInMemory(true).WithDir("").WithValueDir("")
	}
	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return New(db)
}

func New(db *badger.DB) (*Store, error) {
	s := &Store{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}

	seqs := []struct {
		dst *(*badger.Sequence)
		key string
	}{
		{&s.msgSeq, "seq:message"},
		{&s.groupSeq, "seq:group_message"},
		{&s.commonSeq, "seq:common_message"},
		{&s.memberSeq, "seq:group_user"},
	}
	for _, sq := range seqs {
		seq, err := db.GetSequence([]byte(sq.key), 64)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("badger sequence %s: %w", sq.key, err)
		}
		*sq.dst = seq
	}
	return s, nil
}

func (s *Store) Close() error {
	for _, seq := range []*badger.Sequence{s.msgSeq, s.groupSeq, s.commonSeq, s.memberSeq} {
		if seq == nil {
			continue
		}
		if err := seq.Release(); err != nil {
			slog.Warn("badger sequence release failed", "err", err)
		}
	}
	return s.db.Close()
}

// nextID: ID начинаются с 1, как у serial в postgres.
func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	return int64(n) + 1, nil
}

func getJSON(txn *badger.Txn, key string, dst any, notFound error) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return notFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

func mustExist(txn *badger.Txn, key string, notFound error) error {
	ok, err := exists(txn, key)
	if err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	return nil
}

// scanJSON декодирует все значения с префиксом в порядке ключей.
func scanJSON[T any](txn *badger.Txn, prefix string, keep func(T) bool) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []T
	for it.Rewind(); it.Valid(); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, err
		}
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}
