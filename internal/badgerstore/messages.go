package badgerstore

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/store"

	"github.com/dgraph-io/badger/v4"
)

func (s *Store) CreateMessage(_ context.Context, m *domain.Message) error {
	id, err := nextID(s.msgSeq)
	if err != nil {
		return fmt.Errorf("next message id: %w", err)
	}
	m.ID = id
	m.CreatedAt = s.now()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := mustExist(txn, chatKey(m.ChatID), domain.ErrChatNotFound); err != nil {
			return err
		}
		if err := mustExist(txn, userKey(m.Sender), domain.ErrUserNotFound); err != nil {
			return err
		}
		if m.ReplyTo != nil {
			if err := mustExist(txn, idKey(prefixMsg, *m.ReplyTo), domain.ErrMessageNotFound); err != nil {
				return err
			}
		}
		if err := setJSON(txn, idKey(prefixMsg, m.ID), m); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey(prefixMsgIdx+m.ChatID+indexSeparator, m.CreatedAt, m.ID)), nil)
	})
}

func (s *Store) GetMessage(_ context.Context, id int64) (*domain.Message, error) {
	var m domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, idKey(prefixMsg, id), &m, domain.ErrMessageNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMessages(_ context.Context, chatID string, page store.Page) ([]domain.Message, string, error) {
	page = page.Normalize()
	cur, err := store.DecodeCursor(page.After)
	if err != nil {
		return nil, "", err
	}

	var out []domain.Message
	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = pageJSON[domain.Message](txn, prefixMsgIdx+chatID+indexSeparator, prefixMsg, cur, page.Limit)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	var next string
	if len(out) > 0 {
		last := out[len(out)-1]
		next = store.NextCursor(len(out), page.Limit, store.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return out, next, nil
}

func (s *Store) CreateGroupMessage(_ context.Context, m *domain.GroupMessage) error {
	id, err := nextID(s.groupSeq)
	if err != nil {
		return fmt.Errorf("next group message id: %w", err)
	}
	m.ID = id
	m.CreatedAt = s.now()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := mustExist(txn, groupKey(m.GroupID), domain.ErrGroupNotFound); err != nil {
			return err
		}
		if err := mustExist(txn, userKey(m.Sender), domain.ErrUserNotFound); err != nil {
			return err
		}
		if m.ReplyTo != nil {
			if err := mustExist(txn, idKey(prefixGMsg, *m.ReplyTo), domain.ErrMessageNotFound); err != nil {
				return err
			}
		}
		if err := setJSON(txn, idKey(prefixGMsg, m.ID), m); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey(prefixGMsgIdx+m.GroupID+indexSeparator, m.CreatedAt, m.ID)), nil)
	})
}

func (s *Store) GetGroupMessage(_ context.Context, id int64) (*domain.GroupMessage, error) {
	var m domain.GroupMessage
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, idKey(prefixGMsg, id), &m, domain.ErrMessageNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListGroupMessages(_ context.Context, groupID string, page store.Page) ([]domain.GroupMessage, string, error) {
	page = page.Normalize()
	cur, err := store.DecodeCursor(page.After)
	if err != nil {
		return nil, "", err
	}

	var out []domain.GroupMessage
	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = pageJSON[domain.GroupMessage](txn, prefixGMsgIdx+groupID+indexSeparator, prefixGMsg, cur, page.Limit)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	var next string
	if len(out) > 0 {
		last := out[len(out)-1]
		next = store.NextCursor(len(out), page.Limit, store.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return out, next, nil
}

func (s *Store) CreateCommonMessage(_ context.Context, m *domain.CommonMessage) error {
	id, err := nextID(s.commonSeq)
	if err != nil {
		return fmt.Errorf("next common message id: %w", err)
	}
	m.ID = id
	m.CreatedAt = s.now()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := mustExist(txn, userKey(m.Sender), domain.ErrUserNotFound); err != nil {
			return err
		}
		if err := setJSON(txn, idKey(prefixCMsg, m.ID), m); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey(prefixCMsgIdx, m.CreatedAt, m.ID)), nil)
	})
}

func (s *Store) GetCommonMessage(_ context.Context, id int64) (*domain.CommonMessage, error) {
	var m domain.CommonMessage
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, idKey(prefixCMsg, id), &m, domain.ErrMessageNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListCommonMessages(_ context.Context, page store.Page) ([]domain.CommonMessage, string, error) {
	page = page.Normalize()
	cur, err := store.DecodeCursor(page.After)
	if err != nil {
		return nil, "", err
	}

	var out []domain.CommonMessage
	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = pageJSON[domain.CommonMessage](txn, prefixCMsgIdx, prefixCMsg, cur, page.Limit)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	var next string
	if len(out) > 0 {
		last := out[len(out)-1]
		next = store.NextCursor(len(out), page.Limit, store.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return out, next, nil
}

// pageJSON обходит индекс в обратном порядке (новые первыми) и подгружает записи по ID.
// Курсор указывает на последний элемент предыдущей страницы и сам в выдачу не попадает.
func pageJSON[T any](txn *badger.Txn, idxPrefix, dataPrefix string, cur *store.Cursor, limit int) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := []byte(idxPrefix)
	seek := seekKey(idxPrefix, cur)

	out := make([]T, 0, limit)
	for it.Seek([]byte(seek)); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
		key := string(it.Item().Key())
		if cur != nil && key == seek {
			continue
		}
		id, err := parseIndexID(key)
		if err != nil {
			return nil, err
		}
		var v T
		if err := getJSON(txn, idKey(dataPrefix, id), &v, fmt.Errorf("dangling index %q", key)); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
