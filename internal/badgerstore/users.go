package badgerstore

import (
	"context"
	"errors"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/dgraph-io/badger/v4"
)

func (s *Store) CreateUser(_ context.Context, u *domain.User) error {
	return s.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, userKey(u.Username))
		if err != nil {
			return err
		}
		if ok {
			return domain.ErrAlreadyExists
		}
		return setJSON(txn, userKey(u.Username), u)
	})
}

func (s *Store) GetUser(_ context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(username), &u, domain.ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = scanJSON[domain.User](txn, prefixUser, nil)
		return err
	})
	return out, err
}

func (s *Store) EnsureChat(_ context.Context, a, b string) (*domain.Chat, error) {
	chat := domain.NewChat(a, b, s.now())
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := mustExist(txn, userKey(chat.User1), domain.ErrUserNotFound); err != nil {
			return err
		}
		if err := mustExist(txn, userKey(chat.User2), domain.ErrUserNotFound); err != nil {
			return err
		}
		var existing domain.Chat
		err := getJSON(txn, chatKey(chat.ID), &existing, domain.ErrChatNotFound)
		switch {
		case err == nil:
			chat = existing
			return nil
		case !errors.Is(err, domain.ErrChatNotFound):
			return err
		}
		return setJSON(txn, chatKey(chat.ID), chat)
	})
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *Store) GetChat(_ context.Context, id string) (*domain.Chat, error) {
	var c domain.Chat
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, chatKey(id), &c, domain.ErrChatNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListChats(_ context.Context, username string) ([]domain.Chat, error) {
	var out []domain.Chat
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = scanJSON(txn, prefixChat, func(c domain.Chat) bool {
			return username == "" || c.Has(username)
		})
		return err
	})
	return out, err
}
