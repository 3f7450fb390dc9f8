package badgerstore

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/dgraph-io/badger/v4"
)

func (s *Store) CreateGroup(_ context.Context, g *domain.Group) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := mustExist(txn, userKey(g.Admin), domain.ErrUserNotFound); err != nil {
			return err
		}
		ok, err := exists(txn, groupKey(g.ID))
		if err != nil {
			return err
		}
		if ok {
			return domain.ErrAlreadyExists
		}
		return setJSON(txn, groupKey(g.ID), g)
	})
}

func (s *Store) GetGroup(_ context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, groupKey(id), &g, domain.ErrGroupNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) ListGroups(_ context.Context) ([]domain.Group, error) {
	var out []domain.Group
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = scanJSON[domain.Group](txn, prefixGroup, nil)
		return err
	})
	return out, err
}

func (s *Store) AddGroupUser(_ context.Context, gu *domain.GroupUser) error {
	id, err := nextID(s.memberSeq)
	if err != nil {
		return fmt.Errorf("next group user id: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := mustExist(txn, groupKey(gu.GroupID), domain.ErrGroupNotFound); err != nil {
			return err
		}
		if err := mustExist(txn, userKey(gu.Username), domain.ErrUserNotFound); err != nil {
			return err
		}
		ok, err := exists(txn, memberKey(gu.GroupID, gu.Username))
		if err != nil {
			return err
		}
		if ok {
			return domain.ErrAlreadyMember
		}
		gu.ID = id
		return setJSON(txn, memberKey(gu.GroupID, gu.Username), gu)
	})
}

func (s *Store) ListGroupUsers(_ context.Context, groupID, username string) ([]domain.GroupUser, error) {
	prefix := prefixMember
	if groupID != "" {
		prefix = prefixMember + groupID + indexSeparator
	}
	var out []domain.GroupUser
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = scanJSON(txn, prefix, func(gu domain.GroupUser) bool {
			return username == "" || gu.Username == username
		})
		return err
	})
	return out, err
}
