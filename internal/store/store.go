package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// Observer вызывается синхронно после успешной записи нового сообщения.
// Ошибки и паники наблюдателя не влияют на уже выполненную запись.
type Observer interface {
	MessageCreated(ctx context.Context, m domain.Message)
	GroupMessageCreated(ctx context.Context, m domain.GroupMessage)
	CommonMessageCreated(ctx context.Context, m domain.CommonMessage)
}

// Store: Repository с уведомлениями о созданных сообщениях и правилом
// «новый пользователь получает чат с каждым существующим».
type Store struct {
	Repository

	mu        sync.RWMutex
	observers []Observer
}

func New(repo Repository) *Store {
	return &Store{Repository: repo}
}

func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = append(s.observers, o)
}

// Unobserved: то же хранилище без уведомлений. Нужен пути, который сам
// рассылает только что записанное сообщение.
func (s *Store) Unobserved() Repository {
	return s.Repository
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if err := s.Repository.CreateUser(ctx, u); err != nil {
		return err
	}

	users, err := s.Repository.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, other := range users {
		if other.Username == u.Username {
			continue
		}
		if _, err := s.Repository.EnsureChat(ctx, u.Username, other.Username); err != nil {
			return fmt.Errorf("ensure chat %s: %w", domain.ChatID(u.Username, other.Username), err)
		}
	}
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, m *domain.Message) error {
	if err := s.Repository.CreateMessage(ctx, m); err != nil {
		return err
	}
	created := *m
	s.notify(ctx, "message", func(o Observer) { o.MessageCreated(ctx, created) })
	return nil
}

func (s *Store) CreateGroupMessage(ctx context.Context, m *domain.GroupMessage) error {
	if err := s.Repository.CreateGroupMessage(ctx, m); err != nil {
		return err
	}
	created := *m
	s.notify(ctx, "group_message", func(o Observer) { o.GroupMessageCreated(ctx, created) })
	return nil
}

func (s *Store) CreateCommonMessage(ctx context.Context, m *domain.CommonMessage) error {
	if err := s.Repository.CreateCommonMessage(ctx, m); err != nil {
		return err
	}
	created := *m
	s.notify(ctx, "common_message", func(o Observer) { o.CommonMessageCreated(ctx, created) })
	return nil
}

func (s *Store) notify(ctx context.Context, kind string, fn func(Observer)) {
	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.RUnlock()

	for _, o := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.ErrorContext(ctx, "store observer panic",
						"kind", kind,
						"panic", r,
						"stack", string(debug.Stack()))
				}
			}()
			fn(o)
		}()
	}
}

// IsNotFound: любой из «не найдено» доменных ошибок.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) ||
		errors.Is(err, domain.ErrChatNotFound) ||
		errors.Is(err, domain.ErrGroupNotFound) ||
		errors.Is(err, domain.ErrMessageNotFound)
}
