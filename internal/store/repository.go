package store

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type ChatRepository interface {
	// EnsureChat находит или создаёт чат пары пользователей.
	EnsureChat(ctx context.Context, a, b string) (*domain.Chat, error)
	GetChat(ctx context.Context, id string) (*domain.Chat, error)
	// ListChats: пустой username — все чаты.
	ListChats(ctx context.Context, username string) ([]domain.Chat, error)
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, m *domain.Message) error
	GetMessage(ctx context.Context, id int64) (*domain.Message, error)
	ListMessages(ctx context.Context, chatID string, page Page) ([]domain.Message, string, error)
}

type GroupRepository interface {
	CreateGroup(ctx context.Context, g *domain.Group) error
	GetGroup(ctx context.Context, id string) (*domain.Group, error)
	ListGroups(ctx context.Context) ([]domain.Group, error)
	AddGroupUser(ctx context.Context, gu *domain.GroupUser) error
	// ListGroupUsers фильтрует по непустым groupID / username.
	ListGroupUsers(ctx context.Context, groupID, username string) ([]domain.GroupUser, error)
}

type GroupMessageRepository interface {
	CreateGroupMessage(ctx context.Context, m *domain.GroupMessage) error
	GetGroupMessage(ctx context.Context, id int64) (*domain.GroupMessage, error)
	ListGroupMessages(ctx context.Context, groupID string, page Page) ([]domain.GroupMessage, string, error)
}

type CommonMessageRepository interface {
	CreateCommonMessage(ctx context.Context, m *domain.CommonMessage) error
	GetCommonMessage(ctx context.Context, id int64) (*domain.CommonMessage, error)
	ListCommonMessages(ctx context.Context, page Page) ([]domain.CommonMessage, string, error)
}

// Repository — долговременное хранилище. Create* назначают ID и CreatedAt.
type Repository interface {
	UserRepository
	ChatRepository
	MessageRepository
	GroupRepository
	GroupMessageRepository
	CommonMessageRepository
	Close() error
}
