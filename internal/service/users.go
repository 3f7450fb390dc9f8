package service

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type CreateUserInput struct {
	Username string `validate:"required,max=50,username"`
	Name     string `validate:"max=100"`
}

// CreateUser создаёт пользователя; чаты со всеми существующими пользователями
// появляются сразу же.
func (s *ChatService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u := &domain.User{Username: in.Username, Name: in.Name}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user %s: %w", in.Username, err)
	}
	return u, nil
}

func (s *ChatService) GetUser(ctx context.Context, username string) (*domain.User, error) {
	return s.store.GetUser(ctx, username)
}

func (s *ChatService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *ChatService) GetChat(ctx context.Context, id string) (*domain.Chat, error) {
	return s.store.GetChat(ctx, id)
}

// ListChats: все чаты или только чаты пользователя.
func (s *ChatService) ListChats(ctx context.Context, username string) ([]domain.Chat, error) {
	if username != "" {
		if _, err := s.store.GetUser(ctx, username); err != nil {
			return nil, err
		}
	}
	return s.store.ListChats(ctx, username)
}
