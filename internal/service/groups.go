package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/store"
)

type CreateGroupInput struct {
	ID    string `validate:"required,max=50,slug"`
	Name  string `validate:"required,max=100"`
	Admin string `validate:"required,max=50,username"`
}

// CreateGroup создаёт группу и сразу добавляет в неё администратора.
func (s *ChatService) CreateGroup(ctx context.Context, in CreateGroupInput) (*domain.Group, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	g := &domain.Group{ID: in.ID, Name: in.Name, Admin: in.Admin}
	if err := s.store.CreateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("create group %s: %w", in.ID, err)
	}
	if err := s.store.AddGroupUser(ctx, &domain.GroupUser{GroupID: g.ID, Username: g.Admin}); err != nil &&
		!errors.Is(err, domain.ErrAlreadyMember) {
		return nil, fmt.Errorf("add admin to group %s: %w", in.ID, err)
	}
	return g, nil
}

func (s *ChatService) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	return s.store.GetGroup(ctx, id)
}

func (s *ChatService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	return s.store.ListGroups(ctx)
}

type AddGroupUserInput struct {
	GroupID  string `validate:"required,max=50,slug"`
	Username string `validate:"required,max=50,username"`
}

func (s *ChatService) AddGroupUser(ctx context.Context, in AddGroupUserInput) (*domain.GroupUser, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	gu := &domain.GroupUser{GroupID: in.GroupID, Username: in.Username}
	if err := s.store.AddGroupUser(ctx, gu); err != nil {
		return nil, fmt.Errorf("add %s to group %s: %w", in.Username, in.GroupID, err)
	}
	return gu, nil
}

func (s *ChatService) ListGroupUsers(ctx context.Context, groupID, username string) ([]domain.GroupUser, error) {
	return s.store.ListGroupUsers(ctx, groupID, username)
}

type CreateGroupMessageInput struct {
	GroupID    string `validate:"required,max=50,slug"`
	Sender     string `validate:"required,max=50,username"`
	Content    string
	ReplyTo    *int64 `validate:"omitempty,gt=0"`
	Attachment *Attachment
}

// CreateGroupMessage записывает сообщение группы от её участника.
func (s *ChatService) CreateGroupMessage(ctx context.Context, in CreateGroupMessageInput) (*domain.GroupMessage, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	content, err := s.content(in.Content)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}
	members, err := s.store.ListGroupUsers(ctx, in.GroupID, in.Sender)
	if err != nil {
		return nil, fmt.Errorf("list group users: %w", err)
	}
	if len(members) == 0 {
		return nil, invalid("sender", "member")
	}
	if in.ReplyTo != nil {
		target, err := s.store.GetGroupMessage(ctx, *in.ReplyTo)
		if err != nil {
			return nil, replyErr(err)
		}
		if target.GroupID != in.GroupID {
			return nil, domain.ErrInvalidReply
		}
	}

	file, err := s.upload(in.Attachment)
	if err != nil {
		return nil, fmt.Errorf("save attachment: %w", err)
	}

	m := &domain.GroupMessage{
		GroupID:        in.GroupID,
		Sender:         in.Sender,
		Content:        content,
		FileAttachment: file,
		ReplyTo:        in.ReplyTo,
	}
	if err := s.store.CreateGroupMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("create group message: %w", err)
	}
	return m, nil
}

func (s *ChatService) GetGroupMessage(ctx context.Context, id int64) (*domain.GroupMessage, error) {
	return s.store.GetGroupMessage(ctx, id)
}

func (s *ChatService) ListGroupMessages(ctx context.Context, groupID string, page store.Page) ([]domain.GroupMessage, string, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, "", err
	}
	return s.store.ListGroupMessages(ctx, groupID, page)
}
