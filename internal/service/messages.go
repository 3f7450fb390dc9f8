package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/store"
)

type CreateMessageInput struct {
	ChatID     string `validate:"required,max=101,slug"`
	Sender     string `validate:"required,max=50,username"`
	Content    string
	ReplyTo    *int64 `validate:"omitempty,gt=0"`
	Attachment *Attachment
}

// CreateMessage записывает сообщение личного чата. Отправитель должен быть
// участником чата, ответ: ссылаться на сообщение того же чата.
func (s *ChatService) CreateMessage(ctx context.Context, in CreateMessageInput) (*domain.Message, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	content, err := s.content(in.Content)
	if err != nil {
		return nil, err
	}

	chat, err := s.store.GetChat(ctx, in.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.Has(in.Sender) {
		return nil, invalid("sender", "participant")
	}
	if in.ReplyTo != nil {
		target, err := s.store.GetMessage(ctx, *in.ReplyTo)
		if err != nil {
			return nil, replyErr(err)
		}
		if target.ChatID != chat.ID {
			return nil, domain.ErrInvalidReply
		}
	}

	file, err := s.upload(in.Attachment)
	if err != nil {
		return nil, fmt.Errorf("save attachment: %w", err)
	}

	m := &domain.Message{
		ChatID:         chat.ID,
		Sender:         in.Sender,
		Content:        content,
		FileAttachment: file,
		ReplyTo:        in.ReplyTo,
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

func (s *ChatService) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	return s.store.GetMessage(ctx, id)
}

func (s *ChatService) ListMessages(ctx context.Context, chatID string, page store.Page) ([]domain.Message, string, error) {
	if _, err := s.store.GetChat(ctx, chatID); err != nil {
		return nil, "", err
	}
	return s.store.ListMessages(ctx, chatID, page)
}

type CreateCommonMessageInput struct {
	Sender  string `validate:"required,max=50,username"`
	Content string
}

func (s *ChatService) CreateCommonMessage(ctx context.Context, in CreateCommonMessageInput) (*domain.CommonMessage, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	content, err := s.content(in.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, in.Sender); err != nil {
		return nil, err
	}

	m := &domain.CommonMessage{Sender: in.Sender, Content: content}
	if err := s.store.CreateCommonMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("create common message: %w", err)
	}
	return m, nil
}

func (s *ChatService) GetCommonMessage(ctx context.Context, id int64) (*domain.CommonMessage, error) {
	return s.store.GetCommonMessage(ctx, id)
}

func (s *ChatService) ListCommonMessages(ctx context.Context, page store.Page) ([]domain.CommonMessage, string, error) {
	return s.store.ListCommonMessages(ctx, page)
}

// ответ на несуществующее сообщение: ошибка ввода, а не 404 всего запроса
func replyErr(err error) error {
	if errors.Is(err, domain.ErrMessageNotFound) {
		return fmt.Errorf("%w: target does not exist", domain.ErrInvalidReply)
	}
	return err
}
