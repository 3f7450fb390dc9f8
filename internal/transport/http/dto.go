package http

import (
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type CreateUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type CreateMessageRequest struct {
	Chat    string `json:"chat"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	ReplyTo *int64 `json:"reply_to"`
}

type CreateGroupRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Admin string `json:"admin"`
}

type AddGroupUserRequest struct {
	Group string `json:"group"`
	User  string `json:"user"`
}

type CreateGroupMessageRequest struct {
	Group   string `json:"group"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	ReplyTo *int64 `json:"reply_to"`
}

type CreateCommonMessageRequest struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// MessageItem: сообщение чата; file_attachment уже URL.
type MessageItem struct {
	ID             int64     `json:"id"`
	Chat           string    `json:"chat"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	FileAttachment *string   `json:"file_attachment"`
	ReplyTo        *int64    `json:"reply_to"`
	Timestamp      time.Time `json:"timestamp"`
}

type GroupMessageItem struct {
	ID             int64     `json:"id"`
	Group          string    `json:"group"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	FileAttachment *string   `json:"file_attachment"`
	ReplyTo        *int64    `json:"reply_to"`
	Timestamp      time.Time `json:"timestamp"`
}

type ListResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func (h *Handler) messageItem(m domain.Message) MessageItem {
	return MessageItem{
		ID:             m.ID,
		Chat:           m.ChatID,
		Sender:         m.Sender,
		Content:        m.Content,
		FileAttachment: h.fileURL(m.FileAttachment),
		ReplyTo:        m.ReplyTo,
		Timestamp:      m.CreatedAt,
	}
}

func (h *Handler) groupMessageItem(m domain.GroupMessage) GroupMessageItem {
	return GroupMessageItem{
		ID:             m.ID,
		Group:          m.GroupID,
		Sender:         m.Sender,
		Content:        m.Content,
		FileAttachment: h.fileURL(m.FileAttachment),
		ReplyTo:        m.ReplyTo,
		Timestamp:      m.CreatedAt,
	}
}
