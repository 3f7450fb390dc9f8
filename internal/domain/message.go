package domain

import "time"

type Message struct {
	ID             int64     `json:"id"`
	ChatID         string    `json:"chat"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	FileAttachment *string   `json:"file_attachment"`
	ReplyTo        *int64    `json:"reply_to"`
	CreatedAt      time.Time `json:"timestamp"`
}

type GroupMessage struct {
	ID             int64     `json:"id"`
	GroupID        string    `json:"group"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	FileAttachment *string   `json:"file_attachment"`
	ReplyTo        *int64    `json:"reply_to"`
	CreatedAt      time.Time `json:"timestamp"`
}

// CommonMessage — сообщение для всех, без чата и группы.
type CommonMessage struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}
