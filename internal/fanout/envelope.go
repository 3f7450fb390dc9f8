package fanout

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout: формат времени сохранённого сообщения в конверте.
const TimestampLayout = "2006-01-02 15:04:05"

type Kind uint8

const (
	KindDirect Kind = iota + 1
	KindGroup
	KindBroadcast
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindGroup:
		return "group"
	case KindBroadcast:
		return "broadcast"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Envelope: исходящее сообщение, одинаковое для всех участников группы.
// Timestamp заполняется только для сообщений, уже записанных в хранилище.
type Envelope struct {
	Kind           Kind
	Sender         string
	Content        string
	FileAttachment *string
	ReplyTo        *int64
	Timestamp      string
}

func DirectEnvelope(sender, content string, file *string, replyTo *int64, ts string) Envelope {
	return Envelope{
		Kind:           KindDirect,
		Sender:         sender,
		Content:        content,
		FileAttachment: file,
		ReplyTo:        replyTo,
		Timestamp:      ts,
	}
}

func GroupEnvelope(sender, content string, file *string, replyTo *int64, ts string) Envelope {
	return Envelope{
		Kind:           KindGroup,
		Sender:         sender,
		Content:        content,
		FileAttachment: file,
		ReplyTo:        replyTo,
		Timestamp:      ts,
	}
}

func BroadcastEnvelope(sender, content, ts string) Envelope {
	return Envelope{
		Kind:      KindBroadcast,
		Sender:    sender,
		Content:   content,
		Timestamp: ts,
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// wire-формы; порядок полей фиксирован, чтобы оба пути давали одинаковые байты.
// file_attachment пишется всегда, даже когда кадр группы вложений не несёт
type threadWire struct {
	Sender         string  `json:"sender"`
	Content        string  `json:"content"`
	Timestamp      string  `json:"timestamp,omitempty"`
	FileAttachment *string `json:"file_attachment"`
	ReplyTo        *int64  `json:"reply_to"`
}

type broadcastWire struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindDirect, KindGroup:
		return json.Marshal(threadWire{
			Sender:         e.Sender,
			Content:        e.Content,
			Timestamp:      e.Timestamp,
			FileAttachment: e.FileAttachment,
			ReplyTo:        e.ReplyTo,
		})
	case KindBroadcast:
		return json.Marshal(broadcastWire{
			Sender:    e.Sender,
			Content:   e.Content,
			Timestamp: e.Timestamp,
		})
	default:
		return nil, fmt.Errorf("marshal envelope: unknown %s", e.Kind)
	}
}
