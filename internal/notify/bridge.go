package notify

import (
	"context"
	"log/slog"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/fanout"
	"github.com/cwrk-planet/chat-service/internal/store"

	"github.com/samber/lo"
)

// FileResolver превращает ключ вложения в публичный URL.
type FileResolver interface {
	URL(key string) string
}

// Bridge рассылает только что записанные сообщения живым соединениям.
// Ошибки доставки остаются внутри реестра, запись они не откатывают.
type Bridge struct {
	out   fanout.Sender
	files FileResolver
}

var _ store.Observer = (*Bridge)(nil)

func New(out fanout.Sender, files FileResolver) *Bridge {
	return &Bridge{out: out, files: files}
}

func (b *Bridge) MessageCreated(ctx context.Context, m domain.Message) {
	env := fanout.DirectEnvelope(m.Sender, m.Content, b.fileURL(m.FileAttachment), m.ReplyTo, fanout.FormatTimestamp(m.CreatedAt))
	b.send(ctx, fanout.ForChat(m.ChatID), env, m.ID)
}

func (b *Bridge) GroupMessageCreated(ctx context.Context, m domain.GroupMessage) {
	env := fanout.GroupEnvelope(m.Sender, m.Content, b.fileURL(m.FileAttachment), m.ReplyTo, fanout.FormatTimestamp(m.CreatedAt))
	b.send(ctx, fanout.ForGroup(m.GroupID), env, m.ID)
}

func (b *Bridge) CommonMessageCreated(ctx context.Context, m domain.CommonMessage) {
	env := fanout.BroadcastEnvelope(m.Sender, m.Content, fanout.FormatTimestamp(m.CreatedAt))
	b.send(ctx, fanout.BroadcastGroup, env, m.ID)
}

func (b *Bridge) send(ctx context.Context, group string, env fanout.Envelope, id int64) {
	n := b.out.SendToGroup(group, env)
	slog.DebugContext(ctx, "notify: dispatched",
		"group", group,
		"kind", env.Kind.String(),
		"message_id", id,
		"delivered", n)
}

func (b *Bridge) fileURL(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	if b.files == nil {
		return key
	}
	return lo.ToPtr(b.files.URL(*key))
}
