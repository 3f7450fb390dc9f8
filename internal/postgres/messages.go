package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/store"
)

func (r *Repository) CreateMessage(ctx context.Context, m *domain.Message) error {
	err := r.q.QueryRow(ctx, qCreateMessage, m.ChatID, m.Sender, m.Content, m.FileAttachment, m.ReplyTo).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *Repository) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	var m domain.Message
	err := r.q.QueryRow(ctx, qGetMessage, id).
		Scan(&m.ID, &m.ChatID, &m.Sender, &m.Content, &m.FileAttachment, &m.ReplyTo, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrMessageNotFound)
	}
	return &m, nil
}

// ListMessages возвращает историю чата с курсорной пагинацией (created_at,id DESC).
func (r *Repository) ListMessages(ctx context.Context, chatID string, page store.Page) ([]domain.Message, string, error) {
	page, createdAt, id, err := pageArgs(page)
	if err != nil {
		return nil, "", err
	}

	rows, err := r.q.Query(ctx, qListMessages, chatID, createdAt, id, page.Limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Sender, &m.Content, &m.FileAttachment, &m.ReplyTo, &m.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) > 0 {
		last := out[len(out)-1]
		next = store.NextCursor(len(out), page.Limit, store.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return out, next, nil
}

func (r *Repository) CreateGroupMessage(ctx context.Context, m *domain.GroupMessage) error {
	err := r.q.QueryRow(ctx, qCreateGroupMessage, m.GroupID, m.Sender, m.Content, m.FileAttachment, m.ReplyTo).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *Repository) GetGroupMessage(ctx context.Context, id int64) (*domain.GroupMessage, error) {
	var m domain.GroupMessage
	err := r.q.QueryRow(ctx, qGetGroupMessage, id).
		Scan(&m.ID, &m.GroupID, &m.Sender, &m.Content, &m.FileAttachment, &m.ReplyTo, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrMessageNotFound)
	}
	return &m, nil
}

func (r *Repository) ListGroupMessages(ctx context.Context, groupID string, page store.Page) ([]domain.GroupMessage, string, error) {
	page, createdAt, id, err := pageArgs(page)
	if err != nil {
		return nil, "", err
	}

	rows, err := r.q.Query(ctx, qListGroupMessages, groupID, createdAt, id, page.Limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.GroupMessage
	for rows.Next() {
		var m domain.GroupMessage
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Sender, &m.Content, &m.FileAttachment, &m.ReplyTo, &m.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) > 0 {
		last := out[len(out)-1]
		next = store.NextCursor(len(out), page.Limit, store.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return out, next, nil
}

func (r *Repository) CreateCommonMessage(ctx context.Context, m *domain.CommonMessage) error {
	if err := r.q.QueryRow(ctx, qCreateCommonMessage, m.Sender, m.Content).Scan(&m.ID, &m.CreatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *Repository) GetCommonMessage(ctx context.Context, id int64) (*domain.CommonMessage, error) {
	var m domain.CommonMessage
	err := r.q.QueryRow(ctx, qGetCommonMessage, id).Scan(&m.ID, &m.Sender, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrMessageNotFound)
	}
	return &m, nil
}

func (r *Repository) ListCommonMessages(ctx context.Context, page store.Page) ([]domain.CommonMessage, string, error) {
	page, createdAt, id, err := pageArgs(page)
	if err != nil {
		return nil, "", err
	}

	rows, err := r.q.Query(ctx, qListCommonMessages, createdAt, id, page.Limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.CommonMessage
	for rows.Next() {
		var m domain.CommonMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) > 0 {
		last := out[len(out)-1]
		next = store.NextCursor(len(out), page.Limit, store.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return out, next, nil
}
