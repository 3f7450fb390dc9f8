package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	if _, err := r.q.Exec(ctx, qCreateUser, u.Username, u.Name); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.q.QueryRow(ctx, qGetUser, username).Scan(&u.Username, &u.Name); err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.Query(ctx, qListUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.Username, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repository) EnsureChat(ctx context.Context, a, b string) (*domain.Chat, error) {
	c := domain.NewChat(a, b, time.Time{})
	err := r.q.QueryRow(ctx, qEnsureChat, c.ID, c.User1, c.User2).
		Scan(&c.ID, &c.User1, &c.User2, &c.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &c, nil
}

func (r *Repository) GetChat(ctx context.Context, id string) (*domain.Chat, error) {
	var c domain.Chat
	if err := r.q.QueryRow(ctx, qGetChat, id).Scan(&c.ID, &c.User1, &c.User2, &c.CreatedAt); err != nil {
		return nil, notFound(err, domain.ErrChatNotFound)
	}
	return &c, nil
}

func (r *Repository) ListChats(ctx context.Context, username string) ([]domain.Chat, error) {
	rows, err := r.q.Query(ctx, qListChats, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Chat
	for rows.Next() {
		var c domain.Chat
		if err := rows.Scan(&c.ID, &c.User1, &c.User2, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
