package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapPgError(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(mapPgError(&pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}), domain.ErrAlreadyExists)
	req.ErrorIs(mapPgError(&pgconn.PgError{Code: "23505", ConstraintName: "group_users_pair_key"}), domain.ErrAlreadyMember)
	req.ErrorIs(mapPgError(&pgconn.PgError{Code: "23503", ConstraintName: "messages_chat_fkey"}), domain.ErrChatNotFound)
	req.ErrorIs(mapPgError(&pgconn.PgError{Code: "23503", ConstraintName: "messages_reply_to_fkey"}), domain.ErrMessageNotFound)
	req.ErrorIs(mapPgError(&pgconn.PgError{Code: "23503", ConstraintName: "mystery_fkey"}), domain.ErrInvalidInput)

	wrapped := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23503", ConstraintName: "common_messages_sender_fkey"})
	req.ErrorIs(mapPgError(wrapped), domain.ErrUserNotFound)

	other := errors.New("connection reset")
	req.Equal(other, mapPgError(other))
}

func TestNotFound(t *testing.T) {
	require.ErrorIs(t, notFound(pgx.ErrNoRows, domain.ErrGroupNotFound), domain.ErrGroupNotFound)
}

func TestPageArgs(t *testing.T) {
	req := require.New(t)

	page, createdAt, id, err := pageArgs(store.Page{})
	req.NoError(err)
	req.Equal(store.DefaultLimit, page.Limit)
	req.Nil(createdAt)
	req.Nil(id)

	cur, err := store.EncodeCursor(store.Cursor{ID: 9})
	req.NoError(err)
	_, _, id, err = pageArgs(store.Page{After: cur, Limit: 5})
	req.NoError(err)
	req.Equal(int64(9), id)

	_, _, _, err = pageArgs(store.Page{After: "!!"})
	req.ErrorIs(err, store.ErrInvalidCursor)
}

func TestMigrationsEmbedded(t *testing.T) {
	data, err := migrations.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)
	require.Contains(t, string(data), "ON DELETE SET NULL")
}
