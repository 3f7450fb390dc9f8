package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

/*
абстрактный слой над *pgxpool.Pool / pgx.Tx
чтобы запросы можно было делать атомарно а не по одному
*/
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Repository struct {
	db *pgxpool.Pool
	q  querier
}

var _ store.Repository = (*Repository)(nil)

func New(db *pgxpool.Pool) *Repository {
	return &Repository{db: db, q: db}
}

func (r *Repository) Close() error {
	r.db.Close()
	return nil
}

// Migrate применяет встроенные SQL-миграции по порядку имён файлов.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

// нарушение FK отображается в «не найдено» для сущности, на которую ссылались
var fkErrors = map[string]error{
	"chats_user1_fkey":             domain.ErrUserNotFound,
	"chats_user2_fkey":             domain.ErrUserNotFound,
	"messages_chat_fkey":           domain.ErrChatNotFound,
	"messages_sender_fkey":         domain.ErrUserNotFound,
	"messages_reply_to_fkey":       domain.ErrMessageNotFound,
	"groups_admin_fkey":            domain.ErrUserNotFound,
	"group_users_group_fkey":       domain.ErrGroupNotFound,
	"group_users_user_fkey":        domain.ErrUserNotFound,
	"group_messages_group_fkey":    domain.ErrGroupNotFound,
	"group_messages_sender_fkey":   domain.ErrUserNotFound,
	"group_messages_reply_to_fkey": domain.ErrMessageNotFound,
	"common_messages_sender_fkey":  domain.ErrUserNotFound,
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique violation
			if pgErr.ConstraintName == "group_users_pair_key" {
				return domain.ErrAlreadyMember
			}
			return domain.ErrAlreadyExists
		case "23503": // foreign key violation
			if mapped, ok := fkErrors[pgErr.ConstraintName]; ok {
				return mapped
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, pgErr.ConstraintName)
		}
	}

	return err
}

func notFound(err error, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return mapPgError(err)
}

// pageArgs: аргументы keyset-пагинации ($cursor_created_at, $cursor_id).
func pageArgs(page store.Page) (store.Page, any, any, error) {
	page = page.Normalize()
	cur, err := store.DecodeCursor(page.After)
	if err != nil {
		return page, nil, nil, fmt.Errorf("decode cursor: %w", err)
	}
	var createdAt, id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}
	return page, createdAt, id, nil
}
