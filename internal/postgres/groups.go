package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

func (r *Repository) CreateGroup(ctx context.Context, g *domain.Group) error {
	if _, err := r.q.Exec(ctx, qCreateGroup, g.ID, g.Name, g.Admin); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *Repository) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	if err := r.q.QueryRow(ctx, qGetGroup, id).Scan(&g.ID, &g.Name, &g.Admin); err != nil {
		return nil, notFound(err, domain.ErrGroupNotFound)
	}
	return &g, nil
}

func (r *Repository) ListGroups(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.q.Query(ctx, qListGroups)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Admin); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) AddGroupUser(ctx context.Context, gu *domain.GroupUser) error {
	if err := r.q.QueryRow(ctx, qAddGroupUser, gu.GroupID, gu.Username).Scan(&gu.ID); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *Repository) ListGroupUsers(ctx context.Context, groupID, username string) ([]domain.GroupUser, error) {
	rows, err := r.q.Query(ctx, qListGroupUsers, groupID, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GroupUser
	for rows.Next() {
		var gu domain.GroupUser
		if err := rows.Scan(&gu.ID, &gu.GroupID, &gu.Username); err != nil {
			return nil, err
		}
		out = append(out, gu)
	}
	return out, rows.Err()
}
