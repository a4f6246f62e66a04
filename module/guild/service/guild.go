package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	guildmodel "CampusChat/module/guild/model"
	"CampusChat/tools/errs"
	"CampusChat/tools/ids"
)

// Service owns servers, channels and group chats on Postgres.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// ListServers returns all active servers with owner name and member count.
func (s *Service) ListServers(ctx context.Context) ([]guildmodel.Server, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.name, COALESCE(s.description, ''), s.owner_id, u.username,
		       (SELECT COUNT(*) FROM server_members sm WHERE sm.server_id = s.id),
		       s.created_at
		FROM servers s
		JOIN users u ON s.owner_id = u.id
		WHERE s.status = 'active'`)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg("list servers", "err", err)
	}
	defer rows.Close()

	var out []guildmodel.Server
	for rows.Next() {
		var sv guildmodel.Server
		if err := rows.Scan(&sv.ID, &sv.Name, &sv.Description, &sv.OwnerID,
			&sv.OwnerName, &sv.MemberCount, &sv.CreatedAt); err != nil {
			return nil, errs.ErrPersistence.WrapMsg("scan server", "err", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// GetServer returns one server with its channels.
func (s *Service) GetServer(ctx context.Context, id string) (*guildmodel.Server, error) {
	var sv guildmodel.Server
	row := s.pool.QueryRow(ctx, `
		SELECT s.id, s.name, COALESCE(s.description, ''), s.owner_id, u.username, s.created_at
		FROM servers s
		JOIN users u ON s.owner_id = u.id
		WHERE s.id = $1`, id)
	err := row.Scan(&sv.ID, &sv.Name, &sv.Description, &sv.OwnerID, &sv.OwnerName, &sv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrRecordNotFound.WithDetail("server " + id)
	}
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg("select server", "err", err)
	}

	sv.Channels, err = s.Channels(ctx, id)
	if err != nil {
		return nil, err
	}
	return &sv, nil
}

func (s *Service) Channels(ctx context.Context, serverID string) ([]guildmodel.Channel, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, server_id, name FROM channels WHERE server_id = $1`, serverID)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg("list channels", "err", err)
	}
	defer rows.Close()

	var out []guildmodel.Channel
	for rows.Next() {
		var ch guildmodel.Channel
		if err := rows.Scan(&ch.ID, &ch.ServerID, &ch.Name); err != nil {
			return nil, errs.ErrPersistence.WrapMsg("scan channel", "err", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Join adds the user to a server; joining twice is a no-op.
func (s *Service) Join(ctx context.Context, serverID, userID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO server_members (server_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, serverID, userID)
	if err != nil {
		return errs.ErrPersistence.WrapMsg("join server", "err", err)
	}
	return nil
}

// ServersOf lists the servers a user belongs to or owns.
func (s *Service) ServersOf(ctx context.Context, userID string) ([]guildmodel.Server, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT s.id, s.name, COALESCE(s.description, ''), s.owner_id, u.username, s.created_at
		FROM servers s
		JOIN users u ON s.owner_id = u.id
		LEFT JOIN server_members sm ON s.id = sm.server_id
		WHERE sm.user_id = $1 OR s.owner_id = $1
		ORDER BY s.created_at DESC`, userID)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg("servers of user", "err", err)
	}
	defer rows.Close()

	var out []guildmodel.Server
	for rows.Next() {
		var sv guildmodel.Server
		if err := rows.Scan(&sv.ID, &sv.Name, &sv.Description, &sv.OwnerID,
			&sv.OwnerName, &sv.CreatedAt); err != nil {
			return nil, errs.ErrPersistence.WrapMsg("scan server", "err", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// CreateGroupChat creates a group conversation and enrolls its members in a
// single transaction.
func (s *Service) CreateGroupChat(ctx context.Context, name string, memberIDs []string) (*guildmodel.GroupChat, error) {
	if name == "" || len(memberIDs) == 0 {
		return nil, errs.ErrValidation.WithDetail("name and members required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg("begin tx", "err", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	gc := &guildmodel.GroupChat{ID: ids.GenerateString(), Name: name}
	row := tx.QueryRow(ctx,
		`INSERT INTO group_chats (id, name) VALUES ($1, $2) RETURNING created_at`, gc.ID, name)
	if err := row.Scan(&gc.CreatedAt); err != nil {
		return nil, errs.ErrPersistence.WrapMsg("insert group chat", "err", err)
	}
	for _, m := range memberIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO group_chat_members (group_chat_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, gc.ID, m); err != nil {
			return nil, errs.ErrPersistence.WrapMsg("insert member", "err", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errs.ErrPersistence.WrapMsg("commit group chat", "err", err)
	}
	return gc, nil
}

// GroupChatsOf lists the group chats a user is a member of.
func (s *Service) GroupChatsOf(ctx context.Context, userID string) ([]guildmodel.GroupChat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT gc.id, gc.name, gc.created_at
		FROM group_chats gc
		JOIN group_chat_members gcm ON gc.id = gcm.group_chat_id
		WHERE gcm.user_id = $1`, userID)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg("group chats of user", "err", err)
	}
	defer rows.Close()

	var out []guildmodel.GroupChat
	for rows.Next() {
		var gc guildmodel.GroupChat
		if err := rows.Scan(&gc.ID, &gc.Name, &gc.CreatedAt); err != nil {
			return nil, errs.ErrPersistence.WrapMsg("scan group chat", "err", err)
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}
