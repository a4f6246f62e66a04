package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	usermodel "CampusChat/module/user/model"
	"CampusChat/tools/errs"
	"CampusChat/tools/ids"
)

// Service owns user accounts on Postgres. DisplayInfo makes it the user
// directory collaborator of the message dispatcher.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Create registers a new account with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, username, password, avatarURL string) (*usermodel.User, error) {
	if username == "" || password == "" {
		return nil, errs.ErrValidation.WithDetail("username and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.WrapMsg(err, "hash password")
	}

	u := &usermodel.User{ID: ids.GenerateString(), Username: username, AvatarURL: avatarURL}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
		RETURNING created_at`,
		u.ID, username, string(hash), avatarURL)
	if err := row.Scan(&u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrValidation.WithDetail("username already exists")
		}
		return nil, errs.ErrPersistence.WrapMsg("insert user", "err", err)
	}
	return u, nil
}

// Authenticate verifies credentials and returns the account.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*usermodel.User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errs.ErrAuthorization.WithDetail("bad credentials")
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*usermodel.User, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*usermodel.User, error) {
	return s.get(ctx, `WHERE username = $1`, username)
}

func (s *Service) get(ctx context.Context, where string, arg any) (*usermodel.User, error) {
	var u usermodel.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, COALESCE(nickname, ''),
		       COALESCE(avatar_url, ''), is_admin, last_seen, created_at
		FROM users `+where, arg)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nickname,
		&u.AvatarURL, &u.IsAdmin, &u.LastSeen, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrRecordNotFound.WithDetail("user")
	}
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg("select user", "err", err)
	}
	return &u, nil
}

// DisplayInfo implements chat.UserDirectory.
func (s *Service) DisplayInfo(ctx context.Context, userID string) (username, avatarURL string, err error) {
	row := s.pool.QueryRow(ctx,
		`SELECT username, COALESCE(avatar_url, '') FROM users WHERE id = $1`, userID)
	err = row.Scan(&username, &avatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", errs.ErrRecordNotFound.WithDetail("user " + userID)
	}
	if err != nil {
		return "", "", errs.WrapMsg(err, "display info", "user", userID)
	}
	return username, avatarURL, nil
}

// TouchLastSeen persists the offline timestamp so profile pages survive a
// gateway restart.
func (s *Service) TouchLastSeen(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET last_seen = now() WHERE id = $1`, userID)
	return errs.WrapMsg(err, "touch last_seen", "user", userID)
}
