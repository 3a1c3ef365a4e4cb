package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/supavault/internal/identity/entity"
)

const userColumns = `id, username, email, created_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM identity_users WHERE email = $1`, email))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM identity_users WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) CreateUser(ctx context.Context, user entity.User) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO identity_users (id, username, email, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Username, user.Email, user.CreatedAt)
	err = s.mapError(err)
	return err
}

func (s *DB) CreateUserIfAbsent(ctx context.Context, user entity.User) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "CreateUserIfAbsent")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`INSERT INTO identity_users (id, username, email, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO NOTHING`,
		user.ID, user.Username, user.Email, user.CreatedAt)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *DB) SearchUsers(ctx context.Context, term string, excludeID int64, limit int) (_ []entity.User, err error) {
	ctx, span := s.startSpan(ctx, "SearchUsers")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT `+userColumns+` FROM identity_users
		 WHERE username ILIKE $1 ESCAPE '\' AND id <> $2
		 ORDER BY username, id
		 LIMIT $3`,
		"%"+likeEscaper.Replace(term)+"%", excludeID, limit)
	if err != nil {
		return nil, s.mapError(err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return entity.User{}, err
		}
		return *u, nil
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return users, nil
}
