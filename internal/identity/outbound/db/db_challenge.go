package db

import (
	"context"

	"github.com/shandysiswandi/supavault/internal/identity/entity"
)

// UpsertChallenge relies on UNIQUE(username, email): a second challenge for
// the same pair overwrites the first in one statement, id included.
func (s *DB) UpsertChallenge(ctx context.Context, chal entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO identity_otp_challenges (id, username, email, code_hash, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT identity_otp_challenges_pair_key DO UPDATE
		SET id = EXCLUDED.id,
		    code_hash = EXCLUDED.code_hash,
		    attempts = EXCLUDED.attempts,
		    created_at = EXCLUDED.created_at`,
		chal.ID, chal.Username, chal.Email, chal.CodeHash, chal.Attempts, chal.CreatedAt)
	err = s.mapError(err)
	return err
}

// ReserveAttempt increments attempts and returns the row in one statement;
// a row already at limit is left untouched and reported as not found.
func (s *DB) ReserveAttempt(ctx context.Context, id string, limit int) (_ *entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "ReserveAttempt")
	defer func() { s.endSpan(span, err) }()

	var c entity.Challenge
	err = s.conn.QueryRow(ctx, `
		UPDATE identity_otp_challenges SET attempts = attempts + 1
		WHERE id = $1 AND attempts < $2
		RETURNING id, username, email, code_hash, attempts, created_at`, id, limit).
		Scan(&c.ID, &c.Username, &c.Email, &c.CodeHash, &c.Attempts, &c.CreatedAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &c, nil
}

func (s *DB) ConsumeChallenge(ctx context.Context, id string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallenge")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM identity_otp_challenges WHERE id = $1`, id)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) DeleteChallenge(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM identity_otp_challenges WHERE id = $1`, id)
	err = s.mapError(err)
	return err
}
