package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/supavault/internal/notification/entity"
)

func (s *DB) CreateDeliveryLog(ctx context.Context, dl entity.DeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_delivery_logs
			(id, user_id, channel, trigger_key, recipient, status, provider_response, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		dl.ID, dl.UserID, dl.Channel, dl.TriggerKey.String(), dl.Recipient, dl.Status, dl.ProviderResponse, dl.CreatedAt)
	err = s.mapError(err)
	return err
}

func (s *DB) UpdateDeliveryLogStatus(ctx context.Context, u entity.UpdateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryLogStatus")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_delivery_logs
		SET status = $2, provider_response = $3, updated_at = $4
		WHERE id = $1`,
		u.ID, u.Status, u.ProviderResponse, u.UpdatedAt)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return s.mapError(pgx.ErrNoRows)
	}

	return nil
}

func (s *DB) ListDeliveryLogs(ctx context.Context, userID int64, tk entity.TriggerKey) (_ []entity.DeliveryLog, err error) {
	ctx, span := s.startSpan(ctx, "ListDeliveryLogs")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, user_id, channel, trigger_key, recipient, status, provider_response, created_at, updated_at
		FROM notification_delivery_logs
		WHERE user_id = $1 AND trigger_key = $2
		ORDER BY created_at, id`,
		userID, tk.String())
	if err != nil {
		return nil, s.mapError(err)
	}

	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DeliveryLog, error) {
		var (
			dl  entity.DeliveryLog
			key string
		)
		err := row.Scan(&dl.ID, &dl.UserID, &dl.Channel, &key, &dl.Recipient, &dl.Status,
			&dl.ProviderResponse, &dl.CreatedAt, &dl.UpdatedAt)
		dl.TriggerKey = entity.TriggerKey(key)
		return dl, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return logs, nil
}
