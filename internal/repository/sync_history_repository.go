package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/adsync/internal/models"
)

type SyncHistoryRepository interface {
	Create(ctx context.Context, sh *models.SyncHistory) (int64, error)
	ListByCampaignID(ctx context.Context, campaignID string) ([]*models.SyncHistory, error)
}

type syncHistoryRepository struct {
	db *sql.DB
}

func NewSyncHistoryRepository(db *sql.DB) SyncHistoryRepository {
	return &syncHistoryRepository{db: db}
}

func (r *syncHistoryRepository) Create(ctx context.Context, sh *models.SyncHistory) (int64, error) {
	query := `
		INSERT INTO sync_history (campaign_id, operation, ok, remote_code, error_message, duplicate)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, sh.CampaignID, sh.Operation, sh.OK, sh.RemoteCode, sh.ErrorMessage, sh.Duplicate).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *syncHistoryRepository) ListByCampaignID(ctx context.Context, campaignID string) ([]*models.SyncHistory, error) {
	query := `
		SELECT id, campaign_id, operation, ok, remote_code, error_message, duplicate, created_at
		FROM sync_history
		WHERE campaign_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var history []*models.SyncHistory
	for rows.Next() {
		var sh models.SyncHistory
		err := rows.Scan(&sh.ID, &sh.CampaignID, &sh.Operation, &sh.OK, &sh.RemoteCode, &sh.ErrorMessage, &sh.Duplicate, &sh.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		history = append(history, &sh)
	}
	return history, rows.Err()
}
