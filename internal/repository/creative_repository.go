package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/adsync/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type CreativeRepository interface {
	GetByID(ctx context.Context, id string) (*models.Creative, error)
	Upsert(ctx context.Context, creative *models.Creative) (*models.Creative, error)
	ListByCampaignID(ctx context.Context, campaignID string) ([]*models.Creative, error)
}

type creativeRepository struct {
	db *sql.DB
}

func NewCreativeRepository(db *sql.DB) CreativeRepository {
	return &creativeRepository{db: db}
}

const creativeColumns = `id, remote_id, campaign_id, kind, remote_file_url, local_file_path, archive_key, created_at, updated_at`

func (r *creativeRepository) GetByID(ctx context.Context, id string) (*models.Creative, error) {
	query := `SELECT ` + creativeColumns + ` FROM creatives WHERE id = $1`

	creative, err := scanCreative(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return creative, nil
}

func (r *creativeRepository) Upsert(ctx context.Context, creative *models.Creative) (*models.Creative, error) {
	stored := *creative
	if stored.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		stored.ID = id
	}

	query := `
		INSERT INTO creatives (id, remote_id, campaign_id, kind, remote_file_url, local_file_path, archive_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id) DO UPDATE
		SET remote_id = EXCLUDED.remote_id,
			campaign_id = EXCLUDED.campaign_id,
			kind = EXCLUDED.kind,
			remote_file_url = EXCLUDED.remote_file_url,
			local_file_path = EXCLUDED.local_file_path,
			archive_key = EXCLUDED.archive_key,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		stored.ID,
		nullString(stored.RemoteID),
		stored.CampaignID,
		stored.Kind,
		nullString(stored.RemoteFileURL),
		stored.LocalFilePath,
		nullString(stored.ArchiveKey),
		time.Now().UTC(),
	).Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &stored, nil
}

func (r *creativeRepository) ListByCampaignID(ctx context.Context, campaignID string) ([]*models.Creative, error) {
	query := `SELECT ` + creativeColumns + ` FROM creatives WHERE campaign_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var creatives []*models.Creative
	for rows.Next() {
		creative, err := scanCreative(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		creatives = append(creatives, creative)
	}
	return creatives, rows.Err()
}

func scanCreative(row rowScanner) (*models.Creative, error) {
	var creative models.Creative
	var remoteID, remoteFileURL, archiveKey sql.NullString
	err := row.Scan(
		&creative.ID,
		&remoteID,
		&creative.CampaignID,
		&creative.Kind,
		&remoteFileURL,
		&creative.LocalFilePath,
		&archiveKey,
		&creative.CreatedAt,
		&creative.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	creative.RemoteID = stringPtr(remoteID)
	creative.RemoteFileURL = stringPtr(remoteFileURL)
	creative.ArchiveKey = stringPtr(archiveKey)
	return &creative, nil
}
