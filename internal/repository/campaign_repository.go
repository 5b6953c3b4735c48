package repository

import (
	"context"
	"database/sql"
	"iter"
	"log/slog"
	"time"

	"github.com/maheshrc27/adsync/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CampaignRepository is the campaign side of the entity store. Upsert is the
// only mutation path.
type CampaignRepository interface {
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	GetByName(ctx context.Context, name string) (*models.Campaign, error)
	Upsert(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	ListByStatus(ctx context.Context, status string) iter.Seq2[*models.Campaign, error]
}

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, remote_id, name, objective, status, created_at, updated_at`

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return campaign, nil
}

// GetByName prefers a campaign that already carries a remote id, then the
// oldest one.
func (r *campaignRepository) GetByName(ctx context.Context, name string) (*models.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE name = $1
		ORDER BY (remote_id IS NULL), created_at
		LIMIT 1
	`

	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return campaign, nil
}

func (r *campaignRepository) Upsert(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	stored := *campaign
	if stored.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		stored.ID = id
	}

	query := `
		INSERT INTO campaigns (id, remote_id, name, objective, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE
		SET remote_id = EXCLUDED.remote_id,
			name = EXCLUDED.name,
			objective = EXCLUDED.objective,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		stored.ID,
		nullString(stored.RemoteID),
		stored.Name,
		stored.Objective,
		stored.Status,
		time.Now().UTC(),
	).Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &stored, nil
}

// ListByStatus re-runs the query every time the sequence is ranged over.
func (r *campaignRepository) ListByStatus(ctx context.Context, status string) iter.Seq2[*models.Campaign, error] {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = $1 ORDER BY created_at`

	return func(yield func(*models.Campaign, error) bool) {
		rows, err := r.db.QueryContext(ctx, query, status)
		if err != nil {
			slog.Info(err.Error())
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			campaign, err := scanCampaign(rows)
			if err != nil {
				slog.Info(err.Error())
				yield(nil, err)
				return
			}
			if !yield(campaign, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			slog.Info(err.Error())
			yield(nil, err)
		}
	}
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var campaign models.Campaign
	var remoteID sql.NullString
	err := row.Scan(
		&campaign.ID,
		&remoteID,
		&campaign.Name,
		&campaign.Objective,
		&campaign.Status,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	campaign.RemoteID = stringPtr(remoteID)
	return &campaign, nil
}
