package models

import "time"

type Creative struct {
	ID            string    `db:"id" json:"id"`
	RemoteID      *string   `db:"remote_id" json:"remote_id,omitempty"`
	CampaignID    string    `db:"campaign_id" json:"campaign_id"`
	Kind          string    `db:"kind" json:"kind"` // IMAGE, VIDEO
	RemoteFileURL *string   `db:"remote_file_url" json:"remote_file_url,omitempty"`
	LocalFilePath string    `db:"local_file_path" json:"local_file_path"`
	ArchiveKey    *string   `db:"archive_key" json:"archive_key,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

const (
	CreativeKindImage = "IMAGE"
	CreativeKindVideo = "VIDEO"
)
