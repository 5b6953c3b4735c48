package models

import "time"

type SyncHistory struct {
	ID           int64     `db:"id" json:"id"`
	CampaignID   string    `db:"campaign_id" json:"campaign_id"`
	Operation    string    `db:"operation" json:"operation"`
	OK           bool      `db:"ok" json:"ok"`
	RemoteCode   int64     `db:"remote_code" json:"remote_code"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	Duplicate    bool      `db:"duplicate" json:"duplicate"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
