package models

import "time"

type Campaign struct {
	ID        string    `db:"id" json:"id"`
	RemoteID  *string   `db:"remote_id" json:"remote_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	Objective string    `db:"objective" json:"objective"`
	Status    string    `db:"status" json:"status"` // ACTIVE, INACTIVE
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasRemote reports whether the campaign was ever registered on the platform.
func (c *Campaign) HasRemote() bool {
	return c.RemoteID != nil && *c.RemoteID != ""
}

const (
	CampaignStatusActive   = "ACTIVE"
	CampaignStatusInactive = "INACTIVE"

	DefaultObjective = "REACH"
)
